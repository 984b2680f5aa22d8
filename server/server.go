package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/medgraph/zk-ledger/provers"
	"github.com/medgraph/zk-ledger/storage"
	"github.com/medgraph/zk-ledger/types"
	"github.com/medgraph/zk-ledger/verifiers"
)

// Server is the HTTP surface over the ledger: dataset lifecycle, shard
// listing with proofs, aggregate queries, vk distribution, and stateless
// shard verification.
type Server struct {
	store              storage.Store
	prover             *prover.ShardProver
	source             prover.RecordSource
	apiKey             string
	defaultDatasetSize uint64
	log                zerolog.Logger
	router             *mux.Router
}

func New(store storage.Store, p *prover.ShardProver, source prover.RecordSource, apiKey string, defaultDatasetSize uint64, log zerolog.Logger) *Server {
	s := &Server{
		store:              store,
		prover:             p,
		source:             source,
		apiKey:             apiKey,
		defaultDatasetSize: defaultDatasetSize,
		log:                log,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/datasets/{id}", s.handleGetDataset).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/datasets/{id}/shards", s.handleListShards).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/zk/vk", s.handleGetVk).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	auth := authMiddleware(s.apiKey, s.log)
	r.Handle("/api/v1/datasets", auth(http.HandlerFunc(s.handleCreateDataset))).Methods(http.MethodPost)
	r.Handle("/api/v1/queries", auth(http.HandlerFunc(s.handleCreateQuery))).Methods(http.MethodPost)
	r.Handle("/api/v1/verify/shard", auth(http.HandlerFunc(s.handleVerifyShard))).Methods(http.MethodPost)

	r.Use(requestLogger(s.log))
	return r
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.router)
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("backend listening")
	return srv.ListenAndServe()
}

func (s *Server) handleCreateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	datasetSize := s.defaultDatasetSize
	if req.DatasetSize != nil {
		datasetSize = *req.DatasetSize
	}

	shardSize := uint64(s.prover.ShardSize())
	if datasetSize == 0 || datasetSize%shardSize != 0 {
		s.writeError(w, http.StatusBadRequest, "dataset_size must be a positive multiple of shard_size "+strconv.FormatUint(shardSize, 10))
		return
	}

	datasetID := uuid.New()
	d := storage.Dataset{
		ID:          datasetID,
		DatasetSize: datasetSize,
		ShardSize:   shardSize,
		Status:      storage.StatusGenerating,
	}
	if err := s.store.InsertDataset(r.Context(), d); err != nil {
		s.log.Error().Err(err).Msg("insert dataset")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	pipeline := &prover.Pipeline{Store: s.store, Prover: s.prover, Source: s.source, Log: s.log}
	// Generation outlives the request; proving is CPU-bound and takes minutes.
	go pipeline.GenerateDataset(context.Background(), datasetID, datasetSize)

	datasetsCreated.Inc()
	s.writeJSON(w, http.StatusOK, datasetCreateResponse{DatasetID: datasetID})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.datasetID(w, r)
	if !ok {
		return
	}

	d, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Msg("get dataset")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if d == nil {
		s.writeError(w, http.StatusNotFound, "dataset not found")
		return
	}

	done, err := s.store.CountShardsDone(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Msg("count shards")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, datasetGetResponse{
		DatasetID:            d.ID,
		CreatedAt:            d.CreatedAt.UTC().Format(time.RFC3339),
		DatasetSize:          d.DatasetSize,
		ShardSize:            d.ShardSize,
		NumBuckets:           types.NumBuckets,
		Status:               d.Status,
		ShardsTotal:          d.DatasetSize / d.ShardSize,
		ShardsDone:           done,
		DatasetCommitmentHex: d.CommitmentHex,
		Error:                d.Error,
	})
}

func (s *Server) handleListShards(w http.ResponseWriter, r *http.Request) {
	id, ok := s.datasetID(w, r)
	if !ok {
		return
	}

	offset := queryUint(r, "offset", 0)
	limit := queryUint(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}
	includeProof := r.URL.Query().Get("include_proof") == "true"

	d, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Msg("get dataset")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if d == nil {
		s.writeError(w, http.StatusNotFound, "dataset not found")
		return
	}

	rows, err := s.store.ListShards(r.Context(), id, offset, limit, includeProof)
	if err != nil {
		s.log.Error().Err(err).Msg("list shards")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	shards := make([]shardListItem, 0, len(rows))
	for _, row := range rows {
		shards = append(shards, shardListItem{
			ShardIndex:         row.ShardIndex,
			ShardCommitmentHex: row.CommitmentHex,
			SumGlucoseByBucket: row.Stats.SumGlucoseByBucket,
			CountByBucket:      row.Stats.CountByBucket,
			Verified:           row.Verified,
			ProofB64:           row.ProofB64,
		})
	}

	s.writeJSON(w, http.StatusOK, shardListResponse{
		DatasetID:   id,
		Offset:      offset,
		Limit:       limit,
		ShardsTotal: d.DatasetSize / d.ShardSize,
		Shards:      shards,
	})
}

func (s *Server) handleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Field != "blood_glucose" && req.Field != "blood_glucose_mg_dl" {
		s.writeError(w, http.StatusBadRequest, "only field 'blood_glucose' is supported")
		return
	}

	bucketIndex, ok := bucketForAgeRange(req.AgeRange)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "age_range must match one of the configured buckets")
		return
	}

	d, err := s.store.GetDataset(r.Context(), req.DatasetID)
	if err != nil {
		s.log.Error().Err(err).Msg("get dataset")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if d == nil {
		s.writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	if d.Status != storage.StatusReady {
		s.writeError(w, http.StatusConflict, "dataset not ready")
		return
	}

	sum, count, err := s.store.AggregateForBucket(r.Context(), req.DatasetID, bucketIndex)
	if err != nil {
		s.log.Error().Err(err).Msg("aggregate bucket")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var mean *float64
	if req.Metric == "mean" && count > 0 {
		m := float64(sum) / float64(count)
		mean = &m
	}

	// The claim holds iff every shard proof verified.
	shardsTotal := d.DatasetSize / d.ShardSize
	verified, err := s.store.CountShardsVerified(r.Context(), req.DatasetID)
	if err != nil {
		s.log.Error().Err(err).Msg("count verified shards")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	serverVerified := verified == shardsTotal

	queryID := uuid.New()
	q := storage.QueryRow{
		ID:             queryID,
		DatasetID:      req.DatasetID,
		Metric:         req.Metric,
		BucketIndex:    bucketIndex,
		Sum:            sum,
		Count:          count,
		Mean:           mean,
		ServerVerified: serverVerified,
	}
	if err := s.store.InsertQuery(r.Context(), q); err != nil {
		s.log.Error().Err(err).Msg("insert query")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	bucket := types.AgeBuckets[bucketIndex]
	queriesServed.Inc()
	s.writeJSON(w, http.StatusOK, queryResponse{
		QueryID:             queryID,
		DatasetID:           req.DatasetID,
		BucketIndex:         bucketIndex,
		BucketRange:         [2]uint8{bucket.Min, bucket.Max},
		SumGlucose:          sum,
		Count:               count,
		MeanGlucose:         mean,
		ServerVerified:      serverVerified,
		ShardProofsEndpoint: "/api/v1/datasets/" + req.DatasetID.String() + "/shards?include_proof=true",
	})
}

func (s *Server) handleGetVk(w http.ResponseWriter, _ *http.Request) {
	vkBytes, err := prover.SerializeVerifyingKey(s.prover.VerifyingKey())
	if err != nil {
		s.log.Error().Err(err).Msg("serialize verifying key")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, zkVkResponse{
		Curve:       "bn254",
		ProofSystem: "groth16",
		VkB64:       base64.StdEncoding.EncodeToString(vkBytes),
	})
}

func (s *Server) handleVerifyShard(w http.ResponseWriter, r *http.Request) {
	var req verifyShardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vkBytes, err := base64.StdEncoding.DecodeString(req.VkB64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid vk_b64")
		return
	}
	proofBytes, err := base64.StdEncoding.DecodeString(req.ProofB64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid proof_b64")
		return
	}

	ok, err := verifiers.VerifyShard(
		vkBytes,
		proofBytes,
		req.PublicShardCommitmentHex,
		req.PublicSumGlucoseByBucket[:],
		req.PublicCountByBucket[:],
	)
	if err != nil {
		// Input-format failure: the caller sent bytes we could not decode.
		shardVerifications.WithLabelValues("bad_input").Inc()
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if ok {
		shardVerifications.WithLabelValues("ok").Inc()
	} else {
		shardVerifications.WithLabelValues("failed").Inc()
	}
	s.writeJSON(w, http.StatusOK, verifyShardResponse{OK: ok})
}

func (s *Server) datasetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid dataset id")
		return uuid.UUID{}, false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// bucketForAgeRange maps an exact (min, max) age range to its bucket index.
func bucketForAgeRange(r [2]uint8) (int, bool) {
	for i, b := range types.AgeBuckets {
		if r[0] == b.Min && r[1] == b.Max {
			return i, true
		}
	}
	return 0, false
}

func queryUint(r *http.Request, key string, def uint64) uint64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}
