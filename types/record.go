package types

// DefaultShardSize is the number of records proved by one shard proof. 1000
// partitions the canonical 1,000,000-record synthetic dataset into exactly
// 1000 shards.
const DefaultShardSize = 1000

// NumBuckets is the number of age buckets.
const NumBuckets = 6

// AgeBucket is an inclusive [Min, Max] age interval.
type AgeBucket struct {
	Min uint8
	Max uint8
}

// AgeBuckets partitions [0, 120] without overlap and without gaps. The shard
// circuit hardcodes these bounds, so changing them invalidates every existing
// key pair and proof.
var AgeBuckets = [NumBuckets]AgeBucket{
	{0, 17},
	{18, 29},
	{30, 39},
	{40, 49},
	{50, 64},
	{65, 120},
}

// Record is one synthetic health record. Records are private: they are
// absorbed into the shard commitment and otherwise never leave the process.
type Record struct {
	// Age in years, [0, 120].
	Age uint8
	// Blood glucose (mg/dL).
	BloodGlucoseMgDl uint16
}

// BucketForAge maps an age to its bucket index.
//
// Ages above 120 are clamped to the last bucket. The synthetic generator never
// emits them; a clamped record would fail the circuit's exhaustiveness
// constraint, so this path only matters for host-side computation on trusted
// inputs.
func BucketForAge(age uint8) int {
	for i, b := range AgeBuckets {
		if age >= b.Min && age <= b.Max {
			return i
		}
	}
	return NumBuckets - 1
}
