package util

const (
	M    uint64 = 0xc6a4a7935bd1e995
	SEED uint64 = 0xe17a1465
	R    uint64 = 47
)

// HashU64 is the murmur64 finalizer over one word.
func HashU64(x uint64) uint64 {
	n := uint64(8)
	h := SEED ^ (n * M)
	k := x * M
	k ^= k >> R
	k *= M
	h ^= k
	h *= M
	h ^= h >> R
	h *= M
	h ^= h >> R
	return h
}

// HashKey is the pre-hash handed to the hash maps for a 32-bit key.
func HashKey(key int32) uint32 {
	h := HashU64(uint64(uint32(key)))
	return uint32(h ^ (h >> 32))
}
