package gdbm

// hashKey computes GDBM's 31-bit key hash. The algorithm and its three test
// vectors (hash("hello")==1730502474, hash("hello\x00")==72084335,
// hash("")==12345) are load-bearing: they pin bit-exact compatibility with
// real GDBM files.
func hashKey(key []byte) uint32 {
	v := uint32(len(key)) * 0x238F13AF // wrapping u32 multiply

	for i, b := range key {
		shift := uint((i * 5) % 24)
		v = (v + (uint32(b) << shift)) & 0x7FFFFFFF
	}

	v = (v*1103515243 + 12345) & 0x7FFFFFFF

	return v
}

// bucketDir maps a hash to its directory index at the given dir_bits precision.
func bucketDir(h uint32, dirBits uint32) uint32 {
	return h >> (31 - dirBits)
}

// homeSlot maps a hash to its starting probe slot within a bucket.
func homeSlot(h uint32, bucketElems uint32) uint32 {
	return h % bucketElems
}
