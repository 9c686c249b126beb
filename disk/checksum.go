package disk

import "github.com/spaolacci/murmur3"

// Checksum computes a page-integrity digest over data, grounded on the
// teacher's GenHashMurMur (container/hash/hash_util.go). It is not part of
// the on-disk page layout spec §3/§6 fixes; it's exposed so an external
// WAL/recovery layer can detect torn writes without the storage core
// redesigning its page format to make room for one.
func Checksum(data []byte) uint32 {
	h := murmur3.New128()
	_, _ = h.Write(data)
	sum := h.Sum(nil)
	return uint32(sum[0]) | uint32(sum[1])<<8 | uint32(sum[2])<<16 | uint32(sum[3])<<24
}
