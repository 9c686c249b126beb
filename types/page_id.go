// Package types holds the small value types shared across the storage
// core: page identifiers and column-type codes.
package types

import (
	"bytes"
	"encoding/binary"

	"github.com/relsql/heapcore/common"
)

// PageID is a page number within one file. It is always paired with a file
// handle (FileID) to form the logical PageId of spec §3. Only the buffer
// pool bundles the two (buffer.PageKey); page headers and Rids carry the
// page number on its own, since the file handle is the unit callers
// already hold.
type PageID int32

// FileID is the opaque per-open-file handle the disk manager hands back
// from OpenFile. Negative values are never valid.
type FileID int32

// InvalidPageID is PageID's zero-equivalent "unset" sentinel.
const InvalidPageID PageID = PageID(common.InvalidPageID)

// InvalidFileID is FileID's "no such open file" sentinel.
const InvalidFileID FileID = -1

// IsValid reports whether id is not the invalid sentinel.
func (id PageID) IsValid() bool {
	return id != InvalidPageID
}

// Serialize encodes id as 4 little-endian bytes.
func (id PageID) Serialize() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, int32(id))
	return buf.Bytes()
}

// NewPageIDFromBytes decodes a PageID from its 4-byte little-endian form.
func NewPageIDFromBytes(data []byte) PageID {
	var raw int32
	_ = binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw)
	return PageID(raw)
}
