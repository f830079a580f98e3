// Package compute is the dispatch layer: it lays out the device-visible
// buffers, launches chunked parallel scans, collects matches through
// atomic counters, and re-establishes ordering and line numbers on the
// host. The device itself is abstracted behind Backend; the in-tree
// backend executes kernels as cooperating workgroups.
package compute

import (
	"encoding/binary"
	"fmt"
)

const (
	// MaxDeviceBuffer is the per-dispatch text budget. Larger inputs
	// return ErrTextTooLarge and the caller falls back to the host.
	MaxDeviceBuffer = 64 << 20
	// MaxResults bounds the result array of one dispatch. The written
	// counter saturates here; Total still reports the true count.
	MaxResults = 1 << 16

	// chunkBytes positions per thread for the literal kernel, so total
	// threads come out near textLen/64.
	chunkBytes = 64
	// literalWorkgroup and regexWorkgroup are the fixed workgroup sizes
	// of the two kernels.
	literalWorkgroup = 256
	regexWorkgroup   = 64
)

// Config flag bits (bit assignments are part of the device ABI).
const (
	CfgFold      = 1 << 0
	CfgGlobal    = 1 << 1
	CfgFirstOnly = 1 << 2
	CfgLineMode  = 1 << 3
)

// ConfigSize is the padded wire size of Config.
const ConfigSize = 32

// Config is the uniform record shared with the device. The wire form is
// fixed-width little-endian, padded to 32 bytes.
type Config struct {
	TextLen        uint32
	PatternLen     uint32
	ReplacementLen uint32
	Flags          uint32
	MaxMatches     uint32
	NumThreads     uint32
}

// MarshalBinary encodes the record in its device layout.
func (c *Config) MarshalBinary() ([]byte, error) {
	out := make([]byte, ConfigSize)
	binary.LittleEndian.PutUint32(out[0:], c.TextLen)
	binary.LittleEndian.PutUint32(out[4:], c.PatternLen)
	binary.LittleEndian.PutUint32(out[8:], c.ReplacementLen)
	binary.LittleEndian.PutUint32(out[12:], c.Flags)
	binary.LittleEndian.PutUint32(out[16:], c.MaxMatches)
	binary.LittleEndian.PutUint32(out[20:], c.NumThreads)
	return out, nil
}

// UnmarshalBinary decodes the device layout.
func (c *Config) UnmarshalBinary(data []byte) error {
	if len(data) < ConfigSize {
		return fmt.Errorf("config record: %d bytes, want %d", len(data), ConfigSize)
	}
	c.TextLen = binary.LittleEndian.Uint32(data[0:])
	c.PatternLen = binary.LittleEndian.Uint32(data[4:])
	c.ReplacementLen = binary.LittleEndian.Uint32(data[8:])
	c.Flags = binary.LittleEndian.Uint32(data[12:])
	c.MaxMatches = binary.LittleEndian.Uint32(data[16:])
	c.NumThreads = binary.LittleEndian.Uint32(data[20:])
	return nil
}

// RecordSize is the wire size of one match record: start, end, line and
// one pad word.
const RecordSize = 16

// Record is the device-visible match record. Line is written as zero by
// the literal kernel and reconstructed host-side.
type Record struct {
	Start uint32
	End   uint32
	Line  uint32
}

func putRecord(dst []byte, r Record) {
	binary.LittleEndian.PutUint32(dst[0:], r.Start)
	binary.LittleEndian.PutUint32(dst[4:], r.End)
	binary.LittleEndian.PutUint32(dst[8:], r.Line)
	binary.LittleEndian.PutUint32(dst[12:], 0)
}

func getRecord(src []byte) Record {
	return Record{
		Start: binary.LittleEndian.Uint32(src[0:]),
		End:   binary.LittleEndian.Uint32(src[4:]),
		Line:  binary.LittleEndian.Uint32(src[8:]),
	}
}
