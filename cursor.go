package browsertoken

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

var errOutOfBounds = errors.New("offset out of bounds")

// byteCursor reads fixed-layout values out of an untrusted byte slice.
// Every read is bounds-checked: malformed input surfaces as an error,
// never a panic.
type byteCursor struct {
	b []byte
}

func (c byteCursor) slice(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > len(c.b) || n > len(c.b)-off {
		return nil, errOutOfBounds
	}
	return c.b[off : off+n], nil
}

// sub returns a cursor over a checked sub-range, so record-relative
// offsets cannot escape their record.
func (c byteCursor) sub(off, n int) (byteCursor, error) {
	b, err := c.slice(off, n)
	if err != nil {
		return byteCursor{}, err
	}
	return byteCursor{b: b}, nil
}

func (c byteCursor) u32be(off int) (uint32, error) {
	b, err := c.slice(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c byteCursor) u32le(off int) (uint32, error) {
	b, err := c.slice(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c byteCursor) f64le(off int) (float64, error) {
	b, err := c.slice(off, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// cstring reads a NUL-terminated UTF-8 string starting at off. A missing
// terminator means the containing record is truncated.
func (c byteCursor) cstring(off int) (string, error) {
	if off < 0 || off >= len(c.b) {
		return "", errOutOfBounds
	}
	rest := c.b[off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", errors.New("unterminated string")
	}
	return string(rest[:end]), nil
}
