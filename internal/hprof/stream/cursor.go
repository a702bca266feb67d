package stream

import (
	"encoding/binary"
	"errors"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
)

// errNeedMore signals that a top-level record's header or body is not yet
// fully present in the accumulated carry+chunk buffer. The GC sub-record
// decoders return it too (for a short read, an unrecognized sub-tag, or a
// field type of unknown size), but since the full segment body is already
// in hand there, Parser.overflow converts it to a SubRecordOverflowError
// before it leaves the parser.
var errNeedMore = errors.New("stream: need more data")

// cursor is a bounds-checked big-endian reader over an in-memory slice.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) u1() (byte, error) {
	if c.remaining() < 1 {
		return 0, errNeedMore
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) u2() (uint16, error) {
	if c.remaining() < 2 {
		return 0, errNeedMore
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u4() (uint32, error) {
	if c.remaining() < 4 {
		return 0, errNeedMore
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) i4() (int32, error) {
	v, err := c.u4()
	return int32(v), err
}

func (c *cursor) u8() (uint64, error) {
	if c.remaining() < 8 {
		return 0, errNeedMore
	}
	v := binary.BigEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v, nil
}

// id reads an 8-byte object/class identifier (the only supported id_size).
func (c *cursor) id() (model.ID, error) {
	v, err := c.u8()
	return model.ID(v), err
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, errNeedMore
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// field reads a value of the given HPROF field type and returns its raw
// bytes, sized per model.FieldType.Size.
func (c *cursor) field(ft model.FieldType, idSize int) ([]byte, error) {
	size := ft.Size(idSize)
	if size == 0 {
		return nil, errNeedMore
	}
	return c.bytes(size)
}
