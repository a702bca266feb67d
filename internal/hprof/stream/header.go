package stream

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
)

// wantFormat is the only HPROF dialect this engine understands; schema
// evolution across non-1.0.x dialects is a non-goal (spec.md §1).
const wantFormat = "JAVA PROFILE 1.0.2"

// ParseHeader reads the HPROF preamble from r and returns the frozen
// FileHeader: a null-terminated format string, then a big-endian
// id_size:u32, then a big-endian timestamp:u64. Only id_size == 8 is
// accepted; id_size == 4 is refused with ErrUnsupportedIDSize rather than
// ErrInvalidIDSize, matching spec.md §6's "Refused inputs" table.
//
// Unlike a fixed-width preamble, this format's magic string is itself
// null-terminated. A format string that reads cleanly but is not
// wantFormat is reported as InvalidHeaderSize; a read that fails before
// the terminator (or in the id_size/timestamp that follow) is reported as
// InvalidHprofFile.
//
// Position just past the header is where the prefetch reader (C1) begins.
func ParseHeader(r io.Reader) (*model.FileHeader, error) {
	format, err := readCString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read format string: %v", model.ErrInvalidHprofFile, err)
	}
	if format != wantFormat {
		return nil, fmt.Errorf("%w: unexpected header format %q", model.ErrInvalidHeaderSize, format)
	}

	var idSize uint32
	if err := binary.Read(r, binary.BigEndian, &idSize); err != nil {
		return nil, fmt.Errorf("%w: failed to read id size: %v", model.ErrInvalidHprofFile, err)
	}

	if idSize != 4 && idSize != 8 {
		return nil, model.ErrInvalidIDSize
	}
	if idSize == 4 {
		return nil, model.ErrUnsupportedIDSize
	}

	var tsMillis uint64
	if err := binary.Read(r, binary.BigEndian, &tsMillis); err != nil {
		return nil, fmt.Errorf("%w: failed to read timestamp: %v", model.ErrInvalidHprofFile, err)
	}

	return &model.FileHeader{
		Format:    format,
		IDSize:    int(idSize),
		Timestamp: time.UnixMilli(int64(tsMillis)),
	}, nil
}

// readCString reads bytes one at a time until a null terminator.
func readCString(r io.Reader) (string, error) {
	var buf []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
}
