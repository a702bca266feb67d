package materialize

import (
	"encoding/binary"
	"errors"
	"math"
)

// errShortField means a field descriptor called for more bytes than an
// instance's retained data actually has left — a corrupt or truncated
// dump. The record is dropped by the caller, not propagated as fatal
// (spec.md §4.4 "Failure").
var errShortField = errors.New("materialize: short field data")

func be16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func be32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func be64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

func float32FromBits(bits uint32) float32 { return math.Float32frombits(bits) }
func float64FromBits(bits uint64) float64 { return math.Float64frombits(bits) }
