// Package model defines the wire-level and in-memory types shared by every
// stage of the hprof ingestion pipeline.
package model

import (
	"encoding/binary"
	"fmt"
	"time"
)

// ID is an HPROF object/class identifier. Only 8-byte IDs are supported;
// see FileHeader.IDSize.
type ID uint64

// SerialNum is a u4 serial number (class, stack trace, or thread).
type SerialNum uint32

// Tag identifies a top-level HPROF record.
type Tag uint8

const (
	TagUTF8            Tag = 0x01
	TagLoadClass       Tag = 0x02
	TagUnloadClass     Tag = 0x03
	TagStackFrame      Tag = 0x04
	TagStackTrace      Tag = 0x05
	TagAllocSites      Tag = 0x06
	TagHeapSummary     Tag = 0x07
	TagStartThread     Tag = 0x0A
	TagEndThread       Tag = 0x0B
	TagHeapDump        Tag = 0x0C
	TagCPUSamples      Tag = 0x0D
	TagControlSettings Tag = 0x0E
	TagHeapDumpSegment Tag = 0x1C
	TagHeapDumpEnd     Tag = 0x2C

	// TagGcSegment is not a wire value; C2 uses it to tag each GC
	// sub-record flattened out of a HEAP_DUMP/HEAP_DUMP_SEGMENT body as
	// its own Record (spec.md §3's "GcSegment(GcRecord)" variant), kept
	// distinct from the TagHeapDump/TagHeapDumpSegment frame-start
	// marker record so per-kind counters don't conflate frame count
	// with sub-record count.
	TagGcSegment Tag = 0xFF
)

func (t Tag) String() string {
	switch t {
	case TagUTF8:
		return "UTF8"
	case TagLoadClass:
		return "LOAD_CLASS"
	case TagUnloadClass:
		return "UNLOAD_CLASS"
	case TagStackFrame:
		return "STACK_FRAME"
	case TagStackTrace:
		return "STACK_TRACE"
	case TagAllocSites:
		return "ALLOC_SITES"
	case TagHeapSummary:
		return "HEAP_SUMMARY"
	case TagStartThread:
		return "START_THREAD"
	case TagEndThread:
		return "END_THREAD"
	case TagHeapDump:
		return "HEAP_DUMP"
	case TagCPUSamples:
		return "CPU_SAMPLES"
	case TagControlSettings:
		return "CONTROL_SETTINGS"
	case TagHeapDumpSegment:
		return "HEAP_DUMP_SEGMENT"
	case TagHeapDumpEnd:
		return "HEAP_DUMP_END"
	case TagGcSegment:
		return "GC_SEGMENT"
	default:
		return fmt.Sprintf("Tag(0x%02x)", byte(t))
	}
}

// SubTag identifies a GC sub-record nested inside a heap dump segment.
type SubTag uint8

const (
	SubTagRootUnknown      SubTag = 0xFF
	SubTagRootJNIGlobal    SubTag = 0x01
	SubTagRootJNILocal     SubTag = 0x02
	SubTagRootJavaFrame    SubTag = 0x03
	SubTagRootNativeStack  SubTag = 0x04
	SubTagRootStickyClass  SubTag = 0x05
	SubTagRootThreadBlock  SubTag = 0x06
	SubTagRootMonitorUsed  SubTag = 0x07
	SubTagRootThreadObject SubTag = 0x08
	SubTagClassDump        SubTag = 0x20
	SubTagInstanceDump     SubTag = 0x21
	SubTagObjectArrayDump  SubTag = 0x22
	SubTagPrimitiveArray   SubTag = 0x23
)

func (t SubTag) String() string {
	switch t {
	case SubTagRootUnknown:
		return "GC_ROOT_UNKNOWN"
	case SubTagRootJNIGlobal:
		return "GC_ROOT_JNI_GLOBAL"
	case SubTagRootJNILocal:
		return "GC_ROOT_JNI_LOCAL"
	case SubTagRootJavaFrame:
		return "GC_ROOT_JAVA_FRAME"
	case SubTagRootNativeStack:
		return "GC_ROOT_NATIVE_STACK"
	case SubTagRootStickyClass:
		return "GC_ROOT_STICKY_CLASS"
	case SubTagRootThreadBlock:
		return "GC_ROOT_THREAD_BLOCK"
	case SubTagRootMonitorUsed:
		return "GC_ROOT_MONITOR_USED"
	case SubTagRootThreadObject:
		return "GC_ROOT_THREAD_OBJ"
	case SubTagClassDump:
		return "GC_CLASS_DUMP"
	case SubTagInstanceDump:
		return "GC_INSTANCE_DUMP"
	case SubTagObjectArrayDump:
		return "GC_OBJ_ARRAY_DUMP"
	case SubTagPrimitiveArray:
		return "GC_PRIM_ARRAY_DUMP"
	default:
		return fmt.Sprintf("SubTag(0x%02x)", byte(t))
	}
}

// FieldType is the type tag used by const-pool entries, static fields,
// instance fields, and primitive array elements.
type FieldType uint8

const (
	FieldObject FieldType = 2
	FieldBool   FieldType = 4
	FieldChar   FieldType = 5
	FieldFloat  FieldType = 6
	FieldDouble FieldType = 7
	FieldByte   FieldType = 8
	FieldShort  FieldType = 9
	FieldInt    FieldType = 10
	FieldLong   FieldType = 11
)

// Size returns the byte width of a value of this type; idSize is the
// dump's object-identifier width (always 8 in this implementation).
func (ft FieldType) Size(idSize int) int {
	switch ft {
	case FieldBool, FieldByte:
		return 1
	case FieldChar, FieldShort:
		return 2
	case FieldFloat, FieldInt:
		return 4
	case FieldDouble, FieldLong:
		return 8
	case FieldObject:
		return idSize
	default:
		return 0
	}
}

func (ft FieldType) String() string {
	switch ft {
	case FieldObject:
		return "object"
	case FieldBool:
		return "bool"
	case FieldChar:
		return "char"
	case FieldFloat:
		return "float"
	case FieldDouble:
		return "double"
	case FieldByte:
		return "byte"
	case FieldShort:
		return "short"
	case FieldInt:
		return "int"
	case FieldLong:
		return "long"
	default:
		return fmt.Sprintf("FieldType(%d)", byte(ft))
	}
}

// FileHeader is the frozen, once-parsed HPROF preamble.
type FileHeader struct {
	Format    string
	IDSize    int
	Timestamp time.Time
}

// ReadID decodes an 8-byte big-endian identifier at offset.
func ReadID(data []byte, offset int) ID {
	return ID(binary.BigEndian.Uint64(data[offset:]))
}
