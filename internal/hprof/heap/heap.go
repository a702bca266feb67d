// Package heap assembles the recorder (C3) and materializer (C4) outputs
// into the terminal, immutable Heap value (spec.md §3).
package heap

import (
	"github.com/hprofkit/hprofctl/internal/hprof/model"
	"github.com/hprofkit/hprofctl/internal/hprof/recorder"
)

// Heap is the frozen result of ingesting one HPROF file. Nothing mutates
// it after construction (spec.md §1 Non-goals).
type Heap struct {
	Header   *model.FileHeader
	Counters model.Counters

	Utf8Strings map[model.ID]string

	// ClassData is the one class table keyed by class_object_id, per
	// spec.md §9 Open Question 1.
	ClassData map[model.ID]*model.LoadClass
	ClassDump map[model.ID]*model.ClassDumpFields

	StackTraceBySerial map[model.SerialNum]*model.StackTrace
	StackFrameByID     map[model.ID]*model.StackFrame

	// InstancesPool holds shared-ownership handles: multiple downstream
	// views may index the same *model.Instance without copying
	// (spec.md §9 "Shared ownership of instances").
	InstancesPool map[model.ID]*model.Instance

	recorder *recorder.Recorder
}

// New assembles a Heap from a completed fold and its materialized
// instances. rec is retained (unexported) only to serve ClassBySerial
// lookups; its tables are never mutated after this call, though the first
// ClassBySerial call builds the recorder's serial-number index.
func New(rec *recorder.Recorder, header *model.FileHeader, instances map[model.ID]*model.Instance) *Heap {
	return &Heap{
		Header:             header,
		Counters:           rec.Counters,
		Utf8Strings:        rec.Strings,
		ClassData:          rec.LoadClasses,
		ClassDump:          rec.ClassDumps,
		StackTraceBySerial: rec.StackTraces,
		StackFrameByID:     rec.StackFrames,
		InstancesPool:      instances,
		recorder:           rec,
	}
}

// ClassBySerial resolves a class's object ID from its load-time serial
// number (SPEC_FULL.md §4 item 2).
func (h *Heap) ClassBySerial(serial model.SerialNum) (model.ID, bool) {
	return h.recorder.ClassBySerial(serial)
}

// FindClassByName searches the loaded classes for one whose resolved name
// equals name, the Go analogue of the original's parser_vm_overview class
// lookup (SPEC_FULL.md §4 item 3). It performs no ingestion work of its
// own — a read-only scan over already-built tables.
func (h *Heap) FindClassByName(name string) (model.ID, bool) {
	for objID, lc := range h.ClassData {
		if h.Utf8Strings[lc.ClassNameID] == name {
			return objID, true
		}
	}
	return 0, false
}
