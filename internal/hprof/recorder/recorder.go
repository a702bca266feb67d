// Package recorder implements the result recorder (C3): a single-threaded
// fold of record batches into one monotonic aggregation. It is adapted from
// the teacher's mutex-guarded registry package into a single-owner
// structure — no locking, since only C3's goroutine ever touches it until
// it is handed off (spec.md §4.3, §5 "moved to main thread").
package recorder

import (
	"github.com/hprofkit/hprofctl/internal/hprof/model"
)

// ArrayStats tracks per-kind array aggregates: how many arrays, how many
// total elements, and the largest single array seen.
type ArrayStats struct {
	Arrays   int64
	Elements int64
	MaxLen   uint32
}

func (s *ArrayStats) add(count uint32) {
	s.Arrays++
	s.Elements += int64(count)
	if count > s.MaxLen {
		s.MaxLen = count
	}
}

// Recorder is the C3 fold target. Exported fields are read-only once
// ingestion completes; nothing here is safe for concurrent mutation.
type Recorder struct {
	Counters model.Counters

	Strings map[model.ID]string

	// LoadClasses is keyed by class_object_id — the one class table
	// Open Question 1 asks for (spec.md §9). The serial-number index is
	// built lazily, only when ClassBySerial is first called.
	LoadClasses      map[model.ID]*model.LoadClass
	classBySerial    map[model.SerialNum]model.ID
	serialIndexBuilt bool

	StackFrames map[model.ID]*model.StackFrame
	StackTraces map[model.SerialNum]*model.StackTrace

	StartThreads map[model.SerialNum]*model.StartThread
	EndThreads   map[model.SerialNum]*model.EndThread

	ClassDumps map[model.ID]*model.ClassDumpFields
	// ClassInstanceSize is seeded on first ClassDump sighting and never
	// overwritten ("first wins" per spec.md §4.3).
	ClassInstanceSize map[model.ID]uint32

	InstanceCountByClass map[model.ID]int64
	ArrayStatsByClass    map[model.ID]*ArrayStats
	ArrayStatsByElemType map[model.FieldType]*ArrayStats

	DumpInstances       []*model.InstanceDump
	DumpObjectArrays    []*model.ObjectArrayDump
	DumpPrimitiveArrays []*model.PrimitiveArrayDump
}

// New returns an empty Recorder ready to fold batches into.
func New() *Recorder {
	return &Recorder{
		Strings:              make(map[model.ID]string),
		LoadClasses:          make(map[model.ID]*model.LoadClass),
		StackFrames:          make(map[model.ID]*model.StackFrame),
		StackTraces:          make(map[model.SerialNum]*model.StackTrace),
		StartThreads:         make(map[model.SerialNum]*model.StartThread),
		EndThreads:           make(map[model.SerialNum]*model.EndThread),
		ClassDumps:           make(map[model.ID]*model.ClassDumpFields),
		ClassInstanceSize:    make(map[model.ID]uint32),
		InstanceCountByClass: make(map[model.ID]int64),
		ArrayStatsByClass:    make(map[model.ID]*ArrayStats),
		ArrayStatsByElemType: make(map[model.FieldType]*ArrayStats),
	}
}

// Fold applies one batch of records in order. It never blocks and never
// returns an error: folding itself cannot fail, only earlier parsing can.
func (r *Recorder) Fold(batch []model.Record) {
	for i := range batch {
		r.foldOne(&batch[i])
	}
}

func (r *Recorder) foldOne(rec *model.Record) {
	r.Counters.Bump(rec)

	switch rec.Tag {
	case model.TagUTF8:
		r.Strings[rec.Utf8.ID] = string(rec.Utf8.Bytes)

	case model.TagLoadClass:
		r.LoadClasses[rec.LoadClass.ClassObjectID] = rec.LoadClass
		if r.serialIndexBuilt {
			r.classBySerial[rec.LoadClass.ClassSerial] = rec.LoadClass.ClassObjectID
		}

	case model.TagStackFrame:
		r.StackFrames[rec.StackFrame.StackFrameID] = rec.StackFrame

	case model.TagStackTrace:
		r.StackTraces[rec.StackTrace.Serial] = rec.StackTrace

	case model.TagStartThread:
		r.StartThreads[rec.StartThread.ThreadSerial] = rec.StartThread

	case model.TagEndThread:
		r.EndThreads[rec.EndThread.ThreadSerial] = rec.EndThread

	case model.TagGcSegment:
		r.foldGC(rec.GC)
	}
}

func (r *Recorder) foldGC(gc *model.GcRecord) {
	if gc == nil {
		return
	}
	switch gc.Sub {
	case model.SubTagClassDump:
		cd := gc.ClassDump
		r.ClassDumps[cd.ClassObjectID] = cd
		if _, seeded := r.ClassInstanceSize[cd.ClassObjectID]; !seeded {
			r.ClassInstanceSize[cd.ClassObjectID] = cd.InstanceSize
		}

	case model.SubTagInstanceDump:
		id := gc.InstanceDump
		r.InstanceCountByClass[id.ClassObjectID]++
		r.DumpInstances = append(r.DumpInstances, id)

	case model.SubTagObjectArrayDump:
		oa := gc.ObjectArrayDump
		r.arrayStatsFor(oa.ArrayClassID).add(oa.Count)
		r.DumpObjectArrays = append(r.DumpObjectArrays, oa)

	case model.SubTagPrimitiveArray:
		pa := gc.PrimitiveArrayDump
		r.elemStatsFor(pa.ElementType).add(pa.Count)
		r.DumpPrimitiveArrays = append(r.DumpPrimitiveArrays, pa)
	}
}

func (r *Recorder) arrayStatsFor(classID model.ID) *ArrayStats {
	s, ok := r.ArrayStatsByClass[classID]
	if !ok {
		s = &ArrayStats{}
		r.ArrayStatsByClass[classID] = s
	}
	return s
}

func (r *Recorder) elemStatsFor(ft model.FieldType) *ArrayStats {
	s, ok := r.ArrayStatsByElemType[ft]
	if !ok {
		s = &ArrayStats{}
		r.ArrayStatsByElemType[ft] = s
	}
	return s
}

// ClassBySerial resolves a class's object ID from its load-time serial
// number, building the secondary index on first use (spec.md §9 Open
// Question 1; SPEC_FULL.md §4 item 2).
func (r *Recorder) ClassBySerial(serial model.SerialNum) (model.ID, bool) {
	if !r.serialIndexBuilt {
		r.classBySerial = make(map[model.SerialNum]model.ID, len(r.LoadClasses))
		for objID, lc := range r.LoadClasses {
			r.classBySerial[lc.ClassSerial] = objID
		}
		r.serialIndexBuilt = true
	}
	id, ok := r.classBySerial[serial]
	return id, ok
}
