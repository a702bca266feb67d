package recorder

import (
	"testing"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
)

func TestFoldStringsAndClasses(t *testing.T) {
	r := New()
	r.Fold([]model.Record{
		{Tag: model.TagUTF8, Utf8: &model.Utf8String{ID: 1, Bytes: []byte("java.lang.String")}},
		{Tag: model.TagLoadClass, LoadClass: &model.LoadClass{ClassSerial: 5, ClassObjectID: 100, ClassNameID: 1}},
	})

	if r.Strings[1] != "java.lang.String" {
		t.Errorf("Strings[1] = %q, want java.lang.String", r.Strings[1])
	}
	if lc, ok := r.LoadClasses[100]; !ok || lc.ClassSerial != 5 {
		t.Errorf("LoadClasses[100] = %+v, ok=%v", lc, ok)
	}

	id, ok := r.ClassBySerial(5)
	if !ok || id != 100 {
		t.Fatalf("ClassBySerial(5) = %d, %v, want 100, true", id, ok)
	}

	// Index was built lazily; a class loaded afterward must still be
	// reachable through the now-maintained index.
	r.Fold([]model.Record{
		{Tag: model.TagLoadClass, LoadClass: &model.LoadClass{ClassSerial: 6, ClassObjectID: 200, ClassNameID: 1}},
	})
	id, ok = r.ClassBySerial(6)
	if !ok || id != 200 {
		t.Errorf("ClassBySerial(6) after lazy build = %d, %v, want 200, true", id, ok)
	}
}

func TestClassBySerialUnknown(t *testing.T) {
	r := New()
	if _, ok := r.ClassBySerial(999); ok {
		t.Errorf("expected ClassBySerial to report not-found for an empty recorder")
	}
}

func TestFoldClassDumpSeedsInstanceSizeOnce(t *testing.T) {
	r := New()
	r.Fold([]model.Record{
		{Tag: model.TagGcSegment, GC: &model.GcRecord{Sub: model.SubTagClassDump, ClassDump: &model.ClassDumpFields{
			ClassObjectID: 1, InstanceSize: 16,
		}}},
	})
	// A later sighting of the same class must not overwrite the first
	// InstanceSize ("first wins" per the recorder's fold contract).
	r.Fold([]model.Record{
		{Tag: model.TagGcSegment, GC: &model.GcRecord{Sub: model.SubTagClassDump, ClassDump: &model.ClassDumpFields{
			ClassObjectID: 1, InstanceSize: 999,
		}}},
	})

	if r.ClassInstanceSize[1] != 16 {
		t.Errorf("ClassInstanceSize[1] = %d, want 16 (first wins)", r.ClassInstanceSize[1])
	}
	if r.ClassDumps[1].InstanceSize != 999 {
		t.Errorf("ClassDumps[1] should reflect the latest sighting, got %+v", r.ClassDumps[1])
	}
}

func TestFoldInstanceAndArrayStats(t *testing.T) {
	r := New()
	r.Fold([]model.Record{
		{Tag: model.TagGcSegment, GC: &model.GcRecord{Sub: model.SubTagInstanceDump, InstanceDump: &model.InstanceDump{
			ObjectID: 1, ClassObjectID: 42,
		}}},
		{Tag: model.TagGcSegment, GC: &model.GcRecord{Sub: model.SubTagInstanceDump, InstanceDump: &model.InstanceDump{
			ObjectID: 2, ClassObjectID: 42,
		}}},
		{Tag: model.TagGcSegment, GC: &model.GcRecord{Sub: model.SubTagObjectArrayDump, ObjectArrayDump: &model.ObjectArrayDump{
			ObjectID: 3, ArrayClassID: 7, Count: 10,
		}}},
		{Tag: model.TagGcSegment, GC: &model.GcRecord{Sub: model.SubTagPrimitiveArray, PrimitiveArrayDump: &model.PrimitiveArrayDump{
			ObjectID: 4, ElementType: model.FieldInt, Count: 4,
		}}},
	})

	if r.InstanceCountByClass[42] != 2 {
		t.Errorf("InstanceCountByClass[42] = %d, want 2", r.InstanceCountByClass[42])
	}
	if len(r.DumpInstances) != 2 {
		t.Errorf("len(DumpInstances) = %d, want 2", len(r.DumpInstances))
	}
	if s := r.ArrayStatsByClass[7]; s == nil || s.Arrays != 1 || s.Elements != 10 || s.MaxLen != 10 {
		t.Errorf("ArrayStatsByClass[7] = %+v", s)
	}
	if s := r.ArrayStatsByElemType[model.FieldInt]; s == nil || s.Arrays != 1 || s.Elements != 4 {
		t.Errorf("ArrayStatsByElemType[FieldInt] = %+v", s)
	}

	if r.Counters.InstanceDumpCount != 2 || r.Counters.ObjectArrayDumpCount != 1 || r.Counters.PrimitiveArrayDumpCount != 1 {
		t.Errorf("counters not bumped as expected: %+v", r.Counters)
	}
}
