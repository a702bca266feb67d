package model

import "testing"

func TestBumpFrameVsSubRecordCounters(t *testing.T) {
	var c Counters

	// A HEAP_DUMP_SEGMENT frame-start marker carries no GC payload and
	// must only bump its own frame counter.
	c.Bump(&Record{Tag: TagHeapDumpSegment})
	c.Bump(&Record{Tag: TagHeapDumpSegment})

	// Two flattened sub-records belonging to that frame must bump only
	// the sub-record counters, not HeapDumpSegmentCount again.
	c.Bump(&Record{Tag: TagGcSegment, GC: &GcRecord{Sub: SubTagClassDump}})
	c.Bump(&Record{Tag: TagGcSegment, GC: &GcRecord{Sub: SubTagInstanceDump}})
	c.Bump(&Record{Tag: TagGcSegment, GC: &GcRecord{Sub: SubTagInstanceDump}})

	if c.HeapDumpSegmentCount != 2 {
		t.Errorf("HeapDumpSegmentCount = %d, want 2", c.HeapDumpSegmentCount)
	}
	if c.ClassDumpCount != 1 {
		t.Errorf("ClassDumpCount = %d, want 1", c.ClassDumpCount)
	}
	if c.InstanceDumpCount != 2 {
		t.Errorf("InstanceDumpCount = %d, want 2", c.InstanceDumpCount)
	}
	if got := c.AllSubRecords(); got != 3 {
		t.Errorf("AllSubRecords() = %d, want 3", got)
	}
}

func TestBumpIgnoresNilGC(t *testing.T) {
	var c Counters
	c.Bump(&Record{Tag: TagGcSegment, GC: nil})
	if c.AllSubRecords() != 0 {
		t.Errorf("expected no sub-record counter to move on a nil GC payload")
	}
}

func TestBumpSimpleTopLevelKinds(t *testing.T) {
	var c Counters
	c.Bump(&Record{Tag: TagUTF8})
	c.Bump(&Record{Tag: TagLoadClass})
	c.Bump(&Record{Tag: TagStackFrame})
	c.Bump(&Record{Tag: TagStackTrace})
	c.Bump(&Record{Tag: TagStartThread})
	c.Bump(&Record{Tag: TagEndThread})
	c.Bump(&Record{Tag: TagHeapDump})

	if c.Utf8Count != 1 || c.LoadClassCount != 1 || c.StackFrameCount != 1 ||
		c.StackTraceCount != 1 || c.StartThreadCount != 1 || c.EndThreadCount != 1 ||
		c.HeapDumpCount != 1 {
		t.Errorf("expected every simple top-level counter to be bumped exactly once: %+v", c)
	}
}
