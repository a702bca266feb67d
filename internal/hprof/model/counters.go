package model

// Counters enumerates every top-level record kind and every GC sub-record
// kind individually, field for field, rather than collapsing them into a
// generic map — matching spec.md §3's "each record-kind and GC-sub-record
// kind" wording and the original's HeapCounter layout (see SPEC_FULL.md §4
// item 4). All counters are independent; they only ever increase during
// ingestion (spec.md §3 invariant 5).
type Counters struct {
	Utf8Count            int64
	LoadClassCount       int64
	UnloadClassCount     int64
	StackFrameCount      int64
	StackTraceCount      int64
	AllocSitesCount      int64
	HeapSummaryCount     int64
	StartThreadCount     int64
	EndThreadCount       int64
	HeapDumpCount        int64
	CPUSamplesCount      int64
	ControlSettingsCount int64
	HeapDumpSegmentCount int64
	HeapDumpEndCount     int64

	RootUnknownCount        int64
	RootJNIGlobalCount      int64
	RootJNILocalCount       int64
	RootJavaFrameCount      int64
	RootNativeStackCount    int64
	RootStickyClassCount    int64
	RootThreadBlockCount    int64
	RootMonitorUsedCount    int64
	RootThreadObjectCount   int64
	ClassDumpCount          int64
	InstanceDumpCount       int64
	ObjectArrayDumpCount    int64
	PrimitiveArrayDumpCount int64
}

// AllSubRecords is the sum of every GC-sub-record counter: an
// implementation convenience, not an authoritative total (spec.md §4.3).
func (c *Counters) AllSubRecords() int64 {
	return c.RootUnknownCount + c.RootJNIGlobalCount + c.RootJNILocalCount +
		c.RootJavaFrameCount + c.RootNativeStackCount + c.RootStickyClassCount +
		c.RootThreadBlockCount + c.RootMonitorUsedCount + c.RootThreadObjectCount +
		c.ClassDumpCount + c.InstanceDumpCount + c.ObjectArrayDumpCount +
		c.PrimitiveArrayDumpCount
}

// Bump increments the counter matching rec's tag/sub-tag by one.
func (c *Counters) Bump(rec *Record) {
	switch rec.Tag {
	case TagUTF8:
		c.Utf8Count++
	case TagLoadClass:
		c.LoadClassCount++
	case TagUnloadClass:
		c.UnloadClassCount++
	case TagStackFrame:
		c.StackFrameCount++
	case TagStackTrace:
		c.StackTraceCount++
	case TagAllocSites:
		c.AllocSitesCount++
	case TagHeapSummary:
		c.HeapSummaryCount++
	case TagStartThread:
		c.StartThreadCount++
	case TagEndThread:
		c.EndThreadCount++
	case TagCPUSamples:
		c.CPUSamplesCount++
	case TagControlSettings:
		c.ControlSettingsCount++
	case TagHeapDumpEnd:
		c.HeapDumpEndCount++
	case TagHeapDump:
		c.HeapDumpCount++
	case TagHeapDumpSegment:
		c.HeapDumpSegmentCount++
	case TagGcSegment:
		c.bumpSub(rec)
	}
}

func (c *Counters) bumpSub(rec *Record) {
	if rec.GC == nil {
		return
	}
	switch rec.GC.Sub {
	case SubTagRootUnknown:
		c.RootUnknownCount++
	case SubTagRootJNIGlobal:
		c.RootJNIGlobalCount++
	case SubTagRootJNILocal:
		c.RootJNILocalCount++
	case SubTagRootJavaFrame:
		c.RootJavaFrameCount++
	case SubTagRootNativeStack:
		c.RootNativeStackCount++
	case SubTagRootStickyClass:
		c.RootStickyClassCount++
	case SubTagRootThreadBlock:
		c.RootThreadBlockCount++
	case SubTagRootMonitorUsed:
		c.RootMonitorUsedCount++
	case SubTagRootThreadObject:
		c.RootThreadObjectCount++
	case SubTagClassDump:
		c.ClassDumpCount++
	case SubTagInstanceDump:
		c.InstanceDumpCount++
	case SubTagObjectArrayDump:
		c.ObjectArrayDumpCount++
	case SubTagPrimitiveArray:
		c.PrimitiveArrayDumpCount++
	}
}
