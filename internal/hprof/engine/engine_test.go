package engine

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
)

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func be64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func frame(tag byte, body []byte) []byte {
	out := append([]byte{tag}, be32(0)...)
	out = append(out, be32(uint32(len(body)))...)
	return append(out, body...)
}

// buildMiniDump assembles a complete, minimal HPROF byte stream: a header,
// one string, one loaded class, and one heap-dump segment containing a
// class-dump plus a matching instance-dump. It exercises the full
// C1->C2->C3->C4 path end to end.
func buildMiniDump() []byte {
	var out []byte
	out = append(out, []byte("JAVA PROFILE 1.0.2")...)
	out = append(out, 0)
	out = append(out, be32(8)...) // id size
	out = append(out, be64(0)...) // timestamp

	utf8Body := append(be64(1), []byte("Sample")...)
	out = append(out, frame(0x01, utf8Body)...)

	loadClassBody := append(be32(1), be64(100)...)
	loadClassBody = append(loadClassBody, be32(0)...)
	loadClassBody = append(loadClassBody, be64(1)...)
	out = append(out, frame(0x02, loadClassBody)...)

	// CLASS_DUMP (0x20): class id, stack serial, super id, 5 reserved
	// ids, instance size, 0 const-pool entries, 0 static fields, 1
	// instance field (int).
	classDump := append([]byte{0x20}, be64(100)...)
	classDump = append(classDump, be32(0)...)
	classDump = append(classDump, be64(0)...) // super
	for i := 0; i < 5; i++ {
		classDump = append(classDump, be64(0)...)
	}
	classDump = append(classDump, be32(4)...)      // instance size
	classDump = append(classDump, []byte{0, 0}...) // const pool count
	classDump = append(classDump, []byte{0, 0}...) // static field count
	classDump = append(classDump, []byte{0, 1}...) // instance field count
	classDump = append(classDump, be64(2)...)      // field name id
	classDump = append(classDump, byte(model.FieldInt))

	// INSTANCE_DUMP (0x21): obj id, stack serial, class id, size, data.
	instDump := append([]byte{0x21}, be64(500)...)
	instDump = append(instDump, be32(0)...)
	instDump = append(instDump, be64(100)...)
	instDump = append(instDump, be32(4)...)
	instDump = append(instDump, be32(77)...)

	heapBody := append(classDump, instDump...)
	out = append(out, frame(0x0C, heapBody)...)

	out = append(out, frame(0x2C, nil)...)
	return out
}

func TestIngestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mini.hprof")
	if err := os.WriteFile(path, buildMiniDump(), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	progress, resultCh := IngestWithOptions(context.Background(), path, Options{
		ChunkSize:    8, // tiny chunks to exercise carry-buffer resumption
		ChunkBuffers: 2,
	})
	for range progress {
		// drain to completion
	}
	result := <-resultCh
	if result.Err != nil {
		t.Fatalf("IngestWithOptions: %v", result.Err)
	}
	h := result.Heap

	if got := h.Utf8Strings[1]; got != "Sample" {
		t.Errorf("Utf8Strings[1] = %q, want Sample", got)
	}
	if _, ok := h.ClassData[100]; !ok {
		t.Fatalf("expected class 100 to be loaded")
	}
	if _, ok := h.ClassDump[100]; !ok {
		t.Fatalf("expected class 100's dump to be recorded")
	}
	if h.Counters.InstanceDumpCount != 1 {
		t.Errorf("InstanceDumpCount = %d, want 1", h.Counters.InstanceDumpCount)
	}

	inst, ok := h.InstancesPool[500]
	if !ok {
		t.Fatalf("expected instance 500 to be materialized")
	}
	if len(inst.Fields) != 1 || inst.Fields[0].Value.Int != 77 {
		t.Errorf("instance 500 fields = %+v, want one int field = 77", inst.Fields)
	}
}

func TestIngestRejectsTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.hprof")
	data := buildMiniDump()
	if err := os.WriteFile(path, data[:len(data)-3], 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	progress, resultCh := IngestWithOptions(context.Background(), path, Options{})
	for range progress {
	}
	result := <-resultCh
	if result.Err == nil {
		t.Fatal("expected an error ingesting a truncated file")
	}
}
