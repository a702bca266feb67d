package heap

import (
	"testing"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
	"github.com/hprofkit/hprofctl/internal/hprof/recorder"
)

func TestFindClassByName(t *testing.T) {
	r := recorder.New()
	r.Strings[1] = "java.lang.String"
	r.LoadClasses[100] = &model.LoadClass{ClassSerial: 5, ClassObjectID: 100, ClassNameID: 1}

	h := New(r, &model.FileHeader{IDSize: 8}, nil)

	id, ok := h.FindClassByName("java.lang.String")
	if !ok || id != 100 {
		t.Fatalf("FindClassByName = %d, %v, want 100, true", id, ok)
	}

	if _, ok := h.FindClassByName("no.such.Class"); ok {
		t.Error("expected FindClassByName to report not-found for an unknown name")
	}
}

func TestHeapClassBySerialForwardsToRecorder(t *testing.T) {
	r := recorder.New()
	r.LoadClasses[100] = &model.LoadClass{ClassSerial: 5, ClassObjectID: 100, ClassNameID: 1}

	h := New(r, &model.FileHeader{IDSize: 8}, nil)
	id, ok := h.ClassBySerial(5)
	if !ok || id != 100 {
		t.Errorf("ClassBySerial(5) = %d, %v, want 100, true", id, ok)
	}
}
