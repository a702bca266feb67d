package materialize

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
	"github.com/hprofkit/hprofctl/internal/hprof/recorder"
)

func fieldBytes(vals ...[]byte) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, v...)
	}
	return out
}

func TestDecodeOneInstanceOwnFieldsOnly(t *testing.T) {
	r := recorder.New()
	r.ClassDumps[1] = &model.ClassDumpFields{
		ClassObjectID: 1,
		InstanceFields: []model.InstanceFieldDesc{
			{NameID: 10, Type: model.FieldInt},
			{NameID: 11, Type: model.FieldBool},
		},
	}

	dump := &model.InstanceDump{
		ObjectID:      5,
		ClassObjectID: 1,
		Data:          fieldBytes(be32b(42), []byte{1}),
	}

	inst, err := decodeOneInstance(dump, r)
	if err != nil {
		t.Fatalf("decodeOneInstance: %v", err)
	}
	if len(inst.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(inst.Fields))
	}
	if inst.Fields[0].Value.Int != 42 {
		t.Errorf("Fields[0].Value.Int = %d, want 42", inst.Fields[0].Value.Int)
	}
	if !inst.Fields[1].Value.Bool {
		t.Errorf("Fields[1].Value.Bool = false, want true")
	}
	if len(inst.SuperFields) != 0 {
		t.Errorf("expected no super fields, got %+v", inst.SuperFields)
	}
}

func TestDecodeOneInstanceWalksSuperChain(t *testing.T) {
	r := recorder.New()
	r.ClassDumps[2] = &model.ClassDumpFields{ // grandparent
		ClassObjectID:  2,
		InstanceFields: []model.InstanceFieldDesc{{NameID: 30, Type: model.FieldByte}},
	}
	r.ClassDumps[1] = &model.ClassDumpFields{ // parent
		ClassObjectID:      1,
		SuperClassObjectID: 2,
		InstanceFields:     []model.InstanceFieldDesc{{NameID: 20, Type: model.FieldShort}},
	}
	r.ClassDumps[0xA] = &model.ClassDumpFields{ // leaf
		ClassObjectID:      0xA,
		SuperClassObjectID: 1,
		InstanceFields:     []model.InstanceFieldDesc{{NameID: 10, Type: model.FieldInt}},
	}

	dump := &model.InstanceDump{
		ObjectID:      99,
		ClassObjectID: 0xA,
		Data: fieldBytes(
			be32b(7),     // leaf's own int field
			be16b(3),     // parent's short field
			[]byte{0x09}, // grandparent's byte field
		),
	}

	inst, err := decodeOneInstance(dump, r)
	if err != nil {
		t.Fatalf("decodeOneInstance: %v", err)
	}
	if len(inst.Fields) != 1 || inst.Fields[0].Value.Int != 7 {
		t.Fatalf("own fields wrong: %+v", inst.Fields)
	}
	if len(inst.SuperFields) != 2 {
		t.Fatalf("len(SuperFields) = %d, want 2: %+v", len(inst.SuperFields), inst.SuperFields)
	}
	if inst.SuperFields[0].Value.Short != 3 {
		t.Errorf("SuperFields[0].Value.Short = %d, want 3", inst.SuperFields[0].Value.Short)
	}
	if inst.SuperFields[1].Value.Byte != 9 {
		t.Errorf("SuperFields[1].Value.Byte = %d, want 9", inst.SuperFields[1].Value.Byte)
	}
}

func TestDecodeOneInstanceUnresolvedClassIsNilNil(t *testing.T) {
	r := recorder.New()
	inst, err := decodeOneInstance(&model.InstanceDump{ObjectID: 1, ClassObjectID: 404}, r)
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if inst != nil {
		t.Errorf("inst = %+v, want nil (unresolved class dropped silently)", inst)
	}
}

func TestRunMergesAllThreeDumpKinds(t *testing.T) {
	r := recorder.New()
	r.ClassDumps[1] = &model.ClassDumpFields{ClassObjectID: 1}
	r.DumpInstances = []*model.InstanceDump{{ObjectID: 1, ClassObjectID: 1}}
	r.DumpObjectArrays = []*model.ObjectArrayDump{{ObjectID: 2, Count: 1, Data: be64b(0xFF)}}
	r.DumpPrimitiveArrays = []*model.PrimitiveArrayDump{{ObjectID: 3, ElementType: model.FieldInt, Count: 1, Data: be32b(9)}}

	instances, err := Run(context.Background(), r, Options{Workers: 2}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(instances) != 3 {
		t.Fatalf("len(instances) = %d, want 3", len(instances))
	}
	if _, ok := instances[1]; !ok {
		t.Error("missing instance dump result")
	}
	if _, ok := instances[2]; !ok {
		t.Error("missing object array result")
	}
	if _, ok := instances[3]; !ok {
		t.Error("missing primitive array result")
	}
}

func be32b(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func be16b(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func be64b(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
