// Package materialize implements the instance materializer (C4): the
// parallel pass that decodes retained InstanceDump/ObjectArrayDump/
// PrimitiveArrayDump bodies into typed model.Instance values, keyed by the
// class-dump metadata the recorder (C3) accumulated. Field-walking logic is
// grounded on the teacher's internal/heap/parser/instance.go and array.go,
// with the Thread-object special-casing dropped (out of this engine's
// scope) and decoding parallelized across workers via
// golang.org/x/sync/errgroup — the idiomatic Go analogue of the original
// Rust implementation's rayon into_par_iter fan-out.
package materialize

import (
	"context"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
	"github.com/hprofkit/hprofctl/internal/hprof/recorder"
)

// Options configures the materializer's worker pool.
type Options struct {
	Workers int // <= 0 means runtime.GOMAXPROCS(0)
}

// Run decodes every retained dump in rec into Instance values and returns
// the merged object_id -> Instance map. A decode error on a single record
// is logged and the record dropped; it never aborts the pass (spec.md
// §4.4 "Failure").
func Run(ctx context.Context, rec *recorder.Recorder, opts Options, logger *log.Logger) (map[model.ID]*model.Instance, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	instances := make([]map[model.ID]*model.Instance, 3)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := decodeInstances(gctx, rec, workers, logger)
		instances[0] = m
		return err
	})
	g.Go(func() error {
		instances[1] = decodeObjectArrays(rec)
		return nil
	})
	g.Go(func() error {
		instances[2] = decodePrimitiveArrays(rec)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge. ID collisions across the three dump kinds are impossible by
	// HPROF semantics; if one occurs anyway the later insertion wins
	// (spec.md §4.4 "Merging").
	merged := make(map[model.ID]*model.Instance, len(instances[0])+len(instances[1])+len(instances[2]))
	for _, m := range instances {
		for id, inst := range m {
			merged[id] = inst
		}
	}
	return merged, nil
}

// decodeInstances fans InstanceDump decoding out across workers goroutines
// using golang.org/x/sync/errgroup, partitioning the retained slice by
// index so each worker owns a disjoint range.
func decodeInstances(ctx context.Context, rec *recorder.Recorder, workers int, logger *log.Logger) (map[model.ID]*model.Instance, error) {
	dumps := rec.DumpInstances
	if len(dumps) == 0 {
		return map[model.ID]*model.Instance{}, nil
	}

	type partial struct {
		id   model.ID
		inst *model.Instance
	}

	results := make([][]partial, workers)
	g, _ := errgroup.WithContext(ctx)

	chunk := (len(dumps) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		if start >= len(dumps) {
			continue
		}
		end := start + chunk
		if end > len(dumps) {
			end = len(dumps)
		}

		g.Go(func() error {
			local := make([]partial, 0, end-start)
			for _, dump := range dumps[start:end] {
				inst, err := decodeOneInstance(dump, rec)
				if err != nil {
					if logger != nil {
						logger.Warn("dropping instance dump: decode failed",
							"object_id", uint64(dump.ObjectID), "err", err)
					}
					continue
				}
				if inst == nil {
					// Unresolved class: silently dropped per spec.md §9
					// Open Question 3 / invariant 1.
					continue
				}
				local = append(local, partial{id: dump.ObjectID, inst: inst})
			}
			results[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[model.ID]*model.Instance, len(dumps))
	for _, local := range results {
		for _, p := range local {
			out[p.id] = p.inst
		}
	}
	return out, nil
}

// decodeOneInstance decodes a single retained InstanceDump. A nil, nil
// return means the class was unresolved and the record should be dropped
// without error.
func decodeOneInstance(dump *model.InstanceDump, rec *recorder.Recorder) (*model.Instance, error) {
	class, ok := rec.ClassDumps[dump.ClassObjectID]
	if !ok {
		return nil, nil
	}

	own, rest, err := decodeFields(class.InstanceFields, dump.Data)
	if err != nil {
		return nil, err
	}

	var super []model.NamedField
	superClassID := class.SuperClassObjectID
	for superClassID != 0 {
		superClass, ok := rec.ClassDumps[superClassID]
		if !ok {
			break
		}
		var fields []model.NamedField
		fields, rest, err = decodeFields(superClass.InstanceFields, rest)
		if err != nil {
			return nil, err
		}
		super = append(super, fields...)
		superClassID = superClass.SuperClassObjectID
	}

	return &model.Instance{
		ObjectID:         dump.ObjectID,
		StackTraceSerial: dump.StackTraceSerial,
		ClassObjectID:    dump.ClassObjectID,
		DataSize:         uint32(len(dump.Data)),
		Fields:           own,
		SuperFields:      super,
	}, nil
}

// decodeFields walks descs in declared order, decoding one FieldValue per
// descriptor from the front of data, and returns the undecoded remainder
// for the super-class walk (spec.md §4.4 steps 1-2).
func decodeFields(descs []model.InstanceFieldDesc, data []byte) ([]model.NamedField, []byte, error) {
	out := make([]model.NamedField, 0, len(descs))
	for _, d := range descs {
		val, n, err := decodeScalar(d.Type, data)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, model.NamedField{NameID: d.NameID, Value: val})
		data = data[n:]
	}
	return out, data, nil
}

// decodeScalar decodes one value of the given type from the front of data.
// All multi-byte primitives are big-endian; Object is an 8-byte big-endian
// identifier (this engine accepts only id_size == 8); Bool is byte != 0.
func decodeScalar(ft model.FieldType, data []byte) (*model.FieldValue, int, error) {
	size := ft.Size(8)
	if size == 0 || len(data) < size {
		return nil, 0, errShortField
	}

	v := &model.FieldValue{Type: ft}
	switch ft {
	case model.FieldBool:
		v.Bool = data[0] != 0
	case model.FieldByte:
		v.Byte = int8(data[0])
	case model.FieldChar:
		v.Char = be16(data)
	case model.FieldShort:
		v.Short = int16(be16(data))
	case model.FieldFloat:
		v.Float = float32FromBits(be32(data))
	case model.FieldInt:
		v.Int = int32(be32(data))
	case model.FieldDouble:
		v.Double = float64FromBits(be64(data))
	case model.FieldLong:
		v.Long = int64(be64(data))
	case model.FieldObject:
		v.Object = model.ID(be64(data))
	}
	return v, size, nil
}

func decodeObjectArrays(rec *recorder.Recorder) map[model.ID]*model.Instance {
	out := make(map[model.ID]*model.Instance, len(rec.DumpObjectArrays))
	for _, dump := range rec.DumpObjectArrays {
		refs := make([]model.ID, dump.Count)
		for i := range refs {
			refs[i] = model.ID(be64(dump.Data[i*8:]))
		}
		out[dump.ObjectID] = &model.Instance{
			ObjectID:         dump.ObjectID,
			StackTraceSerial: dump.StackTraceSerial,
			ClassObjectID:    dump.ArrayClassID,
			DataSize:         uint32(len(dump.Data)),
			Fields: []model.NamedField{{
				Array: &model.ArrayValue{ElementType: model.FieldObject, Objects: refs},
			}},
		}
	}
	return out
}

func decodePrimitiveArrays(rec *recorder.Recorder) map[model.ID]*model.Instance {
	out := make(map[model.ID]*model.Instance, len(rec.DumpPrimitiveArrays))
	for _, dump := range rec.DumpPrimitiveArrays {
		arr := decodePrimitiveArray(dump.ElementType, dump.Data, int(dump.Count))
		out[dump.ObjectID] = &model.Instance{
			ObjectID:         dump.ObjectID,
			StackTraceSerial: dump.StackTraceSerial,
			DataSize:         uint32(len(dump.Data)),
			Fields:           []model.NamedField{{Array: arr}},
		}
	}
	return out
}

func decodePrimitiveArray(ft model.FieldType, data []byte, count int) *model.ArrayValue {
	arr := &model.ArrayValue{ElementType: ft}
	size := ft.Size(8)
	switch ft {
	case model.FieldBool:
		arr.Bools = make([]bool, count)
		for i := 0; i < count; i++ {
			arr.Bools[i] = data[i*size] != 0
		}
	case model.FieldByte:
		arr.Bytes = make([]int8, count)
		for i := 0; i < count; i++ {
			arr.Bytes[i] = int8(data[i*size])
		}
	case model.FieldChar:
		arr.Chars = make([]uint16, count)
		for i := 0; i < count; i++ {
			arr.Chars[i] = be16(data[i*size:])
		}
	case model.FieldShort:
		arr.Shorts = make([]int16, count)
		for i := 0; i < count; i++ {
			arr.Shorts[i] = int16(be16(data[i*size:]))
		}
	case model.FieldFloat:
		arr.Floats = make([]float32, count)
		for i := 0; i < count; i++ {
			arr.Floats[i] = float32FromBits(be32(data[i*size:]))
		}
	case model.FieldInt:
		arr.Ints = make([]int32, count)
		for i := 0; i < count; i++ {
			arr.Ints[i] = int32(be32(data[i*size:]))
		}
	case model.FieldDouble:
		arr.Doubles = make([]float64, count)
		for i := 0; i < count; i++ {
			arr.Doubles[i] = float64FromBits(be64(data[i*size:]))
		}
	case model.FieldLong:
		arr.Longs = make([]int64, count)
		for i := 0; i < count; i++ {
			arr.Longs[i] = int64(be64(data[i*size:]))
		}
	}
	return arr
}
