package stream

import (
	"github.com/hprofkit/hprofctl/internal/hprof/model"
)

// decodeGCRoot decodes the fixed-layout GC root sub-records. Grounded on
// internal/heap/parser/gc_root.go's per-tag field layouts (teacher).
func decodeGCRoot(sub model.SubTag, c *cursor) (*model.GcRecord, error) {
	gr := &model.GcRecord{Sub: sub}

	switch sub {
	case model.SubTagRootUnknown:
		id, err := c.id()
		if err != nil {
			return nil, err
		}
		gr.RootUnknown = &model.RootUnknown{ObjectID: id}

	case model.SubTagRootJNIGlobal:
		objID, err := c.id()
		if err != nil {
			return nil, err
		}
		ref, err := c.id()
		if err != nil {
			return nil, err
		}
		gr.RootJNIGlobal = &model.RootJNIGlobal{ObjectID: objID, JNIGlobalRef: ref}

	case model.SubTagRootJNILocal:
		objID, err := c.id()
		if err != nil {
			return nil, err
		}
		thread, err := c.u4()
		if err != nil {
			return nil, err
		}
		frame, err := c.u4()
		if err != nil {
			return nil, err
		}
		gr.RootJNILocal = &model.RootJNILocal{ObjectID: objID, ThreadSerial: model.SerialNum(thread), FrameNumber: model.SerialNum(frame)}

	case model.SubTagRootJavaFrame:
		objID, err := c.id()
		if err != nil {
			return nil, err
		}
		thread, err := c.u4()
		if err != nil {
			return nil, err
		}
		frame, err := c.u4()
		if err != nil {
			return nil, err
		}
		gr.RootJavaFrame = &model.RootJavaFrame{ObjectID: objID, ThreadSerial: model.SerialNum(thread), FrameNumber: model.SerialNum(frame)}

	case model.SubTagRootNativeStack:
		objID, err := c.id()
		if err != nil {
			return nil, err
		}
		thread, err := c.u4()
		if err != nil {
			return nil, err
		}
		gr.RootNativeStack = &model.RootNativeStack{ObjectID: objID, ThreadSerial: model.SerialNum(thread)}

	case model.SubTagRootStickyClass:
		id, err := c.id()
		if err != nil {
			return nil, err
		}
		gr.RootStickyClass = &model.RootStickyClass{ObjectID: id}

	case model.SubTagRootThreadBlock:
		objID, err := c.id()
		if err != nil {
			return nil, err
		}
		thread, err := c.u4()
		if err != nil {
			return nil, err
		}
		gr.RootThreadBlock = &model.RootThreadBlock{ObjectID: objID, ThreadSerial: model.SerialNum(thread)}

	case model.SubTagRootMonitorUsed:
		id, err := c.id()
		if err != nil {
			return nil, err
		}
		gr.RootMonitorUsed = &model.RootMonitorUsed{ObjectID: id}

	case model.SubTagRootThreadObject:
		objID, err := c.id()
		if err != nil {
			return nil, err
		}
		thread, err := c.u4()
		if err != nil {
			return nil, err
		}
		trace, err := c.u4()
		if err != nil {
			return nil, err
		}
		gr.RootThreadObject = &model.RootThreadObject{ThreadObjectID: objID, ThreadSerial: model.SerialNum(thread), StackTraceSerial: model.SerialNum(trace)}

	default:
		return nil, errNeedMore
	}

	return gr, nil
}

// decodeClassDump decodes a GC_CLASS_DUMP sub-record: fixed header, then
// const-pool, static-field, and instance-field blocks. Instance-field
// order is preserved exactly as it appears on the wire (spec.md §3
// invariant 3). Grounded on internal/heap/parser/class_dump.go.
func decodeClassDump(c *cursor, idSize int) (*model.ClassDumpFields, error) {
	cd := &model.ClassDumpFields{}

	var err error
	if cd.ClassObjectID, err = c.id(); err != nil {
		return nil, err
	}
	trace, err := c.u4()
	if err != nil {
		return nil, err
	}
	cd.StackTraceSerial = model.SerialNum(trace)

	if cd.SuperClassObjectID, err = c.id(); err != nil {
		return nil, err
	}
	// class loader, signers, protection domain, two reserved ids: not
	// surfaced in ClassDumpFields (spec.md §3 names only the fields that
	// matter to field decoding and the super-chain walk).
	for i := 0; i < 5; i++ {
		if _, err := c.id(); err != nil {
			return nil, err
		}
	}

	instanceSize, err := c.u4()
	if err != nil {
		return nil, err
	}
	cd.InstanceSize = instanceSize

	poolCount, err := c.u2()
	if err != nil {
		return nil, err
	}
	cd.ConstantPool = make([]model.ConstantPoolEntry, poolCount)
	for i := range cd.ConstantPool {
		idx, err := c.u2()
		if err != nil {
			return nil, err
		}
		typeByte, err := c.u1()
		if err != nil {
			return nil, err
		}
		ft := model.FieldType(typeByte)
		val, err := c.field(ft, idSize)
		if err != nil {
			return nil, err
		}
		valCopy := make([]byte, len(val))
		copy(valCopy, val)
		cd.ConstantPool[i] = model.ConstantPoolEntry{Index: idx, Type: ft, Value: valCopy}
	}

	staticCount, err := c.u2()
	if err != nil {
		return nil, err
	}
	cd.StaticFields = make([]model.StaticField, staticCount)
	for i := range cd.StaticFields {
		nameID, err := c.id()
		if err != nil {
			return nil, err
		}
		typeByte, err := c.u1()
		if err != nil {
			return nil, err
		}
		ft := model.FieldType(typeByte)
		val, err := c.field(ft, idSize)
		if err != nil {
			return nil, err
		}
		valCopy := make([]byte, len(val))
		copy(valCopy, val)
		cd.StaticFields[i] = model.StaticField{NameID: nameID, Type: ft, Value: valCopy}
	}

	instCount, err := c.u2()
	if err != nil {
		return nil, err
	}
	cd.InstanceFields = make([]model.InstanceFieldDesc, instCount)
	for i := range cd.InstanceFields {
		nameID, err := c.id()
		if err != nil {
			return nil, err
		}
		typeByte, err := c.u1()
		if err != nil {
			return nil, err
		}
		cd.InstanceFields[i] = model.InstanceFieldDesc{NameID: nameID, Type: model.FieldType(typeByte)}
	}

	return cd, nil
}

// decodeInstanceDump decodes a GC_INSTANCE_DUMP sub-record, retaining the
// raw field bytes for C4 to decode later (spec.md §4.2).
func decodeInstanceDump(c *cursor) (*model.InstanceDump, error) {
	id, err := c.id()
	if err != nil {
		return nil, err
	}
	trace, err := c.u4()
	if err != nil {
		return nil, err
	}
	classID, err := c.id()
	if err != nil {
		return nil, err
	}
	size, err := c.u4()
	if err != nil {
		return nil, err
	}
	body, err := c.bytes(int(size))
	if err != nil {
		return nil, err
	}
	// Retain a copy: the cursor's backing array is the top-level record
	// body, which is discarded once this frame is folded (spec.md §4.3
	// "retain the raw record (clone its byte slice)").
	data := make([]byte, len(body))
	copy(data, body)

	return &model.InstanceDump{
		ObjectID:         id,
		StackTraceSerial: model.SerialNum(trace),
		ClassObjectID:    classID,
		Data:             data,
	}, nil
}

// decodeObjectArrayDump decodes a GC_OBJ_ARRAY_DUMP sub-record.
func decodeObjectArrayDump(c *cursor, idSize int) (*model.ObjectArrayDump, error) {
	id, err := c.id()
	if err != nil {
		return nil, err
	}
	trace, err := c.u4()
	if err != nil {
		return nil, err
	}
	count, err := c.u4()
	if err != nil {
		return nil, err
	}
	arrayClassID, err := c.id()
	if err != nil {
		return nil, err
	}
	body, err := c.bytes(int(count) * idSize)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(body))
	copy(data, body)

	return &model.ObjectArrayDump{
		ObjectID:         id,
		StackTraceSerial: model.SerialNum(trace),
		ArrayClassID:     arrayClassID,
		Data:             data,
		Count:            count,
	}, nil
}

// decodePrimitiveArrayDump decodes a GC_PRIM_ARRAY_DUMP sub-record.
func decodePrimitiveArrayDump(c *cursor, idSize int) (*model.PrimitiveArrayDump, error) {
	id, err := c.id()
	if err != nil {
		return nil, err
	}
	trace, err := c.u4()
	if err != nil {
		return nil, err
	}
	count, err := c.u4()
	if err != nil {
		return nil, err
	}
	typeByte, err := c.u1()
	if err != nil {
		return nil, err
	}
	ft := model.FieldType(typeByte)
	elemSize := ft.Size(idSize)
	if elemSize == 0 {
		return nil, errNeedMore
	}
	body, err := c.bytes(int(count) * elemSize)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(body))
	copy(data, body)

	return &model.PrimitiveArrayDump{
		ObjectID:         id,
		StackTraceSerial: model.SerialNum(trace),
		ElementType:      ft,
		Data:             data,
		Count:            count,
	}, nil
}
