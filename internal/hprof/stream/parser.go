// Package stream implements the record-framing half of the hprof ingestion
// pipeline (C2): it turns a sequence of raw byte chunks into a sequence of
// model.Record values, resuming cleanly across chunk boundaries.
package stream

import (
	"fmt"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
)

// Parser turns raw file bytes into model.Record values. It is fed
// sequential, non-overlapping chunks; incomplete trailing data is carried
// forward to the next Feed call (spec.md §4.2's "carry buffer").
type Parser struct {
	header *model.FileHeader

	// fileSize bounds CorruptLengthError detection; 0 means "unknown",
	// in which case that check is skipped.
	fileSize int64

	carry    []byte
	consumed int64
}

// NewParser constructs a Parser for a dump whose header has already been
// consumed by ParseHeader. fileSize is the total file size in bytes, used
// to bound record lengths; pass 0 if unknown.
func NewParser(header *model.FileHeader, fileSize int64) *Parser {
	return &Parser{header: header, fileSize: fileSize}
}

// BytesConsumed reports the number of top-level-record bytes folded so far,
// for progress reporting (spec.md §5).
func (p *Parser) BytesConsumed() int64 { return p.consumed }

// Feed appends chunk to the carry buffer and decodes as many complete
// top-level records as are available, appending each to batch and
// returning the grown slice. Any trailing incomplete bytes are retained as
// the new carry. Feed never blocks and never retains chunk itself.
func (p *Parser) Feed(chunk []byte, batch []model.Record) ([]model.Record, error) {
	if len(chunk) > 0 {
		p.carry = append(p.carry, chunk...)
	}

	for {
		c := &cursor{data: p.carry}
		rec, n, err := p.decodeFrame(c)
		if err == errNeedMore {
			break
		}
		if err != nil {
			return batch, err
		}
		p.carry = p.carry[n:]
		p.consumed += int64(n)
		batch = append(batch, rec...)
	}

	return batch, nil
}

// Finish signals that no more chunks will arrive. A non-empty carry at this
// point means the file ended mid-record.
func (p *Parser) Finish() error {
	if len(p.carry) > 0 {
		return model.ErrTruncatedInput
	}
	return nil
}

// decodeFrame decodes exactly one top-level record: tag:u1 |
// timestamp_delta:u4 | length:u4 | body[length]. It returns the records
// produced (more than one for a HEAP_DUMP/HEAP_DUMP_SEGMENT, whose nested
// GC sub-records are flattened into independent model.Record values — see
// DESIGN.md) and the number of bytes consumed from the front of p.carry.
func (p *Parser) decodeFrame(c *cursor) ([]model.Record, int, error) {
	tagByte, err := c.u1()
	if err != nil {
		return nil, 0, errNeedMore
	}
	since, err := c.u4()
	if err != nil {
		return nil, 0, errNeedMore
	}
	length, err := c.u4()
	if err != nil {
		return nil, 0, errNeedMore
	}

	if p.fileSize > 0 {
		offset := p.consumed + 9 + int64(length)
		if offset > p.fileSize {
			return nil, 0, &model.CorruptLengthError{Offset: p.consumed, Length: length}
		}
	}

	body, err := c.bytes(int(length))
	if err != nil {
		return nil, 0, errNeedMore
	}

	tag := model.Tag(tagByte)
	recs, err := p.decodeBody(tag, since, body)
	if err != nil {
		return nil, 0, err
	}
	return recs, 9 + int(length), nil
}

// decodeBody dispatches on tag. body is the record's full, already-framed
// payload, so any shortfall while decoding it is a genuine corruption, not
// a need for more chunk data.
func (p *Parser) decodeBody(tag model.Tag, since uint32, body []byte) ([]model.Record, error) {
	bc := &cursor{data: body}

	switch tag {
	case model.TagUTF8:
		id, err := bc.id()
		if err != nil {
			return nil, fmt.Errorf("UTF8 string record: %w", err)
		}
		rest, _ := bc.bytes(bc.remaining())
		str := make([]byte, len(rest))
		copy(str, rest)
		return one(model.Record{Tag: tag, SinceStart: since, Utf8: &model.Utf8String{ID: id, Bytes: str}}), nil

	case model.TagLoadClass:
		serial, err1 := bc.u4()
		objID, err2 := bc.id()
		traceSerial, err3 := bc.u4()
		nameID, err4 := bc.id()
		if err := firstErr(err1, err2, err3, err4); err != nil {
			return nil, fmt.Errorf("LOAD_CLASS record: %w", err)
		}
		return one(model.Record{Tag: tag, SinceStart: since, LoadClass: &model.LoadClass{
			ClassSerial: model.SerialNum(serial), ClassObjectID: objID,
			StackTraceSerial: model.SerialNum(traceSerial), ClassNameID: nameID,
		}}), nil

	case model.TagUnloadClass:
		serial, err := bc.u4()
		if err != nil {
			return nil, fmt.Errorf("UNLOAD_CLASS record: %w", err)
		}
		return one(model.Record{Tag: tag, SinceStart: since, UnloadClass: &model.UnloadClass{ClassSerial: model.SerialNum(serial)}}), nil

	case model.TagStackFrame:
		frameID, err1 := bc.id()
		methodID, err2 := bc.id()
		sigID, err3 := bc.id()
		srcID, err4 := bc.id()
		classSerial, err5 := bc.u4()
		lineNum, err6 := bc.i4()
		if err := firstErr(err1, err2, err3, err4, err5, err6); err != nil {
			return nil, fmt.Errorf("STACK_FRAME record: %w", err)
		}
		return one(model.Record{Tag: tag, SinceStart: since, StackFrame: &model.StackFrame{
			StackFrameID: frameID, MethodNameID: methodID, MethodSigID: sigID,
			SourceFileNameID: srcID, ClassSerial: model.SerialNum(classSerial), LineNumber: lineNum,
		}}), nil

	case model.TagStackTrace:
		serial, err1 := bc.u4()
		threadSerial, err2 := bc.u4()
		numFrames, err3 := bc.u4()
		if err := firstErr(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("STACK_TRACE record: %w", err)
		}
		frames := make([]model.ID, numFrames)
		for i := range frames {
			id, err := bc.id()
			if err != nil {
				return nil, fmt.Errorf("STACK_TRACE record: %w", err)
			}
			frames[i] = id
		}
		return one(model.Record{Tag: tag, SinceStart: since, StackTrace: &model.StackTrace{
			Serial: model.SerialNum(serial), ThreadSerial: model.SerialNum(threadSerial), FrameIDs: frames,
		}}), nil

	case model.TagStartThread:
		threadSerial, err1 := bc.u4()
		threadObjID, err2 := bc.id()
		traceSerial, err3 := bc.u4()
		nameID, err4 := bc.id()
		groupID, err5 := bc.id()
		parentGroupID, err6 := bc.id()
		if err := firstErr(err1, err2, err3, err4, err5, err6); err != nil {
			return nil, fmt.Errorf("START_THREAD record: %w", err)
		}
		return one(model.Record{Tag: tag, SinceStart: since, StartThread: &model.StartThread{
			ThreadSerial: model.SerialNum(threadSerial), ThreadObjectID: threadObjID,
			StackTraceSerial: model.SerialNum(traceSerial), ThreadNameID: nameID,
			ThreadGroupNameID: groupID, ParentThreadGroupNameID: parentGroupID,
		}}), nil

	case model.TagEndThread:
		threadSerial, err := bc.u4()
		if err != nil {
			return nil, fmt.Errorf("END_THREAD record: %w", err)
		}
		return one(model.Record{Tag: tag, SinceStart: since, EndThread: &model.EndThread{ThreadSerial: model.SerialNum(threadSerial)}}), nil

	case model.TagHeapDump, model.TagHeapDumpSegment:
		return p.decodeHeapDumpBody(tag, since, bc)

	case model.TagHeapSummary, model.TagAllocSites, model.TagControlSettings,
		model.TagCPUSamples, model.TagHeapDumpEnd:
		// Meta/statistics records with no fields this engine surfaces
		// (spec.md §3 scopes these to tag-counters only).
		return one(model.Record{Tag: tag, SinceStart: since}), nil

	default:
		return nil, &model.UnknownTagError{Tag: byte(tag), Offset: p.consumed}
	}
}

// decodeHeapDumpBody unpacks every GC sub-record in a HEAP_DUMP /
// HEAP_DUMP_SEGMENT body, flattening each into its own model.Record so
// that downstream per-record-type accounting (spec.md §3 invariant 1)
// doesn't need to special-case nested records. A shortfall here always
// means the sub-record overflowed the (already fully-buffered) segment.
func (p *Parser) decodeHeapDumpBody(tag model.Tag, since uint32, bc *cursor) ([]model.Record, error) {
	idSize := p.header.IDSize

	// One frame-start marker carries the outer frame's own tag count;
	// every nested sub-record below is flattened into its own
	// TagGcSegment record so frame counts and sub-record counts stay
	// distinct (model.Counters.Bump relies on this separation).
	recs := []model.Record{{Tag: tag, SinceStart: since}}
	for bc.remaining() > 0 {
		subByte, err := bc.u1()
		if err != nil {
			return nil, p.overflow(model.SubTag(0), err)
		}
		sub := model.SubTag(subByte)

		var gc *model.GcRecord
		switch sub {
		case model.SubTagClassDump:
			cd, err := decodeClassDump(bc, idSize)
			if err != nil {
				return nil, p.overflow(sub, err)
			}
			gc = &model.GcRecord{Sub: sub, ClassDump: cd}

		case model.SubTagInstanceDump:
			id, err := decodeInstanceDump(bc)
			if err != nil {
				return nil, p.overflow(sub, err)
			}
			gc = &model.GcRecord{Sub: sub, InstanceDump: id}

		case model.SubTagObjectArrayDump:
			oa, err := decodeObjectArrayDump(bc, idSize)
			if err != nil {
				return nil, p.overflow(sub, err)
			}
			gc = &model.GcRecord{Sub: sub, ObjectArrayDump: oa}

		case model.SubTagPrimitiveArray:
			pa, err := decodePrimitiveArrayDump(bc, idSize)
			if err != nil {
				return nil, p.overflow(sub, err)
			}
			gc = &model.GcRecord{Sub: sub, PrimitiveArrayDump: pa}

		default:
			gc, err = decodeGCRoot(sub, bc)
			if err != nil {
				return nil, p.overflow(sub, err)
			}
		}

		recs = append(recs, model.Record{Tag: model.TagGcSegment, SinceStart: since, GC: gc})
	}

	return recs, nil
}

func (p *Parser) overflow(sub model.SubTag, err error) error {
	if err == errNeedMore {
		return &model.SubRecordOverflowError{Sub: sub, Offset: p.consumed}
	}
	return err
}

func one(r model.Record) []model.Record { return []model.Record{r} }

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
