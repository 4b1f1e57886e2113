package vm

import "sync"

// ---------------------------------------------------------------------------
// Position iterators
// ---------------------------------------------------------------------------

// positionIter walks a sequence by index. A mutex guards the cursor so
// concurrent Next calls each observe a distinct position; an exhausted
// iterator drops its reference to the sequence and stays exhausted even
// if the sequence grows afterwards.
type positionIter struct {
	mu  sync.Mutex
	seq Value
	pos int
}

// step advances the cursor by one and reports the position to read, or
// not-ok when the iterator is exhausted.
func (it *positionIter) step(ctx *Context) (Value, int, bool, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if !it.seq.IsValid() {
		return Value{}, 0, false, nil
	}
	n, err := ctx.Len(it.seq)
	if err != nil {
		return Value{}, 0, false, err
	}
	if it.pos >= n {
		it.seq = Value{}
		return Value{}, 0, false, nil
	}
	seq := it.seq
	pos := it.pos
	it.pos++
	return seq, pos, true, nil
}

// state captures (sequence, position) for later resumption. The position
// of an exhausted iterator reads as the sequence length it stopped at.
func (it *positionIter) state() (Value, int) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.seq, it.pos
}

// setState repositions the cursor, clamping into [0, len].
func (it *positionIter) setState(ctx *Context, pos int) error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if !it.seq.IsValid() {
		return nil
	}
	n, err := ctx.Len(it.seq)
	if err != nil {
		return err
	}
	if pos < 0 {
		pos = 0
	}
	if pos > n {
		pos = n
	}
	it.pos = pos
	return nil
}

// newPositionIterator wraps any sequence-protocol value in the shared
// index-walking iterator.
func newPositionIterator(ctx *Context, seq Value) Value {
	return FromObject(NewObject(ctx.Types.SeqIterator, &positionIter{seq: seq}))
}

func positionIterPayload(v Value) *positionIter {
	it, ok := v.Payload().(*positionIter)
	if !ok {
		panic("vm: expected position iterator payload")
	}
	return it
}

func positionIterNext(ctx *Context, self Value) (Value, bool, error) {
	it := positionIterPayload(self)
	seq, pos, ok, err := it.step(ctx)
	if err != nil || !ok {
		return Value{}, false, err
	}
	sm := ctx.ClassOf(seq).Slots().Sequence()
	if sm == nil || sm.Item == nil {
		return Value{}, false, NewTypeError("%q object does not support indexing", ctx.TypeName(seq))
	}
	item, err := sm.Item(ctx, seq, pos)
	if err != nil {
		return Value{}, false, err
	}
	return item, true, nil
}

func registerSeqIteratorType(ctx *Context) {
	NewTypeDef("iterator").
		AddMethod(Method0("__length_hint__", func(ctx *Context, self Value) (Value, error) {
			it := positionIterPayload(self)
			seq, pos := it.state()
			if !seq.IsValid() {
				return FromInt(0), nil
			}
			n, err := ctx.Len(seq)
			if err != nil {
				return Value{}, err
			}
			if pos > n {
				return FromInt(0), nil
			}
			return FromInt(int64(n - pos)), nil
		})).
		AddMethod(Method1("__setstate__", func(ctx *Context, self, state Value) (Value, error) {
			pos, err := AsIndex(state, "iterator")
			if err != nil {
				return Value{}, err
			}
			if err := positionIterPayload(self).setState(ctx, pos); err != nil {
				return Value{}, err
			}
			return None, nil
		})).
		AddMethod(Method0("__reduce__", func(ctx *Context, self Value) (Value, error) {
			seq, pos := positionIterPayload(self).state()
			if !seq.IsValid() {
				return ctx.NewList([]Value{None, FromInt(0)}), nil
			}
			return ctx.NewList([]Value{seq, FromInt(int64(pos))}), nil
		})).
		With(
			Unconstructible(),
			SelfIterator(positionIterNext),
		).
		Realize(ctx, ctx.Types.SeqIterator)
}
