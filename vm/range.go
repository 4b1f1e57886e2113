package vm

import (
	"math"
	"math/big"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// range
// ---------------------------------------------------------------------------

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// Range is the lazy arithmetic progression payload. Bounds are
// arbitrary-precision and immutable; every derived quantity (length,
// membership, projection) is computed, never materialized.
type Range struct {
	start *big.Int
	stop  *big.Int
	step  *big.Int
}

// NewRange builds a range value. A zero step is rejected.
func (ctx *Context) NewRange(start, stop, step *big.Int) (Value, error) {
	if step.Sign() == 0 {
		return Value{}, NewValueError("range() arg 3 must not be zero")
	}
	r := &Range{
		start: new(big.Int).Set(start),
		stop:  new(big.Int).Set(stop),
		step:  new(big.Int).Set(step),
	}
	return FromObject(NewObject(ctx.Types.Range, r)), nil
}

// AsRange extracts a range payload.
func AsRange(v Value) (*Range, bool) {
	if !v.IsObject() {
		return nil, false
	}
	r, ok := v.Object().Payload().(*Range)
	return r, ok
}

func rangePayload(v Value) *Range {
	r, ok := AsRange(v)
	if !ok {
		panic("vm: expected range payload")
	}
	return r
}

// Start returns the inclusive lower bound. Not to be mutated.
func (r *Range) Start() *big.Int { return r.start }

// Stop returns the exclusive upper bound. Not to be mutated.
func (r *Range) Stop() *big.Int { return r.stop }

// Step returns the stride. Not to be mutated.
func (r *Range) Step() *big.Int { return r.step }

// Length computes ceil((stop-start)/step), clamped at zero when the step
// points away from stop.
func (r *Range) Length() *big.Int {
	span := new(big.Int).Sub(r.stop, r.start)
	if span.Sign() == 0 || span.Sign() != r.step.Sign() {
		return new(big.Int)
	}
	step := new(big.Int).Abs(r.step)
	span.Abs(span)
	// ceil division on positive operands.
	span.Add(span, step)
	span.Sub(span, bigOne)
	return span.Div(span, step)
}

// IsEmpty reports a zero length.
func (r *Range) IsEmpty() bool {
	return r.Length().Sign() == 0
}

// offset returns (value - start) / step when value lies exactly on the
// progression and within its bounds.
func (r *Range) offset(value *big.Int) (*big.Int, bool) {
	inBounds := false
	if r.step.Sign() > 0 {
		inBounds = value.Cmp(r.start) >= 0 && value.Cmp(r.stop) < 0
	} else {
		inBounds = value.Cmp(r.start) <= 0 && value.Cmp(r.stop) > 0
	}
	if !inBounds {
		return nil, false
	}
	diff := new(big.Int).Sub(value, r.start)
	quo, rem := new(big.Int).QuoRem(diff, r.step, new(big.Int))
	if rem.Sign() != 0 {
		return nil, false
	}
	return quo, true
}

// ContainsInt reports membership of an exact integer in O(1).
func (r *Range) ContainsInt(value *big.Int) bool {
	_, ok := r.offset(value)
	return ok
}

// IndexOfInt returns the position of an exact integer, O(1).
func (r *Range) IndexOfInt(value *big.Int) (*big.Int, bool) {
	return r.offset(value)
}

// Get returns the element at position i; negative positions count from
// the end.
func (r *Range) Get(i *big.Int) (*big.Int, bool) {
	length := r.Length()
	idx := new(big.Int).Set(i)
	if idx.Sign() < 0 {
		idx.Add(idx, length)
	}
	if idx.Sign() < 0 || idx.Cmp(length) >= 0 {
		return nil, false
	}
	out := new(big.Int).Mul(idx, r.step)
	return out.Add(out, r.start), true
}

// Project composes a slice onto the range in O(1): the sub-range's step
// is the product of steps and its bounds are positions mapped through
// the parent progression.
func (r *Range) Project(s *Slice) (*Range, error) {
	length := r.Length()
	subStart, subStop, subStep, err := s.BigIndices(length)
	if err != nil {
		return nil, err
	}
	newStep := new(big.Int).Mul(r.step, subStep)
	newStart := new(big.Int).Mul(subStart, r.step)
	newStart.Add(newStart, r.start)
	newStop := new(big.Int).Mul(subStop, r.step)
	newStop.Add(newStop, r.start)
	return &Range{start: newStart, stop: newStop, step: newStep}, nil
}

// Reversed describes the same elements walked backwards: start shifts to
// the last element and the step negates.
func (r *Range) Reversed() *Range {
	length := r.Length()
	lastOff := new(big.Int).Sub(length, bigOne)
	if lastOff.Sign() < 0 {
		lastOff.SetInt64(0)
	}
	newStart := new(big.Int).Mul(lastOff, r.step)
	newStart.Add(newStart, r.start)
	newStep := new(big.Int).Neg(r.step)
	newStop := new(big.Int).Mul(length, newStep)
	newStop.Add(newStop, newStart)
	if length.Sign() == 0 {
		newStop = new(big.Int).Set(newStart)
	}
	return &Range{start: newStart, stop: newStop, step: newStep}
}

// equalRanges compares by produced elements: empty ranges are all equal,
// single-element ranges compare by first element, longer ranges by
// (start, step). The stop bound never participates.
func equalRanges(a, b *Range) bool {
	la, lb := a.Length(), b.Length()
	if la.Cmp(lb) != 0 {
		return false
	}
	if la.Sign() == 0 {
		return true
	}
	if a.start.Cmp(b.start) != 0 {
		return false
	}
	if la.Cmp(bigOne) == 0 {
		return true
	}
	return a.step.Cmp(b.step) == 0
}

// hashRange mirrors equalRanges: the same element classes feed the hash,
// and stop is excluded.
func hashRange(r *Range) uint64 {
	length := r.Length()
	switch {
	case length.Sign() == 0:
		return hashCombine(hashBig(length))
	case length.Cmp(bigOne) == 0:
		return hashCombine(hashBig(length), hashBig(r.start))
	default:
		return hashCombine(hashBig(length), hashBig(r.start), hashBig(r.step))
	}
}

func rangeRepr(r *Range) string {
	if r.step.Cmp(bigOne) == 0 {
		return "range(" + r.start.String() + ", " + r.stop.String() + ")"
	}
	return "range(" + r.start.String() + ", " + r.stop.String() + ", " + r.step.String() + ")"
}

// ---------------------------------------------------------------------------
// range iterators
// ---------------------------------------------------------------------------

// rangeIter iterates a range whose start, stop, step and start+step all
// fit a machine word. The cursor is an atomic fetch-add, so concurrent
// consumers each receive distinct elements.
type rangeIter struct {
	start  int64
	step   int64
	length int64
	index  atomic.Int64
}

func (it *rangeIter) next() (int64, bool) {
	i := it.index.Add(1) - 1
	if i >= it.length {
		return 0, false
	}
	return it.start + i*it.step, true
}

// setIndex clamps into [0, length].
func (it *rangeIter) setIndex(i int64) {
	if i < 0 {
		i = 0
	}
	if i > it.length {
		i = it.length
	}
	it.index.Store(i)
}

func (it *rangeIter) remaining() int64 {
	i := it.index.Load()
	if i >= it.length {
		return 0
	}
	return it.length - i
}

// longRangeIter is the arbitrary-precision twin of rangeIter, identical
// in shape: fixed start/step/length, one advancing cursor.
type longRangeIter struct {
	start  *big.Int
	step   *big.Int
	length *big.Int
	index  atomic.Int64
}

func (it *longRangeIter) next() (*big.Int, bool) {
	i := it.index.Add(1) - 1
	if i < 0 {
		// Incrementing a saturated cursor wraps; park it back at the cap.
		it.index.Store(math.MaxInt64)
		return nil, false
	}
	idx := big.NewInt(i)
	if idx.Cmp(it.length) >= 0 {
		return nil, false
	}
	out := new(big.Int).Mul(idx, it.step)
	return out.Add(out, it.start), true
}

func (it *longRangeIter) setIndex(i *big.Int) {
	if i.Sign() < 0 {
		it.index.Store(0)
		return
	}
	if i.Cmp(it.length) > 0 {
		i = it.length
	}
	if !i.IsInt64() {
		// Clamped position is still beyond the machine cursor; saturate
		// at the largest representable index.
		it.index.Store(math.MaxInt64)
		return
	}
	it.index.Store(i.Int64())
}

func (it *longRangeIter) remaining() *big.Int {
	i := big.NewInt(it.index.Load())
	if i.Cmp(it.length) >= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(it.length, i)
}

// fitsWord reports whether the range can be iterated on machine words:
// start, stop, step and start+step must all be representable.
func (r *Range) fitsWord() bool {
	if !r.start.IsInt64() || !r.stop.IsInt64() || !r.step.IsInt64() {
		return false
	}
	sum := new(big.Int).Add(r.start, r.step)
	return sum.IsInt64()
}

// NewIterator picks the iterator representation once, at creation.
func (r *Range) NewIterator(ctx *Context) Value {
	length := r.Length()
	if r.fitsWord() && length.IsInt64() {
		it := &rangeIter{start: r.start.Int64(), step: r.step.Int64(), length: length.Int64()}
		return FromObject(NewObject(ctx.Types.RangeIterator, it))
	}
	it := &longRangeIter{
		start:  new(big.Int).Set(r.start),
		step:   new(big.Int).Set(r.step),
		length: length,
	}
	return FromObject(NewObject(ctx.Types.LongRangeIterator, it))
}

// ---------------------------------------------------------------------------
// type registration
// ---------------------------------------------------------------------------

func rangeNew(ctx *Context, class *Class, args []Value) (Value, error) {
	bound := func(v Value, what string) (*big.Int, error) {
		b, ok := AsBigInt(v)
		if !ok {
			return nil, NewTypeError("%q object cannot be interpreted as an integer", ctx.TypeName(v))
		}
		return b, nil
	}
	switch len(args) {
	case 1:
		stop, err := bound(args[0], "stop")
		if err != nil {
			return Value{}, err
		}
		return ctx.NewRange(bigZero, stop, bigOne)
	case 2, 3:
		start, err := bound(args[0], "start")
		if err != nil {
			return Value{}, err
		}
		stop, err := bound(args[1], "stop")
		if err != nil {
			return Value{}, err
		}
		step := bigOne
		if len(args) == 3 {
			if step, err = bound(args[2], "step"); err != nil {
				return Value{}, err
			}
		}
		return ctx.NewRange(start, stop, step)
	default:
		return Value{}, NewTypeError("range expected 1 to 3 arguments, got %d", len(args))
	}
}

func rangeLen(ctx *Context, self Value) (int, error) {
	length := rangePayload(self).Length()
	if !length.IsInt64() || length.Int64() > int64(int(^uint(0)>>1)) {
		return 0, NewOverflowError("range length is too large to report")
	}
	return int(length.Int64()), nil
}

// rangeContains takes the O(1) arithmetic path for exact integers and a
// linear equality scan for anything else.
func rangeContains(ctx *Context, self, needle Value) (bool, error) {
	r := rangePayload(self)
	if b, ok := AsBigInt(needle); ok {
		return r.ContainsInt(b), nil
	}
	return iterSearchContains(ctx, self, needle)
}

func iterSearchContains(ctx *Context, self, needle Value) (bool, error) {
	iter, err := ctx.GetIter(self)
	if err != nil {
		return false, err
	}
	for {
		item, ok, err := ctx.Next(iter)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		eq, err := ctx.Equal(item, needle)
		if err != nil {
			return false, err
		}
		if eq {
			return true, nil
		}
	}
}

func iterSearchIndex(ctx *Context, self, needle Value) (int64, bool, error) {
	iter, err := ctx.GetIter(self)
	if err != nil {
		return 0, false, err
	}
	for i := int64(0); ; i++ {
		item, ok, err := ctx.Next(iter)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		eq, err := ctx.Equal(item, needle)
		if err != nil {
			return 0, false, err
		}
		if eq {
			return i, true, nil
		}
	}
}

var rangeSequenceMethods = SequenceMethods{
	Length: rangeLen,
	Item: func(ctx *Context, self Value, i int) (Value, error) {
		v, ok := rangePayload(self).Get(big.NewInt(int64(i)))
		if !ok {
			return Value{}, NewIndexError("range object index out of range")
		}
		return ctx.NewBigInt(v), nil
	},
	Contains: rangeContains,
}

var rangeMappingMethods = MappingMethods{
	Length: rangeLen,
	Subscript: func(ctx *Context, self, needle Value) (Value, error) {
		r := rangePayload(self)
		if s, ok := AsSlice(needle); ok {
			sub, err := r.Project(s)
			if err != nil {
				return Value{}, err
			}
			return FromObject(NewObject(ctx.Types.Range, sub)), nil
		}
		b, ok := AsBigInt(needle)
		if !ok {
			return Value{}, NewTypeError("range indices must be integers or slices, not %s", ctx.TypeName(needle))
		}
		v, ok := r.Get(b)
		if !ok {
			return Value{}, NewIndexError("range object index out of range")
		}
		return ctx.NewBigInt(v), nil
	},
}

var rangeNumberMethods = NumberMethods{
	Bool: func(ctx *Context, v Value) (bool, error) {
		return !rangePayload(v).IsEmpty(), nil
	},
}

func registerRangeType(ctx *Context) {
	NewTypeDef("range").
		WithDoc("An immutable arithmetic progression of integers.").
		AddGetter("start", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewBigInt(rangePayload(self).Start()), nil
		}).
		AddGetter("stop", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewBigInt(rangePayload(self).Stop()), nil
		}).
		AddGetter("step", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewBigInt(rangePayload(self).Step()), nil
		}).
		AddMethod(Method1("count", func(ctx *Context, self, v Value) (Value, error) {
			r := rangePayload(self)
			if b, ok := AsBigInt(v); ok {
				if r.ContainsInt(b) {
					return FromInt(1), nil
				}
				return FromInt(0), nil
			}
			found, err := iterSearchContains(ctx, self, v)
			if err != nil {
				return Value{}, err
			}
			if found {
				return FromInt(1), nil
			}
			return FromInt(0), nil
		})).
		AddMethod(Method1("index", func(ctx *Context, self, v Value) (Value, error) {
			if b, ok := AsBigInt(v); ok {
				idx, ok := rangePayload(self).IndexOfInt(b)
				if !ok {
					return Value{}, NewValueError("%s is not in range", b.String())
				}
				return ctx.NewBigInt(idx), nil
			}
			pos, found, err := iterSearchIndex(ctx, self, v)
			if err != nil {
				return Value{}, err
			}
			if !found {
				rep, err := ctx.Repr(v)
				if err != nil {
					return Value{}, err
				}
				return Value{}, NewValueError("%s is not in range", rep)
			}
			return FromInt(pos), nil
		})).
		AddMethod(Method0("__reversed__", func(ctx *Context, self Value) (Value, error) {
			return rangePayload(self).Reversed().NewIterator(ctx), nil
		})).
		AddMethod(Method0("__reduce__", func(ctx *Context, self Value) (Value, error) {
			r := rangePayload(self)
			return ctx.NewList([]Value{
				ctx.NewBigInt(r.Start()),
				ctx.NewBigInt(r.Stop()),
				ctx.NewBigInt(r.Step()),
			}), nil
		})).
		With(
			Constructible(rangeNew),
			Representable(func(ctx *Context, self Value) (string, error) {
				return rangeRepr(rangePayload(self)), nil
			}),
			Hashable(func(ctx *Context, self Value) (uint64, error) {
				return hashRange(rangePayload(self)), nil
			}),
			Comparable(func(ctx *Context, self, other Value, op CompareOp) (Value, error) {
				o, ok := AsRange(other)
				if !ok {
					return NotImplemented, nil
				}
				if op != OpEq && op != OpNe {
					return NotImplemented, nil
				}
				eq := equalRanges(rangePayload(self), o)
				if op == OpNe {
					eq = !eq
				}
				return FromBool(eq), nil
			}),
			Iterable(func(ctx *Context, self Value) (Value, error) {
				return rangePayload(self).NewIterator(ctx), nil
			}),
			AsSequenceProvider(&rangeSequenceMethods),
			AsMappingProvider(&rangeMappingMethods),
			AsNumberProvider(&rangeNumberMethods),
		).
		Realize(ctx, ctx.Types.Range)
}

func registerRangeIteratorTypes(ctx *Context) {
	NewTypeDef("range_iterator").
		AddMethod(Method0("__length_hint__", func(ctx *Context, self Value) (Value, error) {
			return FromInt(self.Payload().(*rangeIter).remaining()), nil
		})).
		AddMethod(Method1("__setstate__", func(ctx *Context, self, state Value) (Value, error) {
			b, ok := AsBigInt(state)
			if !ok {
				return Value{}, NewTypeError("state must be an integer")
			}
			i := int64(math.MaxInt64)
			if b.IsInt64() {
				i = b.Int64()
			} else if b.Sign() < 0 {
				i = 0
			}
			self.Payload().(*rangeIter).setIndex(i)
			return None, nil
		})).
		AddMethod(Method0("__reduce__", func(ctx *Context, self Value) (Value, error) {
			it := self.Payload().(*rangeIter)
			return ctx.NewList([]Value{
				FromInt(it.start),
				FromInt(it.step),
				FromInt(it.length),
				FromInt(it.index.Load()),
			}), nil
		})).
		With(
			Unconstructible(),
			SelfIterator(func(ctx *Context, self Value) (Value, bool, error) {
				n, ok := self.Payload().(*rangeIter).next()
				if !ok {
					return Value{}, false, nil
				}
				return FromInt(n), true, nil
			}),
		).
		Realize(ctx, ctx.Types.RangeIterator)

	NewTypeDef("longrange_iterator").
		AddMethod(Method0("__length_hint__", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewBigInt(self.Payload().(*longRangeIter).remaining()), nil
		})).
		AddMethod(Method1("__setstate__", func(ctx *Context, self, state Value) (Value, error) {
			b, ok := AsBigInt(state)
			if !ok {
				return Value{}, NewTypeError("state must be an integer")
			}
			self.Payload().(*longRangeIter).setIndex(b)
			return None, nil
		})).
		AddMethod(Method0("__reduce__", func(ctx *Context, self Value) (Value, error) {
			it := self.Payload().(*longRangeIter)
			return ctx.NewList([]Value{
				ctx.NewBigInt(it.start),
				ctx.NewBigInt(it.step),
				ctx.NewBigInt(it.length),
				FromInt(it.index.Load()),
			}), nil
		})).
		With(
			Unconstructible(),
			SelfIterator(func(ctx *Context, self Value) (Value, bool, error) {
				n, ok := self.Payload().(*longRangeIter).next()
				if !ok {
					return Value{}, false, nil
				}
				return ctx.NewBigInt(n), true, nil
			}),
		).
		Realize(ctx, ctx.Types.LongRangeIterator)
}
