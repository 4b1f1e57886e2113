package vm

import (
	"math"
	"math/big"
	"sync"
	"testing"
)

func mustRange(t *testing.T, ctx *Context, bounds ...int64) Value {
	t.Helper()
	args := make([]Value, len(bounds))
	for i, b := range bounds {
		args[i] = FromInt(b)
	}
	v, err := rangeNew(ctx, ctx.Types.Range, args)
	if err != nil {
		t.Fatalf("range%v: %v", bounds, err)
	}
	return v
}

// ---------------------------------------------------------------------------
// Progression arithmetic tests
// ---------------------------------------------------------------------------

func TestRangeLengthAndMembership(t *testing.T) {
	ctx := NewContext()
	r := rangePayload(mustRange(t, ctx, 0, 10, 3)) // 0 3 6 9
	if got := r.Length().Int64(); got != 4 {
		t.Fatalf("length = %d, want 4", got)
	}
	if !r.ContainsInt(big.NewInt(9)) {
		t.Error("9 should be a member")
	}
	if r.ContainsInt(big.NewInt(10)) {
		t.Error("10 is past the stop bound")
	}
	if r.ContainsInt(big.NewInt(4)) {
		t.Error("4 is off the progression")
	}
	idx, ok := r.IndexOfInt(big.NewInt(6))
	if !ok || idx.Int64() != 2 {
		t.Errorf("index of 6 = %v, %v, want 2", idx, ok)
	}

	down := rangePayload(mustRange(t, ctx, 10, 0, -3)) // 10 7 4 1
	if got := down.Length().Int64(); got != 4 {
		t.Errorf("descending length = %d, want 4", got)
	}
	if !down.ContainsInt(big.NewInt(1)) || down.ContainsInt(big.NewInt(0)) {
		t.Error("descending membership wrong")
	}

	empty := rangePayload(mustRange(t, ctx, 5, 5))
	if !empty.IsEmpty() {
		t.Error("range(5, 5) should be empty")
	}
	away := rangePayload(mustRange(t, ctx, 0, 10, -1))
	if !away.IsEmpty() {
		t.Error("step pointing away from stop should be empty")
	}
}

func TestRangeLengthMatchesIteration(t *testing.T) {
	ctx := NewContext()
	cases := [][]int64{
		{0, 10, 3}, {10, 0, -3}, {0, 0, 1}, {-7, 5, 2}, {5, -7, -4},
	}
	for _, c := range cases {
		v := mustRange(t, ctx, c...)
		items, err := ctx.Collect(v)
		if err != nil {
			t.Fatalf("Collect(range%v): %v", c, err)
		}
		want := rangePayload(v).Length().Int64()
		if int64(len(items)) != want {
			t.Errorf("range%v iterated %d items, length says %d", c, len(items), want)
		}
	}
}

func TestRangeGetNegativeIndex(t *testing.T) {
	ctx := NewContext()
	r := rangePayload(mustRange(t, ctx, 0, 10, 3))
	v, ok := r.Get(big.NewInt(-1))
	if !ok || v.Int64() != 9 {
		t.Errorf("r[-1] = %v, %v, want 9", v, ok)
	}
	if _, ok := r.Get(big.NewInt(4)); ok {
		t.Error("r[4] should be out of range")
	}
	if _, ok := r.Get(big.NewInt(-5)); ok {
		t.Error("r[-5] should be out of range")
	}
}

func TestRangeZeroStep(t *testing.T) {
	ctx := NewContext()
	_, err := rangeNew(ctx, ctx.Types.Range, []Value{FromInt(0), FromInt(5), FromInt(0)})
	if !IsKind(err, ValueError) {
		t.Errorf("zero step error = %v, want ValueError", err)
	}
}

// ---------------------------------------------------------------------------
// Projection tests
// ---------------------------------------------------------------------------

func TestRangeProject(t *testing.T) {
	ctx := NewContext()
	r := rangePayload(mustRange(t, ctx, 0, 20, 2)) // 0..18 by 2, length 10

	sub, err := r.Project(&Slice{Start: FromInt(2), Stop: FromInt(8), Step: FromInt(3)})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	// Positions 2 and 5 of the parent: values 4 and 10, stride 6.
	if got := sub.Length().Int64(); got != 2 {
		t.Fatalf("projected length = %d, want 2", got)
	}
	v, _ := sub.Get(bigZero)
	if v.Int64() != 4 {
		t.Errorf("sub[0] = %v, want 4", v)
	}
	v, _ = sub.Get(bigOne)
	if v.Int64() != 10 {
		t.Errorf("sub[1] = %v, want 10", v)
	}

	// Composition: projecting twice equals walking the elements.
	sub2, err := sub.Project(&Slice{Start: None, Stop: None, Step: FromInt(-1)})
	if err != nil {
		t.Fatalf("second Project: %v", err)
	}
	v, _ = sub2.Get(bigZero)
	if v.Int64() != 10 {
		t.Errorf("reversed sub[0] = %v, want 10", v)
	}
	v, _ = sub2.Get(bigOne)
	if v.Int64() != 4 {
		t.Errorf("reversed sub[1] = %v, want 4", v)
	}
}

func TestRangeSubscriptSlice(t *testing.T) {
	ctx := NewContext()
	v := mustRange(t, ctx, 0, 10)
	sub, err := ctx.Types.Range.Slots().Mapping().Subscript(ctx, v, ctx.NewSlice(FromInt(7), None, None))
	if err != nil {
		t.Fatalf("Subscript: %v", err)
	}
	r, ok := AsRange(sub)
	if !ok {
		t.Fatalf("slice subscript returned %T", sub.Payload())
	}
	if r.Length().Int64() != 3 || r.Start().Int64() != 7 {
		t.Errorf("r[7:] = %s", rangeRepr(r))
	}
	if _, err := ctx.Types.Range.Slots().Mapping().Subscript(ctx, v, ctx.NewStr("x")); !IsKind(err, TypeError) {
		t.Errorf("str subscript error = %v, want TypeError", err)
	}
}

func TestRangeReversed(t *testing.T) {
	ctx := NewContext()
	r := rangePayload(mustRange(t, ctx, 0, 10, 3)).Reversed() // 9 6 3 0
	if r.Length().Int64() != 4 {
		t.Fatalf("reversed length = %d, want 4", r.Length().Int64())
	}
	first, _ := r.Get(bigZero)
	last, _ := r.Get(big.NewInt(3))
	if first.Int64() != 9 || last.Int64() != 0 {
		t.Errorf("reversed walks %v..%v, want 9..0", first, last)
	}
}

// ---------------------------------------------------------------------------
// Equality and hash tests
// ---------------------------------------------------------------------------

func TestRangeEqualityIgnoresStop(t *testing.T) {
	ctx := NewContext()
	cases := []struct {
		a, b []int64
		want bool
	}{
		{[]int64{0, 5, 10}, []int64{0, 9, 10}, true},   // both just [0]
		{[]int64{0, 3}, []int64{0, 4}, false},          // [0 1 2] vs [0 1 2 3]
		{[]int64{5, 5}, []int64{9, 2}, true},           // both empty
		{[]int64{0, 10, 3}, []int64{0, 11, 3}, true},   // same elements
		{[]int64{0, 10, 3}, []int64{0, 10, 4}, false},  // 0 3 6 9 vs 0 4 8
		{[]int64{2, 3}, []int64{2, 3, 5}, true},        // single element, step moot
	}
	for _, c := range cases {
		ra := rangePayload(mustRange(t, ctx, c.a...))
		rb := rangePayload(mustRange(t, ctx, c.b...))
		if got := equalRanges(ra, rb); got != c.want {
			t.Errorf("range%v == range%v -> %v, want %v", c.a, c.b, got, c.want)
		}
		if c.want && hashRange(ra) != hashRange(rb) {
			t.Errorf("equal ranges range%v, range%v hash differently", c.a, c.b)
		}
	}
}

func TestRangeCompareNonRange(t *testing.T) {
	ctx := NewContext()
	a := mustRange(t, ctx, 0, 3)
	r, err := ctx.RichCompare(a, FromInt(3), OpEq)
	if err != nil || r.Bool() {
		t.Errorf("range == 3 -> (%v, %v), want False", r, err)
	}
	if _, err := ctx.RichCompare(a, mustRange(t, ctx, 0, 4), OpLt); !IsKind(err, TypeError) {
		t.Errorf("range ordering error = %v, want TypeError", err)
	}
}

// ---------------------------------------------------------------------------
// Iterator tests
// ---------------------------------------------------------------------------

func TestRangeIteratorRepresentations(t *testing.T) {
	ctx := NewContext()
	small := rangePayload(mustRange(t, ctx, 0, 5)).NewIterator(ctx)
	if ctx.ClassOf(small) != ctx.Types.RangeIterator {
		t.Errorf("small iterator class = %s", ctx.TypeName(small))
	}

	huge := new(big.Int).Lsh(bigOne, 70)
	hv, err := ctx.NewRange(bigZero, huge, bigOne)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	iter := rangePayload(hv).NewIterator(ctx)
	if ctx.ClassOf(iter) != ctx.Types.LongRangeIterator {
		t.Errorf("huge iterator class = %s", ctx.TypeName(iter))
	}
	// Near-overflow start+step also forces the big representation.
	edge := &Range{
		start: big.NewInt(9223372036854775807),
		stop:  new(big.Int).Add(huge, bigOne),
		step:  bigOne,
	}
	if edge.fitsWord() {
		t.Error("start+step overflow should not fit a word")
	}
}

func TestRangeIteratorConcurrentDisjoint(t *testing.T) {
	ctx := NewContext()
	const n = 1000
	iter := rangePayload(mustRange(t, ctx, 0, n)).NewIterator(ctx)
	it := iter.Payload().(*rangeIter)

	var mu sync.Mutex
	seen := make(map[int64]bool, n)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := it.next()
				if !ok {
					return
				}
				mu.Lock()
				if seen[v] {
					t.Errorf("element %d delivered twice", v)
				}
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Errorf("delivered %d distinct elements, want %d", len(seen), n)
	}
}

func TestRangeIteratorStateProtocol(t *testing.T) {
	ctx := NewContext()
	v := mustRange(t, ctx, 10, 0, -3) // 10 7 4 1
	iter, _ := ctx.GetIter(v)
	ctx.Next(iter)
	ctx.Next(iter)

	hint, err := ctx.CallMethod(iter, "__length_hint__", nil)
	if err != nil || hint.Int() != 2 {
		t.Fatalf("__length_hint__ = %v, %v, want 2", hint, err)
	}

	st, err := ctx.CallMethod(iter, "__reduce__", nil)
	if err != nil {
		t.Fatalf("__reduce__: %v", err)
	}
	parts := listPayload(st).Items()
	if parts[0].Int() != 10 || parts[1].Int() != -3 || parts[2].Int() != 4 || parts[3].Int() != 2 {
		t.Errorf("reduce parts = %v", parts)
	}

	// Clamping: past-the-end exhausts, negative rewinds to the front.
	if _, err := ctx.CallMethod(iter, "__setstate__", []Value{FromInt(99)}); err != nil {
		t.Fatalf("__setstate__: %v", err)
	}
	if _, ok, _ := ctx.Next(iter); ok {
		t.Error("clamped iterator should be exhausted")
	}
	ctx.CallMethod(iter, "__setstate__", []Value{FromInt(-5)})
	n, ok, _ := ctx.Next(iter)
	if !ok || n.Int() != 10 {
		t.Errorf("rewound next = %v, want 10", n)
	}
}

func TestLongRangeIteratorStateClamp(t *testing.T) {
	ctx := NewContext()
	huge := new(big.Int).Lsh(bigOne, 70)
	v, err := ctx.NewRange(bigZero, huge, bigOne)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	iter := rangePayload(v).NewIterator(ctx)

	// Restoring a position past the machine cursor saturates instead of
	// leaving the cursor where it was.
	state := ctx.NewBigInt(new(big.Int).Lsh(bigOne, 80))
	if _, err := ctx.CallMethod(iter, "__setstate__", []Value{state}); err != nil {
		t.Fatalf("__setstate__: %v", err)
	}
	it := iter.Payload().(*longRangeIter)
	if got := it.index.Load(); got != math.MaxInt64 {
		t.Fatalf("cursor = %d, want %d", got, int64(math.MaxInt64))
	}
	n, ok := it.next()
	if !ok || n.Cmp(big.NewInt(math.MaxInt64)) != 0 {
		t.Errorf("resumed element = %v, %v, want %d", n, ok, int64(math.MaxInt64))
	}
	if _, ok := it.next(); ok {
		t.Error("cursor past the cap should report exhaustion")
	}

	// Negative restore still rewinds to the front.
	ctx.CallMethod(iter, "__setstate__", []Value{FromInt(-3)})
	n, ok = it.next()
	if !ok || n.Sign() != 0 {
		t.Errorf("rewound element = %v, %v, want 0", n, ok)
	}
}

// ---------------------------------------------------------------------------
// Method tests
// ---------------------------------------------------------------------------

func TestRangeCountAndIndex(t *testing.T) {
	ctx := NewContext()
	v := mustRange(t, ctx, 0, 10, 3)

	c, err := ctx.CallMethod(v, "count", []Value{FromInt(6)})
	if err != nil || c.Int() != 1 {
		t.Errorf("count(6) = %v, %v", c, err)
	}
	c, _ = ctx.CallMethod(v, "count", []Value{FromInt(7)})
	if c.Int() != 0 {
		t.Errorf("count(7) = %v, want 0", c)
	}
	// Float membership goes through the scan.
	c, err = ctx.CallMethod(v, "count", []Value{FromFloat(6.0)})
	if err != nil || c.Int() != 1 {
		t.Errorf("count(6.0) = %v, %v, want 1", c, err)
	}

	i, err := ctx.CallMethod(v, "index", []Value{FromInt(9)})
	if err != nil || i.Int() != 3 {
		t.Errorf("index(9) = %v, %v", i, err)
	}
	if _, err := ctx.CallMethod(v, "index", []Value{FromInt(7)}); !IsKind(err, ValueError) {
		t.Errorf("index(7) error = %v, want ValueError", err)
	}
	// Non-integer arguments take the same scan as count.
	i, err = ctx.CallMethod(v, "index", []Value{FromFloat(6.0)})
	if err != nil || i.Int() != 2 {
		t.Errorf("index(6.0) = %v, %v, want 2", i, err)
	}
	if _, err := ctx.CallMethod(v, "index", []Value{FromFloat(6.5)}); !IsKind(err, ValueError) {
		t.Errorf("index(6.5) error = %v, want ValueError", err)
	}
}

func TestRangeContainsFloat(t *testing.T) {
	ctx := NewContext()
	v := mustRange(t, ctx, 0, 10, 3)
	ok, err := ctx.Contains(v, FromFloat(9.0))
	if err != nil || !ok {
		t.Errorf("9.0 in range = %v, %v, want true", ok, err)
	}
	ok, _ = ctx.Contains(v, FromFloat(9.5))
	if ok {
		t.Error("9.5 should not be a member")
	}
}

func TestRangeTruthyAndRepr(t *testing.T) {
	ctx := NewContext()
	full := mustRange(t, ctx, 0, 3)
	empty := mustRange(t, ctx, 0, 0)
	if b, _ := ctx.Truthy(full); !b {
		t.Error("non-empty range should be truthy")
	}
	if b, _ := ctx.Truthy(empty); b {
		t.Error("empty range should be falsy")
	}
	got, _ := ctx.Repr(full)
	if got != "range(0, 3)" {
		t.Errorf("Repr = %q", got)
	}
	got, _ = ctx.Repr(mustRange(t, ctx, 0, 10, 3))
	if got != "range(0, 10, 3)" {
		t.Errorf("Repr = %q", got)
	}
}

func TestRangeReduce(t *testing.T) {
	ctx := NewContext()
	v := mustRange(t, ctx, 2, 11, 3)
	st, err := ctx.CallMethod(v, "__reduce__", nil)
	if err != nil {
		t.Fatalf("__reduce__: %v", err)
	}
	parts := listPayload(st).Items()
	if parts[0].Int() != 2 || parts[1].Int() != 11 || parts[2].Int() != 3 {
		t.Errorf("reduce parts = %v", parts)
	}
}
