package vm

import (
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

// ---------------------------------------------------------------------------
// array
// ---------------------------------------------------------------------------

// Array is a dynamically-typed numeric array: a flat byte buffer of
// fixed-width elements described by an element kind.
//
// One reader/writer lock guards the buffer. The export counter is an
// independent atomic, adjusted by buffer views without the lock; any
// mutation that could reallocate the buffer re-checks the counter under
// the write lock and refuses to proceed while views are live. Non-resizing
// element writes stay legal during export.
type Array struct {
	mu      sync.RWMutex
	kind    ElemKind
	data    []byte
	exports atomic.Int64
}

// NewArray creates an empty array of the given kind.
func NewArray(kind ElemKind) *Array {
	return &Array{kind: kind}
}

// AsArray extracts an array payload.
func AsArray(v Value) (*Array, bool) {
	if !v.IsObject() {
		return nil, false
	}
	a, ok := v.Object().Payload().(*Array)
	return a, ok
}

func arrayPayload(v Value) *Array {
	a, ok := AsArray(v)
	if !ok {
		panic("vm: expected array payload")
	}
	return a
}

// Kind returns the element kind.
func (a *Array) Kind() ElemKind { return a.kind }

// ItemSize returns the element width in bytes.
func (a *Array) ItemSize() int { return a.kind.ItemSize() }

// Len returns the element count.
func (a *Array) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data) / a.kind.ItemSize()
}

// Exports returns the live buffer-view count.
func (a *Array) Exports() int64 {
	return a.exports.Load()
}

// lockResize takes the write lock and verifies no buffer views are live.
// The counter must be read after the lock is held: a releasing view and a
// resizer racing must not both win.
func (a *Array) lockResize() (unlock func(), err error) {
	a.mu.Lock()
	if a.exports.Load() != 0 {
		a.mu.Unlock()
		return nil, ErrResizeConflict
	}
	return a.mu.Unlock, nil
}

func (a *Array) elem(i int) []byte {
	isz := a.kind.ItemSize()
	return a.data[i*isz : (i+1)*isz]
}

func (a *Array) lenLocked() int {
	return len(a.data) / a.kind.ItemSize()
}

// ---------------------------------------------------------------------------
// Element operations
// ---------------------------------------------------------------------------

// Get decodes the element at index i. Negative indices count from the
// end.
func (a *Array) Get(ctx *Context, i int) (Value, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := a.lenLocked()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return Value{}, NewIndexError("array index out of range")
	}
	return a.kind.decodeElem(ctx, a.elem(i)), nil
}

// Set encodes v into the element at index i. Element writes do not
// resize, so they stay legal while buffer views are live.
func (a *Array) Set(ctx *Context, i int, v Value) error {
	var scratch [8]byte
	buf := scratch[:a.kind.ItemSize()]
	if err := a.kind.encodeElem(ctx, v, buf); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.lenLocked()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return NewIndexError("array assignment index out of range")
	}
	copy(a.elem(i), buf)
	return nil
}

// Append adds one element. Conversion happens before the buffer is
// touched, so a failed conversion leaves the array unchanged.
func (a *Array) Append(ctx *Context, v Value) error {
	var scratch [8]byte
	buf := scratch[:a.kind.ItemSize()]
	if err := a.kind.encodeElem(ctx, v, buf); err != nil {
		return err
	}
	unlock, err := a.lockResize()
	if err != nil {
		return err
	}
	defer unlock()
	a.data = append(a.data, buf...)
	return nil
}

// Insert places an element before index i, clamping i into range.
func (a *Array) Insert(ctx *Context, i int, v Value) error {
	var scratch [8]byte
	isz := a.kind.ItemSize()
	buf := scratch[:isz]
	if err := a.kind.encodeElem(ctx, v, buf); err != nil {
		return err
	}
	unlock, err := a.lockResize()
	if err != nil {
		return err
	}
	defer unlock()
	n := a.lenLocked()
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}
	off := i * isz
	a.data = append(a.data, buf...)
	copy(a.data[off+isz:], a.data[off:len(a.data)-isz])
	copy(a.data[off:off+isz], buf)
	return nil
}

// Pop removes and returns the element at index i (default last).
func (a *Array) Pop(ctx *Context, i int) (Value, error) {
	unlock, err := a.lockResize()
	if err != nil {
		return Value{}, err
	}
	defer unlock()
	n := a.lenLocked()
	if n == 0 {
		return Value{}, NewIndexError("pop from empty array")
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return Value{}, NewIndexError("pop index out of range")
	}
	out := a.kind.decodeElem(ctx, a.elem(i))
	a.removeAtLocked(i)
	return out, nil
}

func (a *Array) removeAtLocked(i int) {
	isz := a.kind.ItemSize()
	off := i * isz
	a.data = append(a.data[:off], a.data[off+isz:]...)
}

// Remove deletes the first element equal to v.
func (a *Array) Remove(ctx *Context, v Value) error {
	unlock, err := a.lockResize()
	if err != nil {
		return err
	}
	defer unlock()
	for i, n := 0, a.lenLocked(); i < n; i++ {
		eq, err := ctx.Equal(a.kind.decodeElem(ctx, a.elem(i)), v)
		if err != nil {
			return err
		}
		if eq {
			a.removeAtLocked(i)
			return nil
		}
	}
	return NewValueError("array.remove(x): x not in array")
}

// Index returns the position of the first element equal to v within
// [start, stop); negative bounds count from the end.
func (a *Array) Index(ctx *Context, v Value, start, stop int) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := a.lenLocked()
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop > n {
		stop = n
	}
	for i := start; i < stop; i++ {
		eq, err := ctx.Equal(a.kind.decodeElem(ctx, a.elem(i)), v)
		if err != nil {
			return 0, err
		}
		if eq {
			return i, nil
		}
	}
	return 0, NewValueError("array.index(x): x not in array")
}

// Count returns how many elements equal v.
func (a *Array) Count(ctx *Context, v Value) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	count := 0
	for i, n := 0, a.lenLocked(); i < n; i++ {
		eq, err := ctx.Equal(a.kind.decodeElem(ctx, a.elem(i)), v)
		if err != nil {
			return 0, err
		}
		if eq {
			count++
		}
	}
	return count, nil
}

// Reverse flips the element order in place. Not a resize; legal during
// export.
func (a *Array) Reverse() {
	a.mu.Lock()
	defer a.mu.Unlock()
	isz := a.kind.ItemSize()
	var tmp [8]byte
	t := tmp[:isz]
	for i, j := 0, a.lenLocked()-1; i < j; i, j = i+1, j-1 {
		copy(t, a.elem(i))
		copy(a.elem(i), a.elem(j))
		copy(a.elem(j), t)
	}
}

// ByteSwap reverses the byte order of every element in place.
func (a *Array) ByteSwap() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, n := 0, a.lenLocked(); i < n; i++ {
		a.kind.swapElem(a.elem(i))
	}
}

// ---------------------------------------------------------------------------
// Bulk operations
// ---------------------------------------------------------------------------

// encodeAll converts values into a fresh element buffer; nothing is
// committed on failure.
func (a *Array) encodeAll(ctx *Context, items []Value) ([]byte, error) {
	isz := a.kind.ItemSize()
	buf := make([]byte, len(items)*isz)
	for i, v := range items {
		if err := a.kind.encodeElem(ctx, v, buf[i*isz:(i+1)*isz]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// ExtendFromValues appends converted values, all-or-nothing.
func (a *Array) ExtendFromValues(ctx *Context, items []Value) error {
	buf, err := a.encodeAll(ctx, items)
	if err != nil {
		return err
	}
	unlock, err := a.lockResize()
	if err != nil {
		return err
	}
	defer unlock()
	a.data = append(a.data, buf...)
	return nil
}

// Extend appends another value: a same-kind array copies raw bytes, any
// other iterable goes through element conversion.
func (a *Array) Extend(ctx *Context, other Value) error {
	if o, ok := AsArray(other); ok {
		if o.kind != a.kind {
			return NewTypeError("can only extend with array of same kind")
		}
		var raw []byte
		if o == a {
			a.mu.RLock()
			raw = append([]byte(nil), a.data...)
			a.mu.RUnlock()
		} else {
			o.mu.RLock()
			raw = append([]byte(nil), o.data...)
			o.mu.RUnlock()
		}
		unlock, err := a.lockResize()
		if err != nil {
			return err
		}
		defer unlock()
		a.data = append(a.data, raw...)
		return nil
	}
	items, err := ctx.Collect(other)
	if err != nil {
		return err
	}
	return a.ExtendFromValues(ctx, items)
}

// FromBytes appends machine-format bytes.
func (a *Array) FromBytes(b []byte) error {
	if len(b)%a.kind.ItemSize() != 0 {
		return NewValueError("bytes length not a multiple of item size")
	}
	unlock, err := a.lockResize()
	if err != nil {
		return err
	}
	defer unlock()
	a.data = append(a.data, b...)
	return nil
}

// ToBytes returns a copy of the raw buffer.
func (a *Array) ToBytes() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]byte(nil), a.data...)
}

// ToValues decodes every element.
func (a *Array) ToValues(ctx *Context) []Value {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := a.lenLocked()
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		out[i] = a.kind.decodeElem(ctx, a.elem(i))
	}
	return out
}

// FromText appends the code points of s to a code-point array.
func (a *Array) FromText(ctx *Context, s string) error {
	if a.kind != KindCodePoint {
		return NewValueError("fromunicode() may only be called on unicode type arrays")
	}
	runes := []rune(s)
	values := make([]Value, len(runes))
	for i, r := range runes {
		values[i] = ctx.NewStr(string(r))
	}
	return a.ExtendFromValues(ctx, values)
}

// ToText renders a code-point array as text.
func (a *Array) ToText() (string, error) {
	if a.kind != KindCodePoint {
		return "", NewValueError("tounicode() may only be called on unicode type arrays")
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	var sb strings.Builder
	for i, n := 0, a.lenLocked(); i < n; i++ {
		u := uint32(a.elem(i)[0]) | uint32(a.elem(i)[1])<<8 | uint32(a.elem(i)[2])<<16 | uint32(a.elem(i)[3])<<24
		if !validRune(u) {
			return "", NewUnicodeError("character U+%08x is not in range [U+0000; U+10ffff]", u)
		}
		sb.WriteRune(rune(u))
	}
	return sb.String(), nil
}

// BufferInfo reports the buffer address and element count.
func (a *Array) BufferInfo() (uintptr, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var addr uintptr
	if len(a.data) > 0 {
		addr = uintptr(unsafe.Pointer(unsafe.SliceData(a.data)))
	}
	return addr, a.lenLocked()
}

// Copy returns an independent array with the same kind and contents.
func (a *Array) Copy() *Array {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return &Array{kind: a.kind, data: append([]byte(nil), a.data...)}
}

// ---------------------------------------------------------------------------
// Slicing
// ---------------------------------------------------------------------------

// GetSlice projects a slice into a new array of the same kind.
func (a *Array) GetSlice(ctx *Context, s *Slice) (*Array, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	isz := a.kind.ItemSize()
	start, _, step, count, err := s.Indices(a.lenLocked())
	if err != nil {
		return nil, err
	}
	out := &Array{kind: a.kind, data: make([]byte, 0, count*isz)}
	for i, idx := 0, start; i < count; i, idx = i+1, idx+step {
		out.data = append(out.data, a.elem(idx)...)
	}
	return out, nil
}

// SetSlice assigns a same-kind array into a slice. A unit-step slice may
// change the length (a resize); an extended slice requires matching
// sizes and writes in place.
func (a *Array) SetSlice(ctx *Context, s *Slice, value Value) error {
	src, ok := AsArray(value)
	if !ok {
		return NewTypeError("can only assign array (not %q) to array slice", ctx.TypeName(value))
	}
	if src.kind != a.kind {
		return NewTypeError("bad argument type for built-in operation")
	}
	var raw []byte
	if src == a {
		a.mu.RLock()
		raw = append([]byte(nil), a.data...)
		a.mu.RUnlock()
	} else {
		src.mu.RLock()
		raw = append([]byte(nil), src.data...)
		src.mu.RUnlock()
	}
	isz := a.kind.ItemSize()
	srcCount := len(raw) / isz

	rawStart, rawStop, step, err := s.Unpack()
	if err != nil {
		return err
	}
	if step == 1 {
		unlock, lockErr := a.lockResize()
		if lockErr != nil {
			// An in-place write is still legal while exported.
			a.mu.Lock()
			defer a.mu.Unlock()
			start, _, count := AdjustIndices(a.lenLocked(), rawStart, rawStop, step)
			if count != srcCount {
				return lockErr
			}
			copy(a.data[start*isz:(start+count)*isz], raw)
			return nil
		}
		defer unlock()
		start, _, count := AdjustIndices(a.lenLocked(), rawStart, rawStop, step)
		tail := append([]byte(nil), a.data[(start+count)*isz:]...)
		a.data = append(a.data[:start*isz], raw...)
		a.data = append(a.data, tail...)
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	start, _, count := AdjustIndices(a.lenLocked(), rawStart, rawStop, step)
	if count != srcCount {
		return NewValueError("attempt to assign array of size %d to extended slice of size %d", srcCount, count)
	}
	for i, idx := 0, start; i < count; i, idx = i+1, idx+step {
		copy(a.elem(idx), raw[i*isz:(i+1)*isz])
	}
	return nil
}

// DelSlice removes the sliced elements.
func (a *Array) DelSlice(ctx *Context, s *Slice) error {
	rawStart, rawStop, step, err := s.Unpack()
	if err != nil {
		return err
	}
	unlock, err := a.lockResize()
	if err != nil {
		return err
	}
	defer unlock()
	isz := a.kind.ItemSize()
	start, _, count := AdjustIndices(a.lenLocked(), rawStart, rawStop, step)
	if count == 0 {
		return nil
	}
	if step < 0 {
		start = start + (count-1)*step
		step = -step
	}
	kept := a.data[:start*isz]
	next := start
	removed := 0
	for i := start; i < a.lenLocked(); i++ {
		if removed < count && i == next {
			next += step
			removed++
			continue
		}
		kept = append(kept, a.elem(i)...)
	}
	a.data = kept
	return nil
}

// DelAt removes the element at index i.
func (a *Array) DelAt(i int) error {
	unlock, err := a.lockResize()
	if err != nil {
		return err
	}
	defer unlock()
	n := a.lenLocked()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return NewIndexError("array assignment index out of range")
	}
	a.removeAtLocked(i)
	return nil
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

// compareArrays orders two arrays lexicographically. Same-kind pairs
// compare raw elements; mixed kinds fall back to generic element
// comparison.
func compareArrays(ctx *Context, a, b *Array, op CompareOp) (Value, error) {
	av := a.ToValues(ctx)
	bv := b.ToValues(ctx)
	if op == OpEq || op == OpNe {
		eq := len(av) == len(bv)
		if eq && a.kind == b.kind {
			ar, br := a.ToBytes(), b.ToBytes()
			isz := a.kind.ItemSize()
			for i := range av {
				if !a.kind.sameElem(ar[i*isz:(i+1)*isz], br[i*isz:(i+1)*isz]) {
					eq = false
					break
				}
			}
		} else if eq {
			for i := range av {
				same, err := ctx.Equal(av[i], bv[i])
				if err != nil {
					return Value{}, err
				}
				if !same {
					eq = false
					break
				}
			}
		}
		if op == OpNe {
			eq = !eq
		}
		return FromBool(eq), nil
	}
	n := len(av)
	if len(bv) < n {
		n = len(bv)
	}
	for i := 0; i < n; i++ {
		same, err := ctx.Equal(av[i], bv[i])
		if err != nil {
			return Value{}, err
		}
		if same {
			continue
		}
		return ctx.RichCompare(av[i], bv[i], op)
	}
	ord := 0
	switch {
	case len(av) < len(bv):
		ord = -1
	case len(av) > len(bv):
		ord = 1
	}
	return FromBool(op.EvalOrd(ord)), nil
}

// ---------------------------------------------------------------------------
// repr
// ---------------------------------------------------------------------------

func arrayRepr(ctx *Context, self Value) (string, error) {
	a := arrayPayload(self)
	code := a.kind.String()
	if a.Len() == 0 {
		return "array(" + "'" + code + "')", nil
	}
	if a.kind == KindCodePoint {
		text, err := a.ToText()
		if err != nil {
			return "", err
		}
		return "array('" + code + "', '" + text + "')", nil
	}
	var sb strings.Builder
	sb.WriteString("array('")
	sb.WriteString(code)
	sb.WriteString("', [")
	for i, v := range a.ToValues(ctx) {
		if i > 0 {
			sb.WriteString(", ")
		}
		r, err := ctx.Repr(v)
		if err != nil {
			return "", err
		}
		sb.WriteString(r)
	}
	sb.WriteString("])")
	return sb.String(), nil
}
