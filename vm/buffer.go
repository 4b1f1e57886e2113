package vm

import "sync/atomic"

// ---------------------------------------------------------------------------
// Buffer protocol
// ---------------------------------------------------------------------------

// BufferMethods is the static vtable a buffer-exporting type supplies:
// raw byte access plus export-count bookkeeping. Retain is called when a
// view is created, Release when it is dropped; the exporter uses the
// count to refuse reallocation while views are live.
type BufferMethods struct {
	Bytes    func(exporter Value) []byte
	BytesMut func(exporter Value) []byte
	Retain   func(exporter Value)
	Release  func(exporter Value)
}

// BufferView is a live view over an exporter's raw bytes. The view pins
// the exporter's length, not its contents: element writes remain visible
// through the view, length changes are refused by the exporter while the
// view is live.
type BufferView struct {
	Exporter Value
	ItemSize int
	Format   string
	ReadOnly bool

	methods  *BufferMethods
	released atomic.Bool
}

// NewBufferView creates a view and retains the exporter.
func NewBufferView(exporter Value, methods *BufferMethods, itemSize int, format string, readOnly bool) *BufferView {
	if methods.Retain != nil {
		methods.Retain(exporter)
	}
	return &BufferView{
		Exporter: exporter,
		ItemSize: itemSize,
		Format:   format,
		ReadOnly: readOnly,
		methods:  methods,
	}
}

// Bytes returns the exporter's current bytes. Using a released view is a
// programming-contract violation.
func (v *BufferView) Bytes() []byte {
	if v.released.Load() {
		panic("vm: BufferView used after Release")
	}
	return v.methods.Bytes(v.Exporter)
}

// BytesMut returns writable bytes, or an error for read-only views.
func (v *BufferView) BytesMut() ([]byte, error) {
	if v.released.Load() {
		panic("vm: BufferView used after Release")
	}
	if v.ReadOnly || v.methods.BytesMut == nil {
		return nil, NewTypeError("cannot modify read-only memory")
	}
	return v.methods.BytesMut(v.Exporter), nil
}

// Len returns the current byte length of the view.
func (v *BufferView) Len() int {
	return len(v.Bytes())
}

// Release drops the view and releases the exporter. Safe to call more
// than once; only the first call releases.
func (v *BufferView) Release() {
	if v.released.Swap(true) {
		return
	}
	if v.methods.Release != nil {
		v.methods.Release(v.Exporter)
	}
}

// Released reports whether the view has been dropped.
func (v *BufferView) Released() bool {
	return v.released.Load()
}

// GetBuffer obtains a buffer view through a value's AsBuffer slot.
func (ctx *Context) GetBuffer(v Value) (*BufferView, error) {
	if ab := ctx.ClassOf(v).Slots().AsBuffer; ab != nil {
		return ab(ctx, v)
	}
	return nil, NewTypeError("a bytes-like object is required, not %q", ctx.TypeName(v))
}
