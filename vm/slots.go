package vm

import "sync/atomic"

// ---------------------------------------------------------------------------
// Operation slots
// ---------------------------------------------------------------------------

// CompareOp identifies a rich-comparison operation.
type CompareOp int

const (
	OpLt CompareOp = iota
	OpLe
	OpEq
	OpNe
	OpGt
	OpGe
)

func (op CompareOp) String() string {
	switch op {
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Swapped returns the operation with operands exchanged.
func (op CompareOp) Swapped() CompareOp {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

// EvalOrd applies the operation to a three-way comparison result
// (negative, zero, positive).
func (op CompareOp) EvalOrd(ord int) bool {
	switch op {
	case OpLt:
		return ord < 0
	case OpLe:
		return ord <= 0
	case OpEq:
		return ord == 0
	case OpNe:
		return ord != 0
	case OpGt:
		return ord > 0
	case OpGe:
		return ord >= 0
	default:
		return false
	}
}

// Slot function signatures. Compare returns NotImplemented when the
// receiver does not understand the operand, letting dispatch try the
// reflected operation.
type (
	NewFunc      func(ctx *Context, class *Class, args []Value) (Value, error)
	InitFunc     func(ctx *Context, self Value, args []Value) error
	ReprFunc     func(ctx *Context, self Value) (string, error)
	HashFunc     func(ctx *Context, self Value) (uint64, error)
	CompareFunc  func(ctx *Context, self, other Value, op CompareOp) (Value, error)
	IterFunc     func(ctx *Context, self Value) (Value, error)
	IterNextFunc func(ctx *Context, self Value) (item Value, ok bool, err error)
	AsBufferFunc func(ctx *Context, self Value) (*BufferView, error)
)

// SequenceMethods is the static method table behind the sequence protocol
// slot. Tables are composed once at setup and never mutated afterward.
type SequenceMethods struct {
	Length func(ctx *Context, self Value) (int, error)
	Concat func(ctx *Context, self, other Value) (Value, error)
	Repeat func(ctx *Context, self Value, n int) (Value, error)
	Item   func(ctx *Context, self Value, i int) (Value, error)
	// AssignItem deletes when value is the invalid Value.
	AssignItem    func(ctx *Context, self Value, i int, value Value) error
	Contains      func(ctx *Context, self, needle Value) (bool, error)
	InplaceConcat func(ctx *Context, self, other Value) (Value, error)
	InplaceRepeat func(ctx *Context, self Value, n int) (Value, error)
}

// MappingMethods is the static method table behind the mapping protocol
// slot.
type MappingMethods struct {
	Length    func(ctx *Context, self Value) (int, error)
	Subscript func(ctx *Context, self, needle Value) (Value, error)
	// AssignSubscript deletes when value is the invalid Value.
	AssignSubscript func(ctx *Context, self, needle, value Value) error
}

// NumberMethods is the static method table behind the number protocol
// slot. Binary entries return NotImplemented for foreign operands.
type NumberMethods struct {
	Add      func(ctx *Context, a, b Value) (Value, error)
	Subtract func(ctx *Context, a, b Value) (Value, error)
	Multiply func(ctx *Context, a, b Value) (Value, error)
	Negative func(ctx *Context, v Value) (Value, error)
	Bool     func(ctx *Context, v Value) (bool, error)
}

// SlotTable is a class's fixed-layout operation dispatch table.
//
// Plain slots are written with ordinary stores during single-threaded
// class setup. The three protocol groups are published through atomic
// pointers so a reader racing a late capability install observes either
// no table or a fully built one. AsBuffer is the documented exception:
// it stays a plain field like the simple slots even though it is a
// protocol entry point.
type SlotTable struct {
	New      NewFunc
	Init     InitFunc
	Repr     ReprFunc
	Hash     HashFunc
	Compare  CompareFunc
	Iter     IterFunc
	IterNext IterNextFunc
	AsBuffer AsBufferFunc

	asSequence atomic.Pointer[SequenceMethods]
	asMapping  atomic.Pointer[MappingMethods]
	asNumber   atomic.Pointer[NumberMethods]
}

// StoreSequence publishes the sequence protocol table. Last write wins.
func (s *SlotTable) StoreSequence(m *SequenceMethods) { s.asSequence.Store(m) }

// Sequence returns the published sequence table, or nil.
func (s *SlotTable) Sequence() *SequenceMethods { return s.asSequence.Load() }

// StoreMapping publishes the mapping protocol table. Last write wins.
func (s *SlotTable) StoreMapping(m *MappingMethods) { s.asMapping.Store(m) }

// Mapping returns the published mapping table, or nil.
func (s *SlotTable) Mapping() *MappingMethods { return s.asMapping.Load() }

// StoreNumber publishes the number protocol table. Last write wins.
func (s *SlotTable) StoreNumber(m *NumberMethods) { s.asNumber.Store(m) }

// Number returns the published number table, or nil.
func (s *SlotTable) Number() *NumberMethods { return s.asNumber.Load() }
