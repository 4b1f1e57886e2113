package vm

import "math"

// ---------------------------------------------------------------------------
// array type registration
// ---------------------------------------------------------------------------

var arrayBufferMethods = BufferMethods{
	Bytes: func(exporter Value) []byte {
		a := arrayPayload(exporter)
		a.mu.RLock()
		defer a.mu.RUnlock()
		return a.data
	},
	BytesMut: func(exporter Value) []byte {
		a := arrayPayload(exporter)
		a.mu.RLock()
		defer a.mu.RUnlock()
		return a.data
	},
	Retain: func(exporter Value) {
		arrayPayload(exporter).exports.Add(1)
	},
	Release: func(exporter Value) {
		arrayPayload(exporter).exports.Add(-1)
	},
}

func arrayNew(ctx *Context, class *Class, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, NewTypeError("array() takes 1 to 2 arguments (%d given)", len(args))
	}
	code, ok := AsStr(args[0])
	if !ok {
		return Value{}, NewTypeError("array() argument 1 must be a unicode character, not %s", ctx.TypeName(args[0]))
	}
	if code.Len() != 1 {
		return Value{}, NewTypeError("array() argument 1 must be a unicode character, not a string of length %d", code.Len())
	}
	kind, err := KindForCode(code.String()[0])
	if err != nil {
		return Value{}, err
	}
	a := NewArray(kind)
	self := FromObject(NewObject(class, a))
	if len(args) == 2 && args[1].IsValid() {
		if err := arraySeed(ctx, a, args[1]); err != nil {
			return Value{}, err
		}
	}
	return self, nil
}

// arraySeed fills a fresh array from a constructor initializer.
func arraySeed(ctx *Context, a *Array, init Value) error {
	if s, ok := AsStr(init); ok {
		if a.Kind() != KindCodePoint {
			return NewTypeError("cannot use a str to initialize an array with typecode %q", a.Kind().String())
		}
		return a.FromText(ctx, s.String())
	}
	if b, ok := AsBytes(init); ok {
		return a.FromBytes(b.Bytes())
	}
	if o, ok := AsArray(init); ok && o.Kind() != a.Kind() {
		// Cross-kind seeding converts element by element instead of
		// taking Extend's raw-bytes same-kind path.
		return a.ExtendFromValues(ctx, o.ToValues(ctx))
	}
	return a.Extend(ctx, init)
}

var arraySequenceMethods = SequenceMethods{
	Length: func(ctx *Context, self Value) (int, error) {
		return arrayPayload(self).Len(), nil
	},
	Item: func(ctx *Context, self Value, i int) (Value, error) {
		return arrayPayload(self).Get(ctx, i)
	},
	AssignItem: func(ctx *Context, self Value, i int, value Value) error {
		a := arrayPayload(self)
		if !value.IsValid() {
			return a.DelAt(i)
		}
		return a.Set(ctx, i, value)
	},
	Contains: func(ctx *Context, self, needle Value) (bool, error) {
		a := arrayPayload(self)
		for _, v := range a.ToValues(ctx) {
			eq, err := ctx.Equal(v, needle)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	},
	Concat: func(ctx *Context, self, other Value) (Value, error) {
		a := arrayPayload(self)
		o, ok := AsArray(other)
		if !ok {
			return Value{}, NewTypeError("can only append array (not %q) to array", ctx.TypeName(other))
		}
		if o.Kind() != a.Kind() {
			return Value{}, NewTypeError("bad argument type for built-in operation")
		}
		out := a.Copy()
		if err := out.FromBytes(o.ToBytes()); err != nil {
			return Value{}, err
		}
		return FromObject(NewObject(ctx.Types.Array, out)), nil
	},
	Repeat: func(ctx *Context, self Value, n int) (Value, error) {
		a := arrayPayload(self)
		out := NewArray(a.Kind())
		raw := a.ToBytes()
		for i := 0; i < n; i++ {
			out.data = append(out.data, raw...)
		}
		return FromObject(NewObject(ctx.Types.Array, out)), nil
	},
	InplaceConcat: func(ctx *Context, self, other Value) (Value, error) {
		a := arrayPayload(self)
		o, ok := AsArray(other)
		if !ok {
			return Value{}, NewTypeError("can only extend array with array (not %q)", ctx.TypeName(other))
		}
		if o.Kind() != a.Kind() {
			return Value{}, NewTypeError("can only extend with array of same kind")
		}
		if err := a.Extend(ctx, other); err != nil {
			return Value{}, err
		}
		return self, nil
	},
	InplaceRepeat: func(ctx *Context, self Value, n int) (Value, error) {
		a := arrayPayload(self)
		raw := a.ToBytes()
		unlock, err := a.lockResize()
		if err != nil {
			return Value{}, err
		}
		defer unlock()
		if n <= 0 {
			a.data = a.data[:0]
			return self, nil
		}
		for i := 1; i < n; i++ {
			a.data = append(a.data, raw...)
		}
		return self, nil
	},
}

var arrayMappingMethods = MappingMethods{
	Length: func(ctx *Context, self Value) (int, error) {
		return arrayPayload(self).Len(), nil
	},
	Subscript: func(ctx *Context, self, needle Value) (Value, error) {
		a := arrayPayload(self)
		if s, ok := AsSlice(needle); ok {
			out, err := a.GetSlice(ctx, s)
			if err != nil {
				return Value{}, err
			}
			return FromObject(NewObject(ctx.Types.Array, out)), nil
		}
		i, err := AsIndex(needle, "array")
		if err != nil {
			return Value{}, err
		}
		return a.Get(ctx, i)
	},
	AssignSubscript: func(ctx *Context, self, needle, value Value) error {
		a := arrayPayload(self)
		if s, ok := AsSlice(needle); ok {
			if !value.IsValid() {
				return a.DelSlice(ctx, s)
			}
			return a.SetSlice(ctx, s, value)
		}
		i, err := AsIndex(needle, "array")
		if err != nil {
			return err
		}
		if !value.IsValid() {
			return a.DelAt(i)
		}
		return a.Set(ctx, i, value)
	},
}

func arrayCompare(ctx *Context, self, other Value, op CompareOp) (Value, error) {
	o, ok := AsArray(other)
	if !ok {
		return NotImplemented, nil
	}
	return compareArrays(ctx, arrayPayload(self), o, op)
}

func newArrayIterator(ctx *Context, self Value) Value {
	return FromObject(NewObject(ctx.Types.ArrayIterator, &positionIter{seq: self}))
}

func registerArrayType(ctx *Context) {
	NewTypeDef("array").
		WithModule("array").
		WithDoc("A homogeneous array of fixed-width numeric elements.").
		AddGetter("typecode", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewStr(arrayPayload(self).Kind().String()), nil
		}).
		AddGetter("itemsize", func(ctx *Context, self Value) (Value, error) {
			return FromInt(int64(arrayPayload(self).ItemSize())), nil
		}).
		AddMethod(Method1("append", func(ctx *Context, self, v Value) (Value, error) {
			return None, arrayPayload(self).Append(ctx, v)
		})).
		AddMethod(Method2("insert", func(ctx *Context, self, idx, v Value) (Value, error) {
			i, err := AsIndex(idx, "array")
			if err != nil {
				return Value{}, err
			}
			return None, arrayPayload(self).Insert(ctx, i, v)
		})).
		AddMethod(MethodVar("pop", 0, 1, func(ctx *Context, self Value, args []Value) (Value, error) {
			i := -1
			if args[0].IsValid() {
				var err error
				i, err = AsIndex(args[0], "array")
				if err != nil {
					return Value{}, err
				}
			}
			return arrayPayload(self).Pop(ctx, i)
		})).
		AddMethod(Method1("remove", func(ctx *Context, self, v Value) (Value, error) {
			return None, arrayPayload(self).Remove(ctx, v)
		})).
		AddMethod(Method1("extend", func(ctx *Context, self, other Value) (Value, error) {
			return None, arrayPayload(self).Extend(ctx, other)
		})).
		AddMethod(Method1("count", func(ctx *Context, self, v Value) (Value, error) {
			n, err := arrayPayload(self).Count(ctx, v)
			if err != nil {
				return Value{}, err
			}
			return FromInt(int64(n)), nil
		})).
		AddMethod(MethodVar("index", 1, 3, func(ctx *Context, self Value, args []Value) (Value, error) {
			start, stop := 0, math.MaxInt
			var err error
			if args[1].IsValid() {
				if start, err = AsIndex(args[1], "array"); err != nil {
					return Value{}, err
				}
			}
			if args[2].IsValid() {
				if stop, err = AsIndex(args[2], "array"); err != nil {
					return Value{}, err
				}
			}
			i, err := arrayPayload(self).Index(ctx, args[0], start, stop)
			if err != nil {
				return Value{}, err
			}
			return FromInt(int64(i)), nil
		})).
		AddMethod(Method0("reverse", func(ctx *Context, self Value) (Value, error) {
			arrayPayload(self).Reverse()
			return None, nil
		})).
		AddMethod(Method0("byteswap", func(ctx *Context, self Value) (Value, error) {
			arrayPayload(self).ByteSwap()
			return None, nil
		})).
		AddMethod(Method0("tobytes", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewBytes(arrayPayload(self).ToBytes()), nil
		})).
		AddMethod(Method1("frombytes", func(ctx *Context, self, v Value) (Value, error) {
			b, ok := AsBytes(v)
			if !ok {
				return Value{}, NewTypeError("a bytes-like object is required, not %q", ctx.TypeName(v))
			}
			return None, arrayPayload(self).FromBytes(b.Bytes())
		})).
		AddMethod(Method0("tolist", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewList(arrayPayload(self).ToValues(ctx)), nil
		})).
		AddMethod(Method1("fromlist", func(ctx *Context, self, v Value) (Value, error) {
			l, ok := AsList(v)
			if !ok {
				return Value{}, NewTypeError("arg must be list")
			}
			return None, arrayPayload(self).ExtendFromValues(ctx, l.Items())
		})).
		AddMethod(Method0("tounicode", func(ctx *Context, self Value) (Value, error) {
			s, err := arrayPayload(self).ToText()
			if err != nil {
				return Value{}, err
			}
			return ctx.NewStr(s), nil
		})).
		AddMethod(Method1("fromunicode", func(ctx *Context, self, v Value) (Value, error) {
			s, ok := AsStr(v)
			if !ok {
				return Value{}, NewTypeError("fromunicode() argument must be str, not %s", ctx.TypeName(v))
			}
			return None, arrayPayload(self).FromText(ctx, s.String())
		})).
		AddMethod(Method1("tofile", func(ctx *Context, self, f Value) (Value, error) {
			return None, arrayPayload(self).ToFile(fileWriter{ctx, f})
		})).
		AddMethod(Method2("fromfile", func(ctx *Context, self, f, n Value) (Value, error) {
			count, err := AsIndex(n, "array")
			if err != nil {
				return Value{}, err
			}
			return None, arrayPayload(self).FromFile(fileReader{ctx, f}, count)
		})).
		AddMethod(Method0("buffer_info", func(ctx *Context, self Value) (Value, error) {
			addr, n := arrayPayload(self).BufferInfo()
			return ctx.NewList([]Value{FromInt(int64(addr)), FromInt(int64(n))}), nil
		})).
		AddNamedMethod(Method0("__copy__", func(ctx *Context, self Value) (Value, error) {
			return FromObject(NewObject(ctx.Types.Array, arrayPayload(self).Copy())), nil
		}), "__copy__", "__deepcopy__").
		With(
			Constructible(arrayNew),
			Unhashable(),
			Comparable(arrayCompare),
			Representable(arrayRepr),
			Iterable(func(ctx *Context, self Value) (Value, error) {
				return newArrayIterator(ctx, self), nil
			}),
			AsSequenceProvider(&arraySequenceMethods),
			AsMappingProvider(&arrayMappingMethods),
			AsBufferProvider(func(ctx *Context, self Value) (*BufferView, error) {
				a := arrayPayload(self)
				return NewBufferView(self, &arrayBufferMethods, a.ItemSize(), a.Kind().String(), false), nil
			}),
		).
		Realize(ctx, ctx.Types.Array)
}

func registerArrayIteratorType(ctx *Context) {
	NewTypeDef("arrayiterator").
		WithModule("array").
		AddMethod(Method0("__length_hint__", func(ctx *Context, self Value) (Value, error) {
			it := positionIterPayload(self)
			seq, pos := it.state()
			if !seq.IsValid() {
				return FromInt(0), nil
			}
			n := arrayPayload(seq).Len()
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
		Realize(ctx, ctx.Types.ArrayIterator)
}
