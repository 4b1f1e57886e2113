package vm

import "io"

// 64 KiB write blocks keep tofile from materializing giant arrays as one
// I/O call.
const fileBlockSize = 64 * 1024

// fileWriter adapts an object exposing write(bytes) to io.Writer, for
// the tofile method.
type fileWriter struct {
	ctx *Context
	f   Value
}

func (w fileWriter) Write(p []byte) (int, error) {
	chunk := append([]byte(nil), p...)
	if _, err := w.ctx.CallMethod(w.f, "write", []Value{w.ctx.NewBytes(chunk)}); err != nil {
		return 0, err
	}
	return len(p), nil
}

// fileReader adapts an object exposing read(n) to io.Reader, for the
// fromfile method. An empty read reports EOF.
type fileReader struct {
	ctx *Context
	f   Value
}

func (r fileReader) Read(p []byte) (int, error) {
	out, err := r.ctx.CallMethod(r.f, "read", []Value{FromInt(int64(len(p)))})
	if err != nil {
		return 0, err
	}
	b, ok := AsBytes(out)
	if !ok {
		return 0, NewTypeError("read() didn't return bytes")
	}
	n := copy(p, b.Bytes())
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ToFile writes the raw buffer to w in fixed-size blocks.
func (a *Array) ToFile(w io.Writer) error {
	raw := a.ToBytes()
	for len(raw) > 0 {
		n := len(raw)
		if n > fileBlockSize {
			n = fileBlockSize
		}
		if _, err := w.Write(raw[:n]); err != nil {
			return err
		}
		raw = raw[n:]
	}
	return nil
}

// FromFile reads count elements from r and appends them. A short read
// commits the whole elements that did arrive, then reports the missing
// bytes; the partial tail element, if any, is discarded.
func (a *Array) FromFile(r io.Reader, count int) error {
	if count < 0 {
		return NewValueError("negative count")
	}
	isz := a.kind.ItemSize()
	want := count * isz
	buf := make([]byte, want)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return err
	}
	short := n < want
	n -= n % isz
	if err := a.FromBytes(buf[:n]); err != nil {
		return err
	}
	if short {
		return NewEOFError("read() didn't return enough bytes")
	}
	return nil
}
