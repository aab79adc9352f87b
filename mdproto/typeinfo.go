package mdproto

import (
	"fmt"

	"github.com/ozontech/lumina/wire"
)

// TypeInfo is the body of a TYPE_INFO record. For FUNC_DEF descriptors Func
// holds the decoded prefix, for any other kind Rest holds the bytes after Type.
type TypeInfo struct {
	Unk  uint8
	Type TInfoType
	Func *FuncDef
	Rest []byte
}

func (*TypeInfo) Cmd() Cmd { return CmdTypeInfo }

func (t *TypeInfo) Unmarshal(b []byte) (err error) {
	r := wire.NewReader(b)
	if t.Unk, err = r.Uint8(); err != nil {
		return fmt.Errorf("unk: %w", err)
	}
	typ, err := r.DD()
	if err != nil {
		return fmt.Errorf("type: %w", err)
	}
	t.Type = TInfoType(typ)
	if t.Type != TInfoFuncDef {
		t.Func = nil
		t.Rest = r.Rest()
		return nil
	}
	t.Func = new(FuncDef)
	t.Rest = nil
	return t.Func.unmarshalFrom(r)
}

func (t *TypeInfo) MarshalAppend(b []byte) ([]byte, error) {
	w := wire.NewWriter(b)
	w.Uint8(t.Unk)
	w.DD(uint32(t.Type))
	if t.Func != nil {
		if t.Type != TInfoFuncDef {
			return b, fmt.Errorf("type info of kind %s carries a function descriptor", t.Type)
		}
		t.Func.marshalTo(w)
	} else {
		w.Raw(t.Rest)
	}
	if err := w.Err(); err != nil {
		return b, err
	}
	return w.Bytes(), nil
}

// FuncDef is the known prefix of a function type descriptor. The layout of
// the argument descriptors which follow Argc is not known, they are kept
// undecoded in Tail.
type FuncDef struct {
	Flags      uint8
	ReturnType BaseType
	Argc       uint32
	Tail       []byte
}

// CallingConv returns the calling convention stored in the high nibble of Flags.
func (f *FuncDef) CallingConv() CallingConv { return CallingConv(f.Flags >> 4) }

// ArgsDecoded reports whether the argument list was decoded. It never is.
func (f *FuncDef) ArgsDecoded() bool { return false }

func (f *FuncDef) unmarshalFrom(r *wire.Reader) (err error) {
	if f.Flags, err = r.Uint8(); err != nil {
		return fmt.Errorf("func flags: %w", err)
	}
	ret, err := r.DD()
	if err != nil {
		return fmt.Errorf("return type: %w", err)
	}
	f.ReturnType = BaseType(ret)
	if f.Argc, err = r.DD(); err != nil {
		return fmt.Errorf("argc: %w", err)
	}
	f.Tail = r.Rest()
	return nil
}

func (f *FuncDef) marshalTo(w *wire.Writer) {
	w.Uint8(f.Flags)
	w.DD(uint32(f.ReturnType))
	w.DD(f.Argc)
	w.Raw(f.Tail)
}
