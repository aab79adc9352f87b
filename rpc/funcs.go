package rpc

import (
	"fmt"

	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/wire"
)

// SignatureVersion is the only func_sig_t version the server speaks.
const SignatureVersion = 1

// FuncSignature identifies a function independently of its address.
type FuncSignature struct {
	Version   uint32
	Signature []byte
}

// NewSignature returns a FuncSignature with the current version.
func NewSignature(sig []byte) FuncSignature {
	return FuncSignature{Version: SignatureVersion, Signature: sig}
}

func (s *FuncSignature) marshalTo(w *wire.Writer) {
	w.DD(s.Version)
	w.Buff(s.Signature)
}

func (s *FuncSignature) unmarshalFrom(r *wire.Reader) (err error) {
	if s.Version, err = r.DD(); err != nil {
		return fmt.Errorf("signature version: %w", err)
	}
	if s.Version != SignatureVersion {
		return &protoerr.ProtocolViolationError{
			Reason: fmt.Sprintf("signature version %d, only %d is supported", s.Version, SignatureVersion),
		}
	}
	if s.Signature, err = r.Buff(); err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	return nil
}

// FuncMetadata is a function as known by the server. Data is a sequence of
// metadata records (see package mdproto) and is opaque at this level.
type FuncMetadata struct {
	Name string
	Size uint32
	Data []byte
}

func (m *FuncMetadata) marshalTo(w *wire.Writer) {
	w.CString(m.Name)
	w.DD(m.Size)
	w.Buff(m.Data)
}

func (m *FuncMetadata) unmarshalFrom(r *wire.Reader) (err error) {
	if m.Name, err = r.CString(); err != nil {
		return fmt.Errorf("func name: %w", err)
	}
	if m.Size, err = r.DD(); err != nil {
		return fmt.Errorf("func size: %w", err)
	}
	if m.Data, err = r.Buff(); err != nil {
		return fmt.Errorf("func data: %w", err)
	}
	return nil
}

// FuncInfo is a pull result: metadata plus the server assigned popularity.
type FuncInfo struct {
	Metadata   FuncMetadata
	Popularity uint32
}

func (f *FuncInfo) marshalTo(w *wire.Writer) {
	f.Metadata.marshalTo(w)
	w.DD(f.Popularity)
}

func (f *FuncInfo) unmarshalFrom(r *wire.Reader) error {
	if err := f.Metadata.unmarshalFrom(r); err != nil {
		return err
	}
	var err error
	if f.Popularity, err = r.DD(); err != nil {
		return fmt.Errorf("popularity: %w", err)
	}
	return nil
}

// FuncMD is the unit pushed to the server.
type FuncMD struct {
	Metadata  FuncMetadata
	Signature FuncSignature
}

func (f *FuncMD) marshalTo(w *wire.Writer) {
	f.Metadata.marshalTo(w)
	f.Signature.marshalTo(w)
}

func (f *FuncMD) unmarshalFrom(r *wire.Reader) error {
	if err := f.Metadata.unmarshalFrom(r); err != nil {
		return err
	}
	return f.Signature.unmarshalFrom(r)
}

// FuncMD2 is FuncMD followed by a dd which is always zero.
type FuncMD2 struct {
	FuncMD
}

func (f *FuncMD2) MarshalAppend(b []byte) ([]byte, error) {
	w := wire.NewWriter(b)
	f.marshalTo(w)
	w.DD(0)
	return w.Bytes(), w.Err()
}

func (f *FuncMD2) Unmarshal(b []byte) error {
	r := wire.NewReader(b)
	if err := f.unmarshalFrom(r); err != nil {
		return err
	}
	v, err := r.DD()
	if err != nil {
		return fmt.Errorf("func_md2 trailer: %w", err)
	}
	if v != 0 {
		return &protoerr.ProtocolViolationError{Reason: fmt.Sprintf("func_md2 trailer is 0x%x, want 0", v)}
	}
	return nil
}

func readList[T any](r *wire.Reader, what string, read func(*wire.Reader, *T) error) ([]T, error) {
	n, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("%s count: %w", what, err)
	}
	list := make([]T, n)
	for i := range list {
		if err := read(r, &list[i]); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", what, i, err)
		}
	}
	return list, nil
}

func readDD(r *wire.Reader, v *uint32) (err error) {
	*v, err = r.DD()
	return err
}

func readEA(r *wire.Reader, v *uint64) (err error) {
	*v, err = r.EA()
	return err
}

func writeDDs(w *wire.Writer, list []uint32) {
	w.Count(len(list))
	for _, v := range list {
		w.DD(v)
	}
}

func readSignature(r *wire.Reader, s *FuncSignature) error {
	return s.unmarshalFrom(r)
}
