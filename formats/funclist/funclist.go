// Package funclist reads and writes the function lists exchanged with the
// host application: one JSON object per line.
//
//	{"address":4198400,"signature":"q80=","resolved":true,"name":"main","size":16,"data":"AQA=","popularity":1}
//
// signature and data are base64. Unresolved functions carry only address and
// signature.
package funclist

import (
	"fmt"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"

	"github.com/ozontech/lumina/reconcile"
	"github.com/ozontech/lumina/rpc"
)

type Function struct {
	Address   uint64
	Signature []byte

	Resolved   bool
	Name       string
	Size       uint32
	Data       []byte
	Popularity uint32
}

func (f *Function) Reset() { *f = Function{} }

func MarshalAppend(b []byte, f *Function) ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`{"address":`)
	w.Uint64(f.Address)
	w.RawString(`,"signature":`)
	w.Base64Bytes(nonNil(f.Signature))
	if f.Resolved {
		w.RawString(`,"resolved":true,"name":`)
		w.String(f.Name)
		w.RawString(`,"size":`)
		w.Uint32(f.Size)
		w.RawString(`,"data":`)
		w.Base64Bytes(nonNil(f.Data))
		w.RawString(`,"popularity":`)
		w.Uint32(f.Popularity)
	}
	w.RawByte('}')
	out, err := w.BuildBytes()
	if err != nil {
		return b, err
	}
	return append(b, out...), nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func Unmarshal(f *Function, b []byte) error {
	f.Reset()
	in := jlexer.Lexer{Data: b}

	hasSignature := false
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "address":
			f.Address = in.Uint64()
		case "signature":
			f.Signature = in.Bytes()
			hasSignature = true
		case "resolved":
			f.Resolved = in.Bool()
		case "name":
			f.Name = in.String()
		case "size":
			f.Size = in.Uint32()
		case "data":
			f.Data = in.Bytes()
		case "popularity":
			f.Popularity = in.Uint32()
		default:
			return fmt.Errorf("unknown field: %s", key)
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()

	if err := in.Error(); err != nil {
		return err
	}
	if !hasSignature {
		return fmt.Errorf(`"signature" is required`)
	}
	return nil
}

// Scope turns fs into pull entries, resolved functions keep their metadata.
func Scope(fs []Function) []reconcile.Entry {
	scope := make([]reconcile.Entry, len(fs))
	for i := range fs {
		scope[i].Signature = rpc.NewSignature(fs[i].Signature)
		if fs[i].Resolved {
			info := fs[i].info()
			scope[i].Metadata = &info
		}
	}
	return scope
}

// Apply returns a copy of fs updated with the metadata of scope, which must
// be parallel to fs.
func Apply(fs []Function, scope []reconcile.Entry) ([]Function, error) {
	if len(fs) != len(scope) {
		return nil, fmt.Errorf("%d functions for %d scope entries", len(fs), len(scope))
	}
	out := make([]Function, len(fs))
	copy(out, fs)
	for i, e := range scope {
		if e.Metadata == nil {
			continue
		}
		md := e.Metadata.Metadata
		out[i].Resolved = true
		out[i].Name = md.Name
		out[i].Size = md.Size
		out[i].Data = md.Data
		out[i].Popularity = e.Metadata.Popularity
	}
	return out, nil
}

// Records selects the resolved functions of fs for a push.
func Records(fs []Function) (records []rpc.FuncMD, addresses []uint64) {
	for i := range fs {
		if !fs[i].Resolved {
			continue
		}
		records = append(records, rpc.FuncMD{
			Metadata:  fs[i].info().Metadata,
			Signature: rpc.NewSignature(fs[i].Signature),
		})
		addresses = append(addresses, fs[i].Address)
	}
	return records, addresses
}

func (f *Function) info() rpc.FuncInfo {
	return rpc.FuncInfo{
		Metadata:   rpc.FuncMetadata{Name: f.Name, Size: f.Size, Data: nonNil(f.Data)},
		Popularity: f.Popularity,
	}
}
