package rpc

import (
	"encoding/binary"
	"fmt"

	"github.com/ozontech/lumina/wire"
)

// ProtocolVersion is sent in RPC_HELO and RPC_NOTIFY.
const ProtocolVersion = 2

// Message is one of the body types below. The set is closed, codes without a
// schema are represented by *Unsupported.
type Message interface {
	Code() Code
	marshalTo(w *wire.Writer)
	unmarshalFrom(r *wire.Reader) error
}

type OK struct{}

func (*OK) Code() Code                       { return CodeOK }
func (*OK) marshalTo(*wire.Writer)           {}
func (*OK) unmarshalFrom(*wire.Reader) error { return nil }

type Fail struct {
	Status  uint32
	Message string
}

func (*Fail) Code() Code { return CodeFail }

func (m *Fail) marshalTo(w *wire.Writer) {
	w.DD(m.Status)
	w.CString(m.Message)
}

func (m *Fail) unmarshalFrom(r *wire.Reader) (err error) {
	if m.Status, err = r.DD(); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if m.Message, err = r.CString(); err != nil {
		return fmt.Errorf("message: %w", err)
	}
	return nil
}

type Notify struct {
	Protocol uint32
	Message  string
}

func (*Notify) Code() Code { return CodeNotify }

func (m *Notify) marshalTo(w *wire.Writer) {
	w.DD(m.Protocol)
	w.CString(m.Message)
}

func (m *Notify) unmarshalFrom(r *wire.Reader) (err error) {
	if m.Protocol, err = r.DD(); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	if m.Message, err = r.CString(); err != nil {
		return fmt.Errorf("message: %w", err)
	}
	return nil
}

// Helo opens every session. License is the raw license file, ID and
// Watermark come from the license info and travel little endian.
type Helo struct {
	Protocol  uint32
	License   []byte
	ID        uint32
	Watermark uint16
	Reserved  uint32
}

func (*Helo) Code() Code { return CodeHelo }

func (m *Helo) marshalTo(w *wire.Writer) {
	w.DD(m.Protocol)
	w.Buff(m.License)
	w.Uint32(binary.LittleEndian, m.ID)
	w.Uint16(binary.LittleEndian, m.Watermark)
	w.DD(m.Reserved)
}

func (m *Helo) unmarshalFrom(r *wire.Reader) (err error) {
	if m.Protocol, err = r.DD(); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	if m.License, err = r.Buff(); err != nil {
		return fmt.Errorf("license: %w", err)
	}
	if m.ID, err = r.Uint32(binary.LittleEndian); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if m.Watermark, err = r.Uint16(binary.LittleEndian); err != nil {
		return fmt.Errorf("watermark: %w", err)
	}
	if m.Reserved, err = r.DD(); err != nil {
		return fmt.Errorf("reserved: %w", err)
	}
	return nil
}

type PullMD struct {
	Flags      uint32
	Unknown    []uint32
	Signatures []FuncSignature
}

func (*PullMD) Code() Code { return CodePullMD }

func (m *PullMD) marshalTo(w *wire.Writer) {
	w.DD(m.Flags)
	writeDDs(w, m.Unknown)
	w.Count(len(m.Signatures))
	for i := range m.Signatures {
		m.Signatures[i].marshalTo(w)
	}
}

func (m *PullMD) unmarshalFrom(r *wire.Reader) (err error) {
	if m.Flags, err = r.DD(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	if m.Unknown, err = readList(r, "unknown", readDD); err != nil {
		return err
	}
	m.Signatures, err = readList(r, "signatures", readSignature)
	return err
}

// PullMDResult answers PullMD. Found holds one flag per requested signature,
// zero meaning found. Results holds one record per zero flag, in order.
type PullMDResult struct {
	Found   []uint32
	Results []FuncInfo
}

func (*PullMDResult) Code() Code { return CodePullMDResult }

func (m *PullMDResult) marshalTo(w *wire.Writer) {
	writeDDs(w, m.Found)
	w.Count(len(m.Results))
	for i := range m.Results {
		m.Results[i].marshalTo(w)
	}
}

func (m *PullMDResult) unmarshalFrom(r *wire.Reader) (err error) {
	if m.Found, err = readList(r, "found", readDD); err != nil {
		return err
	}
	m.Results, err = readList(r, "results", func(r *wire.Reader, f *FuncInfo) error {
		return f.unmarshalFrom(r)
	})
	return err
}

type PushMD struct {
	Reserved  uint32
	IDBPath   string
	InputPath string
	MD5       [16]byte
	Hostname  string
	Records   []FuncMD
	Addresses []uint64
}

func (*PushMD) Code() Code { return CodePushMD }

func (m *PushMD) marshalTo(w *wire.Writer) {
	w.DD(m.Reserved)
	w.CString(m.IDBPath)
	w.CString(m.InputPath)
	w.Raw(m.MD5[:])
	w.CString(m.Hostname)
	w.Count(len(m.Records))
	for i := range m.Records {
		m.Records[i].marshalTo(w)
	}
	w.Count(len(m.Addresses))
	for _, ea := range m.Addresses {
		w.EA(ea)
	}
}

func (m *PushMD) unmarshalFrom(r *wire.Reader) (err error) {
	if m.Reserved, err = r.DD(); err != nil {
		return fmt.Errorf("reserved: %w", err)
	}
	if m.IDBPath, err = r.CString(); err != nil {
		return fmt.Errorf("idb path: %w", err)
	}
	if m.InputPath, err = r.CString(); err != nil {
		return fmt.Errorf("input path: %w", err)
	}
	md5, err := r.Bytes(len(m.MD5))
	if err != nil {
		return fmt.Errorf("md5: %w", err)
	}
	copy(m.MD5[:], md5)
	if m.Hostname, err = r.CString(); err != nil {
		return fmt.Errorf("hostname: %w", err)
	}
	m.Records, err = readList(r, "records", func(r *wire.Reader, f *FuncMD) error {
		return f.unmarshalFrom(r)
	})
	if err != nil {
		return err
	}
	m.Addresses, err = readList(r, "addresses", readEA)
	return err
}

type PushMDResult struct {
	Status []uint32
}

func (*PushMDResult) Code() Code { return CodePushMDResult }

func (m *PushMDResult) marshalTo(w *wire.Writer) {
	writeDDs(w, m.Status)
}

func (m *PushMDResult) unmarshalFrom(r *wire.Reader) (err error) {
	m.Status, err = readList(r, "status", readDD)
	return err
}

// Unsupported keeps the raw body of a frame whose code has no schema.
type Unsupported struct {
	Tag  Code
	Body []byte
}

func (m *Unsupported) Code() Code { return m.Tag }

func (m *Unsupported) marshalTo(w *wire.Writer) { w.Raw(m.Body) }

func (m *Unsupported) unmarshalFrom(r *wire.Reader) error {
	m.Body = r.Rest()
	return nil
}
