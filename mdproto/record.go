// Package mdproto decodes the records found inside FuncMetadata.Data.
//
// The blob is a sequence of records, each one a dd command followed by a dd
// length prefixed body. Only TYPE_INFO has a known body layout; every other
// command decodes to *Unsupported carrying its raw body.
package mdproto

import (
	"fmt"

	"github.com/ozontech/lumina/wire"
)

type Record struct {
	Cmd  Cmd
	Body []byte
}

// ReadRecord reads one record from r.
func ReadRecord(r *wire.Reader) (Record, error) {
	start := r.Offset()
	cmd, err := r.DD()
	if err != nil {
		return Record{}, fmt.Errorf("record cmd: %w", err)
	}
	body, err := r.Buff()
	if err != nil {
		return Record{}, fmt.Errorf("record %s at %d: %w", Cmd(cmd), start, err)
	}
	return Record{Cmd: Cmd(cmd), Body: body}, nil
}

// AppendRecord appends rec to b.
func AppendRecord(b []byte, rec Record) ([]byte, error) {
	w := wire.NewWriter(b)
	w.DD(uint32(rec.Cmd))
	w.Buff(rec.Body)
	if err := w.Err(); err != nil {
		return b, err
	}
	return w.Bytes(), nil
}

// Split cuts data into records. On failure the records read so far are
// returned along with the error.
func Split(data []byte) ([]Record, error) {
	r := wire.NewReader(data)
	var records []Record
	for r.Len() > 0 {
		rec, err := ReadRecord(r)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Message is a decoded record: *TypeInfo or *Unsupported.
type Message interface {
	Cmd() Cmd
}

type Unsupported struct {
	Tag  Cmd
	Body []byte
}

func (u *Unsupported) Cmd() Cmd { return u.Tag }

// DecodeRecord decodes the body of rec. Commands without a schema are not an
// error, they come back as *Unsupported.
func DecodeRecord(rec Record) (Message, error) {
	switch rec.Cmd {
	case CmdTypeInfo:
		ti := new(TypeInfo)
		if err := ti.Unmarshal(rec.Body); err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Cmd, err)
		}
		return ti, nil
	default:
		return &Unsupported{Tag: rec.Cmd, Body: rec.Body}, nil
	}
}

// Decode splits data and decodes every record. Messages decoded before a
// failure are returned with the error.
func Decode(data []byte) ([]Message, error) {
	records, splitErr := Split(data)
	messages := make([]Message, 0, len(records))
	for _, rec := range records {
		m, err := DecodeRecord(rec)
		if err != nil {
			return messages, err
		}
		messages = append(messages, m)
	}
	return messages, splitErr
}

// Encode builds the record of m.
func Encode(m Message) (Record, error) {
	switch m := m.(type) {
	case *TypeInfo:
		body, err := m.MarshalAppend(nil)
		if err != nil {
			return Record{}, err
		}
		return Record{Cmd: CmdTypeInfo, Body: body}, nil
	case *Unsupported:
		return Record{Cmd: m.Tag, Body: m.Body}, nil
	}
	return Record{}, fmt.Errorf("unknown metadata message %T", m)
}
