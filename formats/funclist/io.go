package funclist

import (
	"bytes"
	"fmt"
	"io"
)

// Reader splits a stream into lines without the line feed.
type Reader struct {
	buf         [4096]byte
	unprocessed []byte

	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) fillUnprocessed() error {
	n, err := r.r.Read(r.buf[:])
	r.unprocessed = r.buf[:n]
	if n > 0 && err == io.EOF {
		return nil
	}
	return err
}

// ReadNext appends the next line to p. The last line may lack its line feed.
func (r *Reader) ReadNext(p []byte) ([]byte, error) {
	for {
		if len(r.unprocessed) == 0 {
			err := r.fillUnprocessed()
			if err == io.EOF && len(p) > 0 {
				return p, nil
			}
			if err != nil {
				return p, err
			}
		}

		index := bytes.IndexByte(r.unprocessed, '\n')
		if index != -1 {
			p = append(p, r.unprocessed[:index]...)
			r.unprocessed = r.unprocessed[index+1:]
			return p, nil
		}

		p = append(p, r.unprocessed...)
		r.unprocessed = nil
	}
}

// ReadAll decodes every non empty line of r.
func ReadAll(r io.Reader) ([]Function, error) {
	lr := NewReader(r)
	var (
		fs   []Function
		line []byte
		err  error
	)
	for n := 1; ; n++ {
		line, err = lr.ReadNext(line[:0])
		if err == io.EOF {
			return fs, nil
		}
		if err != nil {
			return fs, fmt.Errorf("read line %d: %w", n, err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var f Function
		if err := Unmarshal(&f, line); err != nil {
			return fs, fmt.Errorf("line %d: %w", n, err)
		}
		fs = append(fs, f)
	}
}

// WriteAll encodes fs, one function per line.
func WriteAll(w io.Writer, fs []Function) error {
	var (
		b   []byte
		err error
	)
	for i := range fs {
		b, err = MarshalAppend(b[:0], &fs[i])
		if err != nil {
			return fmt.Errorf("function #%d: %w", i, err)
		}
		if _, err = w.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}
