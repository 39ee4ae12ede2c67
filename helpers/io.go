package helpers

import (
	"expvar"
	"io"
)

// WriteAll repeats Write until b is consumed. Zero progress without error is io.ErrShortWrite.
func WriteAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}

// StatReader adds byte count of every Read to V, including reads that return error.
type StatReader struct {
	R io.Reader
	V *expvar.Int
}

var _ io.Reader = &StatReader{}

func NewStatReader(r io.Reader, v *expvar.Int) *StatReader { return &StatReader{R: r, V: v} }

func (sr *StatReader) Read(p []byte) (int, error) {
	n, err := sr.R.Read(p)
	sr.V.Add(int64(n))
	return n, err
}

type StatWriter struct {
	W io.Writer
	V *expvar.Int
}

var _ io.Writer = &StatWriter{}

func NewStatWriter(w io.Writer, v *expvar.Int) *StatWriter { return &StatWriter{W: w, V: v} }

func (sw *StatWriter) Write(p []byte) (int, error) {
	n, err := sw.W.Write(p)
	sw.V.Add(int64(n))
	return n, err
}
