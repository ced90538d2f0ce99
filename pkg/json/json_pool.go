// Package json provides JSON output backed by goccy/go-json, with pooled
// buffers and an object writer that keeps keys in insertion order.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// MarshalToWriter encodes v to w followed by a newline. When indent is not
// empty the output is pretty-printed.
func MarshalToWriter(w io.Writer, v interface{}, indent string) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}

// ObjectWriter builds a JSON object whose keys appear in the order they
// were written. Keys are not deduplicated. The writer borrows a pooled
// buffer until Bytes is called.
type ObjectWriter struct {
	buf    *bytes.Buffer
	fields int
}

// NewObjectWriter creates a writer backed by a pooled buffer
func NewObjectWriter() *ObjectWriter {
	w := &ObjectWriter{buf: GetBuffer()}
	w.buf.WriteByte('{')
	return w
}

// WriteField appends "key":value
func (w *ObjectWriter) WriteField(key string, value interface{}) error {
	keyData, err := gojson.Marshal(key)
	if err != nil {
		return err
	}
	data, err := gojson.Marshal(value)
	if err != nil {
		return err
	}

	if w.fields > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.Write(keyData)
	w.buf.WriteByte(':')
	w.buf.Write(data)
	w.fields++
	return nil
}

// Bytes returns a copy of the closed object and gives the buffer back to
// the pool. The writer must not be used afterwards.
func (w *ObjectWriter) Bytes() []byte {
	w.buf.WriteByte('}')
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	PutBuffer(w.buf)
	w.buf = nil
	return out
}

// Release gives the buffer back without producing output. It is safe to
// call after Bytes.
func (w *ObjectWriter) Release() {
	if w.buf != nil {
		PutBuffer(w.buf)
		w.buf = nil
	}
}
