package batch

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/normalize"
)

// Principal rows can carry long character lists
const maxLineBytes = 16 * 1024 * 1024

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithDedup drops data lines the deduper has already seen
func WithDedup(d *Deduper) ReaderOption {
	return func(r *Reader) { r.dedup = d }
}

// WithUnescape reverses the writer's quote escaping. Use it for batch files,
// not for the raw dataset exports.
func WithUnescape() ReaderOption {
	return func(r *Reader) { r.unescape = true }
}

// Reader streams a tab-separated file one row at a time. The first line is
// the header; fields are never quoted.
type Reader struct {
	path     string
	closers  []io.Closer
	sc       *bufio.Scanner
	header   *normalize.Header
	dedup    *Deduper
	unescape bool
	lines    int64
	dups     int64
}

// OpenReader opens path, transparently gunzipping files ending in .gz
func OpenReader(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "open %s", path)
	}

	var src io.Reader = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.FileSystemErrorf(err, "gunzip %s", path)
		}
		src = gz
		closers = append([]io.Closer{gz}, closers...)
	}

	r, err := newReader(path, src, opts...)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, err
	}
	r.closers = closers
	return r, nil
}

// NewReader reads the header from src and returns a row reader
func NewReader(src io.Reader, opts ...ReaderOption) (*Reader, error) {
	return newReader("<stream>", src, opts...)
}

func newReader(path string, src io.Reader, opts ...ReaderOption) (*Reader, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	r := &Reader{path: path, sc: sc}
	for _, opt := range opts {
		opt(r)
	}

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, errors.FileSystemErrorf(err, "read header of %s", path)
		}
		return nil, errors.FileSystemErrorf(io.ErrUnexpectedEOF, "%s has no header line", path)
	}
	r.header = normalize.NewHeader(r.split(bytes.TrimSuffix(sc.Bytes(), []byte{'\r'})))
	return r, nil
}

// Header returns the column binding from the first line
func (r *Reader) Header() *normalize.Header {
	return r.header
}

// Next returns the next data row, or io.EOF after the last one. A read
// failure mid-file (for example a truncated gzip stream) is returned as a
// filesystem error.
func (r *Reader) Next() (normalize.Row, error) {
	for r.sc.Scan() {
		line := bytes.TrimSuffix(r.sc.Bytes(), []byte{'\r'})
		if len(line) == 0 {
			continue
		}
		r.lines++
		if r.dedup.Seen(line) {
			r.dups++
			continue
		}
		return normalize.NewRow(r.header, r.split(line)), nil
	}
	if err := r.sc.Err(); err != nil {
		return normalize.Row{}, errors.FileSystemErrorf(err, "read %s at line %d", r.path, r.lines+1)
	}
	return normalize.Row{}, io.EOF
}

func (r *Reader) split(line []byte) []string {
	fields := strings.Split(string(line), "\t")
	if r.unescape {
		for i, f := range fields {
			if strings.Contains(f, `""`) {
				fields[i] = strings.ReplaceAll(f, `""`, `"`)
			}
		}
	}
	return fields
}

// Duplicates returns the number of lines dropped by the deduper
func (r *Reader) Duplicates() int64 { return r.dups }

// Close releases the underlying file
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// Writer writes a batch file with a fixed column set. Quotes are escaped by
// doubling; tabs and line breaks cannot be represented and become spaces.
type Writer struct {
	path    string
	f       *os.File
	w       *bufio.Writer
	columns int
	rows    int64
}

var fieldEscaper = strings.NewReplacer(`"`, `""`, "\t", " ", "\n", " ", "\r", " ")

// CreateWriter creates path and writes the kind's header
func CreateWriter(path string, kind Kind) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "create %s", path)
	}
	w := &Writer{path: path, f: f, w: bufio.NewWriterSize(f, 1<<20), columns: len(kind.Columns())}
	if _, err := w.w.WriteString(strings.Join(kind.Columns(), "\t") + "\n"); err != nil {
		f.Close()
		return nil, errors.FileSystemErrorf(err, "write header to %s", path)
	}
	return w, nil
}

// Write appends one row. fields must match the kind's column count.
func (w *Writer) Write(fields []string) error {
	if len(fields) != w.columns {
		return errors.InternalErrorf("%s: row has %d fields, want %d", w.path, len(fields), w.columns)
	}
	for i, f := range fields {
		if i > 0 {
			w.w.WriteByte('\t')
		}
		w.w.WriteString(fieldEscaper.Replace(f))
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return errors.FileSystemErrorf(err, "write %s", w.path)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written
func (w *Writer) Rows() int64 { return w.rows }

// Close flushes buffered rows and closes the file
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return errors.FileSystemErrorf(err, "flush %s", w.path)
	}
	if err := w.f.Close(); err != nil {
		return errors.FileSystemErrorf(err, "close %s", w.path)
	}
	return nil
}
