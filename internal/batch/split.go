package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rohankatakam/actorgraph/internal/errors"
)

// Split copies path into chunk files <base>_1.tsv, <base>_2.tsv, ... next to
// it, each repeating the header and holding at most maxLines data rows. The
// source file is left in place. Chunks left by an earlier split of path are
// removed first. A maxLines of 0 only removes them, so the whole file is
// loaded. An empty source still yields one chunk so every kind has at least
// one file to load.
func Split(path string, maxLines int) ([]string, error) {
	if maxLines < 0 {
		return nil, errors.ValidationErrorf("split size must not be negative, got %d", maxLines)
	}
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := removeChunks(dir, base); err != nil {
		return nil, err
	}
	if maxLines == 0 {
		return nil, nil
	}

	in, err := os.Open(path)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "open %s", path)
	}
	defer in.Close()

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, errors.FileSystemErrorf(err, "read %s", path)
		}
		return nil, errors.FileSystemErrorf(os.ErrInvalid, "%s has no header line", path)
	}
	header := sc.Text()

	var (
		created []string
		out     *os.File
		w       *bufio.Writer
		n       int
	)
	closeChunk := func() error {
		if out == nil {
			return nil
		}
		if err := w.Flush(); err != nil {
			out.Close()
			return errors.FileSystemErrorf(err, "flush %s", out.Name())
		}
		err := out.Close()
		out = nil
		if err != nil {
			return errors.FileSystemErrorf(err, "close chunk")
		}
		return nil
	}
	openChunk := func() error {
		if err := closeChunk(); err != nil {
			return err
		}
		name := filepath.Join(dir, fmt.Sprintf("%s_%d.tsv", base, len(created)+1))
		f, err := os.Create(name)
		if err != nil {
			return errors.FileSystemErrorf(err, "create %s", name)
		}
		out, w, n = f, bufio.NewWriterSize(f, 1<<20), 0
		created = append(created, name)
		w.WriteString(header)
		w.WriteByte('\n')
		return nil
	}

	if err := openChunk(); err != nil {
		return nil, err
	}
	for sc.Scan() {
		if n == maxLines {
			if err := openChunk(); err != nil {
				return created, err
			}
		}
		w.Write(sc.Bytes())
		w.WriteByte('\n')
		n++
	}
	if err := sc.Err(); err != nil {
		closeChunk()
		return created, errors.FileSystemErrorf(err, "read %s", path)
	}
	if err := closeChunk(); err != nil {
		return created, err
	}
	return created, nil
}

// ChunkFiles returns the chunk files for kind in dir ordered by chunk
// number, or the unsplit batch file when there are no chunks. It returns
// nil when neither exists.
func ChunkFiles(dir string, kind Kind) ([]string, error) {
	base := strings.TrimSuffix(kind.FileName(), ".tsv")
	files, err := chunksOf(dir, base)
	if err != nil || len(files) > 0 {
		return files, err
	}

	whole := filepath.Join(dir, kind.FileName())
	if _, err := os.Stat(whole); err == nil {
		return []string{whole}, nil
	}
	return nil, nil
}

// chunksOf lists <base>_<n>.tsv in dir ordered by n
func chunksOf(dir, base string) ([]string, error) {
	prefix := base + "_"
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*.tsv"))
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "list %s", dir)
	}

	type chunk struct {
		path string
		n    int
	}
	var chunks []chunk
	for _, m := range matches {
		num := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), ".tsv")
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		chunks = append(chunks, chunk{m, n})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].n < chunks[j].n })
	files := make([]string, len(chunks))
	for i, c := range chunks {
		files[i] = c.path
	}
	return files, nil
}

func removeChunks(dir, base string) error {
	stale, err := chunksOf(dir, base)
	if err != nil {
		return err
	}
	for _, f := range stale {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return errors.FileSystemErrorf(err, "remove stale chunk %s", f)
		}
	}
	return nil
}
