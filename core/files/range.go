package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/searchktools/static-server/core/http"
)

// sniffLen is how much of a file is inspected when its extension is unknown
const sniffLen = 512

// BufferSource hands out scratch buffers for file chunks
type BufferSource interface {
	Get(size int) []byte
	Put(buf []byte)
}

// Chunk is one response worth of a file
type Chunk struct {
	Content *http.Content
	// EOF is set when the chunk reaches the last byte of the file
	EOF bool
}

// ResolveRange returns the offset to read from and how many bytes to read
// for a file of the given total size. limit caps the length no matter how
// much the client asked for.
func ResolveRange(spec *http.RangeSpec, total, limit int64) (start, length int64) {
	if spec != nil {
		switch spec.Kind {
		case http.RangeFrom, http.RangeFull:
			start = spec.Start
		case http.RangeSuffix:
			start = max(total-spec.N, 0)
		}
	}
	if start >= total {
		start = 0
	}

	length = min(limit, total-start)
	if spec != nil && spec.Kind == http.RangeFull && spec.Start == start {
		length = min(length, spec.End-start+1)
	}
	return start, length
}

// ReadChunk reads the part of the file selected by spec, at most limit bytes.
// If bufs is non-nil the chunk's bytes come from it and should be returned
// once the response has been written.
func ReadChunk(path string, spec *http.RangeSpec, limit int64, bufs BufferSource) (*Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	total := info.Size()
	start, length := ResolveRange(spec, total, limit)

	var buf []byte
	if bufs != nil {
		buf = bufs.Get(int(length))
	} else {
		buf = make([]byte, length)
	}

	n, err := f.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		if bufs != nil {
			bufs.Put(buf)
		}
		return nil, fmt.Errorf("read %s at %d: %w", path, start, err)
	}
	if n == 0 && length > 0 {
		if bufs != nil {
			bufs.Put(buf)
		}
		return nil, fmt.Errorf("read %s at %d: %w", path, start, io.ErrUnexpectedEOF)
	}
	buf = buf[:n]
	if int64(n) < length {
		// the file shrank since Stat
		total = start + int64(n)
	}

	content := &http.Content{
		ContentType: contentType(f, path, buf, start, total),
		Bytes:       buf,
	}
	if int64(n) < total {
		content.Range = &http.ResolvedRange{
			Start: start,
			End:   start + int64(n) - 1,
			Total: total,
		}
	}

	return &Chunk{
		Content: content,
		EOF:     start+int64(n) == total,
	}, nil
}

// contentType sniffs from the head of the file so every chunk of the same
// file gets the same type.
func contentType(f *os.File, path string, chunk []byte, start, total int64) string {
	want := min(total, sniffLen)
	if start == 0 && int64(len(chunk)) >= want {
		return http.ContentTypeFor(filepath.Ext(path), chunk[:want])
	}

	var head [sniffLen]byte
	n, _ := f.ReadAt(head[:want], 0)
	return http.ContentTypeFor(filepath.Ext(path), head[:n])
}
