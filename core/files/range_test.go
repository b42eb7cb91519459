package files

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/searchktools/static-server/core/http"
	"github.com/searchktools/static-server/core/pools"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveRange(t *testing.T) {
	tests := []struct {
		name       string
		spec       *http.RangeSpec
		total      int64
		limit      int64
		wantStart  int64
		wantLength int64
	}{
		{"whole small file", nil, 5, 100, 0, 5},
		{"whole large file capped", nil, 1000, 64, 0, 64},
		{"from offset", http.From(2), 5, 100, 2, 3},
		{"from offset capped", http.From(100), 1000, 64, 100, 64},
		{"from last byte", http.From(4), 5, 100, 4, 1},
		{"from past end", http.From(5), 5, 100, 0, 5},
		{"full range", http.Full(1, 3), 5, 100, 1, 3},
		{"full range capped", http.Full(0, 999), 1000, 64, 0, 64},
		{"full range past end", http.Full(3, 99), 5, 100, 3, 2},
		{"suffix", http.Suffix(2), 5, 100, 3, 2},
		{"suffix larger than file", http.Suffix(50), 5, 100, 0, 5},
		{"suffix capped", http.Suffix(500), 1000, 64, 500, 64},
		{"empty file", nil, 0, 100, 0, 0},
		{"empty file with range", http.From(3), 0, 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, length := ResolveRange(tt.spec, tt.total, tt.limit)
			if start != tt.wantStart || length != tt.wantLength {
				t.Errorf("Expected start=%d length=%d, got start=%d length=%d",
					tt.wantStart, tt.wantLength, start, length)
			}
		})
	}
}

// Suffix ranges count back from the end of the file. Treating them as a
// start of 0 would hand the client bytes it did not ask for.
func TestReadChunkSuffixStartsFromTail(t *testing.T) {
	path := writeFile(t, t.TempDir(), "readme.txt", []byte("hello"))

	chunk, err := ReadChunk(path, http.Suffix(2), 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(chunk.Content.Bytes) != "lo" {
		t.Errorf("Expected \"lo\", got %q", chunk.Content.Bytes)
	}
	rg := chunk.Content.Range
	if rg == nil || rg.Start != 3 || rg.End != 4 || rg.Total != 5 {
		t.Errorf("Expected range 3-4/5, got %+v", rg)
	}
	if !chunk.EOF {
		t.Error("Expected the suffix chunk to reach EOF")
	}
}

func TestReadChunkWholeFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "readme.txt", []byte("hello"))

	chunk, err := ReadChunk(path, nil, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(chunk.Content.Bytes) != "hello" {
		t.Errorf("Expected hello, got %q", chunk.Content.Bytes)
	}
	if chunk.Content.Range != nil {
		t.Errorf("Expected no range for a whole file, got %+v", chunk.Content.Range)
	}
	if chunk.Content.ContentType != "text/plain" {
		t.Errorf("Expected text/plain, got %s", chunk.Content.ContentType)
	}
	if !chunk.EOF {
		t.Error("Expected EOF")
	}
}

func TestReadChunkOpenRange(t *testing.T) {
	path := writeFile(t, t.TempDir(), "readme.txt", []byte("hello"))

	chunk, err := ReadChunk(path, http.From(2), 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(chunk.Content.Bytes) != "llo" {
		t.Errorf("Expected llo, got %q", chunk.Content.Bytes)
	}
	rg := chunk.Content.Range
	if rg == nil || *rg != (http.ResolvedRange{Start: 2, End: 4, Total: 5}) {
		t.Errorf("Expected range 2-4/5, got %+v", rg)
	}
	if !chunk.EOF {
		t.Error("Expected the last chunk to be marked EOF")
	}
}

func TestReadChunkCappedIsPartial(t *testing.T) {
	path := writeFile(t, t.TempDir(), "readme.txt", []byte("hello"))

	chunk, err := ReadChunk(path, nil, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(chunk.Content.Bytes) != "he" {
		t.Errorf("Expected he, got %q", chunk.Content.Bytes)
	}
	rg := chunk.Content.Range
	if rg == nil || *rg != (http.ResolvedRange{Start: 0, End: 1, Total: 5}) {
		t.Errorf("Expected range 0-1/5, got %+v", rg)
	}
	if chunk.EOF {
		t.Error("Expected more data to remain")
	}
}

func TestReadChunkClosedRangeStopsAtEnd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "readme.txt", []byte("hello"))

	chunk, err := ReadChunk(path, http.Full(1, 2), 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(chunk.Content.Bytes) != "el" {
		t.Errorf("Expected el, got %q", chunk.Content.Bytes)
	}
	if chunk.EOF {
		t.Error("A range ending before the last byte is not EOF")
	}
}

func TestReadChunkEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.txt", nil)

	chunk, err := ReadChunk(path, http.From(10), 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunk.Content.Bytes) != 0 || chunk.Content.Range != nil || !chunk.EOF {
		t.Errorf("Expected an empty 200 chunk at EOF, got %+v eof=%v", chunk.Content, chunk.EOF)
	}
}

func TestReadChunkMissingFile(t *testing.T) {
	if _, err := ReadChunk(filepath.Join(t.TempDir(), "nope"), nil, 100, nil); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

// Repeated "bytes=<offset>-" requests must deliver every byte exactly once.
func TestReadChunkConverges(t *testing.T) {
	data := make([]byte, 10_000)
	rand.New(rand.NewSource(1)).Read(data)
	path := writeFile(t, t.TempDir(), "blob.bin", data)

	bp := pools.NewBytePoolWithSizes([]int{512, 1024})

	for _, limit := range []int64{1, 7, 512, 1000, 9_999, 10_000, 20_000} {
		var got []byte
		var spec *http.RangeSpec
		offset := int64(0)

		for rounds := 0; ; rounds++ {
			if rounds > len(data) {
				t.Fatalf("limit %d: no EOF after %d rounds", limit, rounds)
			}
			chunk, err := ReadChunk(path, spec, limit, bp)
			if err != nil {
				t.Fatalf("limit %d: %v", limit, err)
			}

			c := chunk.Content
			if rg := c.Range; rg != nil {
				if rg.Start != offset {
					t.Fatalf("limit %d: chunk starts at %d, expected %d", limit, rg.Start, offset)
				}
				if rg.Len() != int64(len(c.Bytes)) || rg.End >= rg.Total || rg.Total != int64(len(data)) {
					t.Fatalf("limit %d: inconsistent range %+v for %d bytes", limit, rg, len(c.Bytes))
				}
			} else if offset != 0 || len(c.Bytes) != len(data) {
				t.Fatalf("limit %d: unranged chunk must be the whole file", limit)
			}
			if c.ContentType != "application/octet-stream" {
				t.Fatalf("limit %d: content type changed to %s at offset %d", limit, c.ContentType, offset)
			}

			got = append(got, c.Bytes...)
			offset += int64(len(c.Bytes))
			bp.Put(c.Bytes)

			if chunk.EOF {
				break
			}
			spec = http.From(offset)
		}

		if !bytes.Equal(got, data) {
			t.Errorf("limit %d: reassembled %d bytes do not match the file", limit, len(got))
		}
	}
}

func TestReadChunkContentTypeFromFileHead(t *testing.T) {
	// binary header followed by plain ASCII
	data := append([]byte{0x89, 0xff, 0x00}, bytes.Repeat([]byte("a"), 2000)...)
	path := writeFile(t, t.TempDir(), "data.raw", data)

	chunk, err := ReadChunk(path, http.From(1000), 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	if chunk.Content.ContentType != "application/octet-stream" {
		t.Errorf("Expected type sniffed from the file head, got %s", chunk.Content.ContentType)
	}
}
