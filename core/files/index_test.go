package files

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

type listingRow struct {
	href  string
	label string
	size  string
}

// parseListing extracts the rows of a rendered listing
func parseListing(t *testing.T, page []byte) (title string, rows []listingRow) {
	t.Helper()

	z := html.NewTokenizer(bytes.NewReader(page))
	var (
		inTitle, inLink, inSize bool
		cur                     listingRow
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return title, rows
		case html.StartTagToken:
			tok := z.Token()
			switch tok.Data {
			case "title":
				inTitle = true
			case "tr":
				cur = listingRow{}
			case "a":
				inLink = true
				for _, a := range tok.Attr {
					if a.Key == "href" {
						cur.href = a.Val
					}
				}
			case "td":
				for _, a := range tok.Attr {
					if a.Key == "class" && a.Val == "size" {
						inSize = true
					}
				}
			}
		case html.EndTagToken:
			switch z.Token().Data {
			case "title":
				inTitle = false
			case "a":
				inLink = false
			case "td":
				inSize = false
			case "tr":
				rows = append(rows, cur)
			}
		case html.TextToken:
			text := string(z.Text())
			switch {
			case inTitle:
				title += text
			case inLink:
				cur.label += text
			case inSize:
				cur.size += text
			}
		}
	}
}

func newListingDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", bytes.Repeat([]byte("x"), 1536))
	writeFile(t, dir, "a.txt", []byte("0123456789"))
	writeFile(t, dir, "Z.txt", nil)
	writeFile(t, dir, "zdir/inner.txt", []byte("i"))
	writeFile(t, dir, "adir/inner.txt", []byte("i"))
	return dir
}

func TestRenderIndexOrdering(t *testing.T) {
	dir := newListingDir(t)

	page, err := RenderIndex("/docs", dir)
	if err != nil {
		t.Fatal(err)
	}

	title, rows := parseListing(t, page)
	if title != "Index of /docs" {
		t.Errorf("Expected title \"Index of /docs\", got %q", title)
	}

	want := []listingRow{
		{"/docs/../", "../", ""},
		{"/docs/adir/", "adir/", ""},
		{"/docs/zdir/", "zdir/", ""},
		{"/docs/Z.txt", "Z.txt", "0 B"},
		{"/docs/a.txt", "a.txt", "10 B"},
		{"/docs/b.txt", "b.txt", "1.5 KiB"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Unexpected listing\nwant: %+v\ngot:  %+v", want, rows)
	}
}

func TestRenderIndexRootHasNoParent(t *testing.T) {
	dir := newListingDir(t)

	page, err := RenderIndex("/", dir)
	if err != nil {
		t.Fatal(err)
	}

	_, rows := parseListing(t, page)
	if len(rows) == 0 {
		t.Fatal("Expected entries")
	}
	if rows[0].label == "../" {
		t.Error("The root listing must not link to a parent")
	}
	if rows[0].href != "/adir/" {
		t.Errorf("Expected root links without a double slash, got %s", rows[0].href)
	}
}

func TestRenderIndexTrailingSlash(t *testing.T) {
	dir := newListingDir(t)

	page, err := RenderIndex("/docs/", dir)
	if err != nil {
		t.Fatal(err)
	}
	_, rows := parseListing(t, page)
	if rows[1].href != "/docs/adir/" {
		t.Errorf("Expected /docs/adir/, got %s", rows[1].href)
	}
}

func TestRenderIndexDeterministic(t *testing.T) {
	dir := newListingDir(t)

	first, err := RenderIndex("/docs", dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := RenderIndex("/docs", dir)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Rendering the same directory twice gave different pages")
		}
	}
}

func TestRenderIndexEscaping(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a b&<c>.txt", []byte("x"))

	page, err := RenderIndex("/my dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(page, []byte("<c>")) {
		t.Errorf("Expected names to be HTML-escaped:\n%s", page)
	}

	_, rows := parseListing(t, page)
	last := rows[len(rows)-1]
	if last.label != "a b&<c>.txt" {
		t.Errorf("Expected the original name as label, got %q", last.label)
	}
	if last.href != "/my%20dir/a%20b&%3Cc%3E.txt" {
		t.Errorf("Expected a percent-encoded href, got %q", last.href)
	}
}

func TestRenderIndexSkipsSpecialFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.txt", []byte("x"))
	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	page, err := RenderIndex("/", dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(page), "dangling") {
		t.Error("Expected a dangling symlink to be left out")
	}
}

func TestRenderIndexMissingDir(t *testing.T) {
	if _, err := RenderIndex("/", filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{10 * 1024, "10.0 KiB"},
		{1 << 20, "1.0 MiB"},
		{int64(2.5 * (1 << 20)), "2.5 MiB"},
		{5 << 30, "5.0 GiB"},
		{3 << 40, "3072.0 GiB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.n); got != tt.want {
			t.Errorf("FormatSize(%d): expected %q, got %q", tt.n, tt.want, got)
		}
	}
}

func TestAppendIndexKeepsPrefix(t *testing.T) {
	dir := newListingDir(t)

	want, err := RenderIndex("/docs", dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := AppendIndex([]byte("prefix"), "/docs", dir)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "prefix"+string(want) {
		t.Error("Expected the listing appended after the existing bytes")
	}
}
