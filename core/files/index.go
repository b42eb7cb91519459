package files

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type entry struct {
	name string
	dir  bool
	size int64
}

// RenderIndex renders an HTML listing of dir, which is served at relPath.
// Directories are listed before files, each group sorted by name.
func RenderIndex(relPath, dir string) ([]byte, error) {
	return AppendIndex(nil, relPath, dir)
}

// AppendIndex is RenderIndex writing into dst
func AppendIndex(dst []byte, relPath, dir string) ([]byte, error) {
	entries, err := readEntries(dir)
	if err != nil {
		return dst, err
	}

	base := escapePath(strings.TrimSuffix(relPath, "/"))
	title := html.EscapeString(relPath)

	b := bytes.NewBuffer(dst)
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(b, "<title>Index of %s</title>\n", title)
	b.WriteString("<style>body{font-family:monospace}td.size{text-align:right;padding-left:2em}</style>\n")
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(b, "<h1>Index of %s</h1>\n<table>\n", title)

	if relPath != "/" {
		writeRow(b, base+"/../", "../", "")
	}
	for _, e := range entries {
		href := base + "/" + url.PathEscape(e.name)
		if e.dir {
			writeRow(b, href+"/", e.name+"/", "")
		} else {
			writeRow(b, href, e.name, FormatSize(e.size))
		}
	}

	b.WriteString("</table>\n</body>\n</html>\n")
	return b.Bytes(), nil
}

func writeRow(b *bytes.Buffer, href, label, size string) {
	fmt.Fprintf(b, "<tr><td><a href=\"%s\">%s</a></td><td class=\"size\">%s</td></tr>\n",
		html.EscapeString(href), html.EscapeString(label), size)
}

// readEntries lists files and directories in dir. Symlinks count as what
// they point to; anything else is skipped.
func readEntries(dir string) ([]entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(des))
	for _, de := range des {
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if info, err = os.Stat(filepath.Join(dir, de.Name())); err != nil {
				continue
			}
		}
		switch {
		case info.IsDir():
			entries = append(entries, entry{name: de.Name(), dir: true})
		case info.Mode().IsRegular():
			entries = append(entries, entry{name: de.Name(), size: info.Size()})
		}
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if a.dir != b.dir {
			if a.dir {
				return -1
			}
			return 1
		}
		return strings.Compare(a.name, b.name)
	})
	return entries, nil
}

// escapePath percent-encodes each segment of a decoded URL path
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

var sizeUnits = []string{"KiB", "MiB", "GiB"}

// FormatSize renders n as bytes below 1 KiB, otherwise in 1024-based units
// with one decimal.
func FormatSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}
