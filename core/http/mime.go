package http

import "strings"

const (
	MIMETextPlain   = "text/plain"
	MIMETextHTML    = "text/html"
	MIMEOctetStream = "application/octet-stream"
)

var contentTypes = map[string]string{
	// text
	"txt":  MIMETextPlain,
	"md":   MIMETextPlain,
	"toml": MIMETextPlain,
	"html": MIMETextHTML,
	"htm":  MIMETextHTML,
	"css":  "text/css",
	"csv":  "text/csv",
	"js":   "text/javascript",
	"mjs":  "text/javascript",

	// image
	"apng": "image/apng",
	"avif": "image/avif",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
	"ico":  "image/vnd.microsoft.icon",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"webp": "image/webp",

	// audio
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"mp3":  "audio/mpeg",
	"oga":  "audio/ogg",
	"ogg":  "audio/ogg",
	"opus": "audio/opus",
	"wav":  "audio/wav",
	"weba": "audio/webm",

	// video
	"3gp":  "video/3gpp",
	"3gp2": "video/3gpp2",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"mp4":  "video/mp4",
	"mpeg": "video/mpeg",
	"ogv":  "video/ogg",
	"webm": "video/webm",

	// application
	"gz":   "application/gzip",
	"json": "application/json",
	"pdf":  "application/pdf",
	"wasm": "application/wasm",
	"xml":  "application/xml",
	"zip":  "application/zip",
}

// ContentTypeFor maps a file extension (with or without the leading dot) to
// a MIME type. Unknown extensions are sniffed: pure ASCII is text/plain.
func ContentTypeFor(ext string, sample []byte) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if isASCII(sample) {
		return MIMETextPlain
	}
	return MIMEOctetStream
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
