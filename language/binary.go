package language

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SniffSize is the number of leading bytes inspected by IsBinaryContent.
const SniffSize = 1024

// BinaryExtensions lists extensions (lowercase, without dot) that are always
// treated as binary without reading the file.
var BinaryExtensions = map[string]bool{
	// Executables / compiled objects
	"exe": true, "dll": true, "so": true, "dylib": true, "bin": true,
	"obj": true, "o": true, "a": true, "lib": true, "class": true,
	"pyc": true, "pyd": true, "pyo": true,
	// Images
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
	"tiff": true, "ico": true, "webp": true,
	// Media
	"mp3": true, "mp4": true, "avi": true, "mov": true, "wmv": true,
	"flv": true, "wav": true, "flac": true,
	// Archives
	"zip": true, "tar": true, "gz": true, "tgz": true, "rar": true,
	"7z": true, "jar": true, "war": true,
	// Documents
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"ppt": true, "pptx": true,
	// Fonts
	"woff": true, "woff2": true, "ttf": true, "eot": true, "otf": true,
}

// IsBinaryContent checks if the given byte slice appears to be binary content.
// It checks the first SniffSize bytes (or less) for null bytes.
func IsBinaryContent(data []byte) bool {
	if len(data) > SniffSize {
		data = data[:SniffSize]
	}
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}

// IsBinaryExtension reports whether the path's extension is in BinaryExtensions.
func IsBinaryExtension(filePath string) bool {
	return BinaryExtensions[Extension(filePath)]
}

// IsBinaryPath decides whether a file on disk is binary: first by extension,
// then by sniffing its first SniffSize bytes. An error is returned only when
// the file has to be sniffed and cannot be read.
func IsBinaryPath(filePath string) (bool, error) {
	if IsBinaryExtension(filePath) {
		return true, nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, SniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return IsBinaryContent(buf[:n]), nil
}

// Extension returns the lowercase extension of filePath without the leading dot.
func Extension(filePath string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
}
