// Package export turns the editor state into downloadable files.
package export

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/minicode/internal/domain/source"
)

const (
	IndexFile  = "index.html"
	StyleFile  = "styles.css"
	ScriptFile = "script.js"
)

// Names lists the exported files in archive order
var Names = []string{IndexFile, StyleFile, ScriptFile}

var (
	ErrUnknownFormat = errors.New("unknown archive format")
	ErrUnknownFile   = errors.New("unknown export file")
)

var fileTypes = map[string]string{
	IndexFile:  "text/html; charset=utf-8",
	StyleFile:  "text/css; charset=utf-8",
	ScriptFile: "text/javascript; charset=utf-8",
}

// Files maps each file name to the raw buffer text. The HTML buffer is
// exported as typed, not the assembled preview document.
func Files(state source.State) map[string]string {
	return map[string]string{
		IndexFile:  state.HTML,
		StyleFile:  state.CSS,
		ScriptFile: state.JS,
	}
}

// File returns a single exported file
func File(state source.State, name string) (string, error) {
	content, ok := Files(state)[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFile, name)
	}
	return content, nil
}

// ContentType returns the media type for an exported file, sniffing
// unknown names.
func ContentType(name string, content []byte) string {
	if ct, ok := fileTypes[name]; ok {
		return ct
	}
	return mimetype.Detect(content).String()
}

// Format is an archive container
type Format string

const (
	FormatZip    Format = "zip"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
)

// ParseFormat accepts a format name; the empty string means zip
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zip":
		return FormatZip, nil
	case "tar.gz", "tgz", "gzip":
		return FormatTarGz, nil
	case "tar.zst", "zst", "zstd":
		return FormatTarZst, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension including the leading dot
func (f Format) Extension() string {
	return "." + string(f)
}

// WriteArchive writes files to w in the given container. Entries appear in
// Names order; modTime is stamped on every entry.
func WriteArchive(w io.Writer, files map[string]string, format Format, modTime time.Time) error {
	switch format {
	case FormatZip:
		return writeZip(w, files, modTime)
	case FormatTarGz:
		gz := gzip.NewWriter(w)
		if err := writeTar(gz, files, modTime); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	case FormatTarZst:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		if err := writeTar(zw, files, modTime); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func writeZip(w io.Writer, files map[string]string, modTime time.Time) error {
	zw := zip.NewWriter(w)
	for _, name := range ordered(files) {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func writeTar(w io.Writer, files map[string]string, modTime time.Time) error {
	tw := tar.NewWriter(w)
	for _, name := range ordered(files) {
		content := files[name]
		hdr := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := io.WriteString(tw, content); err != nil {
			return err
		}
	}
	return tw.Close()
}

// ordered returns the known names first, then any others sorted.
func ordered(files map[string]string) []string {
	names := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, n := range Names {
		if _, ok := files[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var rest []string
	for n := range files {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
