package export

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/minicode/internal/domain/source"
)

var stamp = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestFilesExactlyThreeEntries(t *testing.T) {
	files := Files(source.State{HTML: "A", CSS: "B", JS: "C", IsDarkTheme: true})
	assert.Equal(t, map[string]string{
		"index.html": "A",
		"styles.css": "B",
		"script.js":  "C",
	}, files)
}

func TestFilesRawHTML(t *testing.T) {
	html := "<!DOCTYPE html><html><body><p>x</p></body></html>"
	files := Files(source.State{HTML: html})
	assert.Equal(t, html, files[IndexFile], "HTML is exported as typed, not assembled")
	assert.Equal(t, "", files[StyleFile])
}

func TestFile(t *testing.T) {
	state := source.State{HTML: "A", CSS: "B", JS: "C"}

	content, err := File(state, "styles.css")
	require.NoError(t, err)
	assert.Equal(t, "B", content)

	_, err = File(state, "../etc/passwd")
	assert.ErrorIs(t, err, ErrUnknownFile)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", ContentType(IndexFile, []byte("A")))
	assert.Equal(t, "text/css; charset=utf-8", ContentType(StyleFile, []byte("B")))
	assert.Equal(t, "text/javascript; charset=utf-8", ContentType(ScriptFile, []byte("C")))
	assert.Equal(t, "image/png", ContentType("logo", []byte("\x89PNG\r\n\x1a\n0000")))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatZip},
		{in: "zip", want: FormatZip},
		{in: "ZIP", want: FormatZip},
		{in: "tar.gz", want: FormatTarGz},
		{in: "tgz", want: FormatTarGz},
		{in: "tar.zst", want: FormatTarZst},
		{in: "zstd", want: FormatTarZst},
		{in: "rar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteArchiveZip(t *testing.T) {
	var buf bytes.Buffer
	files := Files(source.State{HTML: "A", CSS: "B", JS: "C"})
	require.NoError(t, WriteArchive(&buf, files, FormatZip, stamp))

	assert.True(t, mimetype.Detect(buf.Bytes()).Is("application/zip"))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	got := map[string]string{}
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		got[f.Name] = string(data)
		order = append(order, f.Name)
	}
	assert.Equal(t, files, got)
	assert.Equal(t, Names, order)
}

func readTar(t *testing.T, r io.Reader) (map[string]string, []string) {
	t.Helper()
	tr := tar.NewReader(r)
	got := map[string]string{}
	var order []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		got[hdr.Name] = string(data)
		order = append(order, hdr.Name)
		assert.True(t, hdr.ModTime.Equal(stamp))
	}
	return got, order
}

func TestWriteArchiveTarGz(t *testing.T) {
	var buf bytes.Buffer
	files := Files(source.State{HTML: "<p>A</p>", CSS: "p{}", JS: "1"})
	require.NoError(t, WriteArchive(&buf, files, FormatTarGz, stamp))

	assert.True(t, mimetype.Detect(buf.Bytes()).Is("application/gzip"))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	got, order := readTar(t, gz)
	assert.Equal(t, files, got)
	assert.Equal(t, Names, order)
}

func TestWriteArchiveTarZst(t *testing.T) {
	var buf bytes.Buffer
	files := Files(source.Default())
	require.NoError(t, WriteArchive(&buf, files, FormatTarZst, stamp))

	assert.True(t, mimetype.Detect(buf.Bytes()).Is("application/zstd"))

	zr, err := zstd.NewReader(&buf)
	require.NoError(t, err)
	defer zr.Close()
	got, _ := readTar(t, zr)
	assert.Equal(t, files, got)
}

func TestWriteArchiveUnknownFormat(t *testing.T) {
	err := WriteArchive(io.Discard, Files(source.State{}), Format("rar"), stamp)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestOrderedExtraNames(t *testing.T) {
	files := map[string]string{"z.txt": "", "a.txt": "", ScriptFile: "", IndexFile: ""}
	assert.Equal(t, []string{IndexFile, ScriptFile, "a.txt", "z.txt"}, ordered(files))
}
