package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/snappy"
)

const Ext = ".tar.sz"

// Archive wraps data into a single-entry tar compressed with framed snappy.
// Attachments always land in storage as containers, never as bare files, and
// the container name is derived from the sanitized title, so the result is
// deterministic for a given title.
func Archive(title, fileName string, data []byte) (archivedName string, out []byte, err error) {
	if fileName == "" {
		err = fmt.Errorf("empty file name")
		return
	}
	var buf bytes.Buffer
	sw := snappy.NewBufferedWriter(&buf)
	tw := tar.NewWriter(sw)
	hdr := &tar.Header{
		Name:    fileName,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Unix(0, 0),
	}
	if err = tw.WriteHeader(hdr); err != nil {
		return
	}
	if _, err = tw.Write(data); err != nil {
		return
	}
	if err = tw.Close(); err != nil {
		return
	}
	if err = sw.Close(); err != nil {
		return
	}
	return Sanitize(title) + Ext, buf.Bytes(), nil
}

// Extract reads the single entry back out of an archived container.
func Extract(archived []byte) (fileName string, data []byte, err error) {
	tr := tar.NewReader(snappy.NewReader(bytes.NewReader(archived)))
	hdr, err := tr.Next()
	if err != nil {
		return
	}
	data, err = io.ReadAll(tr)
	return hdr.Name, data, err
}

// Sanitize lowercases the title and collapses every run of characters outside
// [a-z0-9] into a single dash.
func Sanitize(title string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "document"
	}
	return out
}
