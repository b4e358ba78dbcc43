package store

import (
	"bytes"
	"io"
	"mime"
	"path/filepath"
)

type File struct {
	Name        string
	ContentSize int
	io.Reader
}

// NewFile wraps an in-memory blob.
func NewFile(name string, data []byte) File {
	return File{Name: name, ContentSize: len(data), Reader: bytes.NewReader(data)}
}

func (f File) ContentType() string {
	if ct := mime.TypeByExtension(filepath.Ext(f.Name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (f File) Len() int {
	return f.ContentSize
}
