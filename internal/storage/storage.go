// Package storage keeps uploaded resume files.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrFileNotFound = errors.New("file not found")

// ResumeFile describes a stored file.
type ResumeFile struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	UploadedBy  string
	UploadedAt  time.Time
}

// ResumeStore saves and streams resume files by id.
type ResumeStore interface {
	Save(ctx context.Context, filename, contentType, uploadedBy string, r io.Reader) (*ResumeFile, error)
	// Open returns the file metadata and its content. The caller closes the
	// reader.
	Open(ctx context.Context, id string) (*ResumeFile, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

const defaultContentType = "application/octet-stream"
