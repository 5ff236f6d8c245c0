package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LegacyDir reads resumes that older deployments wrote to local disk. It is
// read only; new uploads go to a ResumeStore.
type LegacyDir struct {
	Root string
}

// LegacyName picks the on-disk name from a stored filename or, failing that,
// from the last segment of a resume URL.
func LegacyName(filename, resumeURL string) string {
	name := filename
	if name == "" && resumeURL != "" {
		name = path.Base(strings.TrimRight(resumeURL, "/"))
	}
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// Open opens name inside Root. Only the base name is used.
func (d LegacyDir) Open(name string) (*ResumeFile, io.ReadCloser, error) {
	if d.Root == "" || name == "" {
		return nil, nil, ErrFileNotFound
	}
	full := filepath.Join(d.Root, filepath.Base(name))
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("open legacy resume: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat legacy resume: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrFileNotFound
	}
	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = defaultContentType
	}
	return &ResumeFile{
		ID:          name,
		Filename:    info.Name(),
		ContentType: ctype,
		Size:        info.Size(),
		UploadedAt:  info.ModTime(),
	}, f, nil
}
