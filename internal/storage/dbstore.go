package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"gorm.io/gorm"
)

// DBStore keeps resumes as rows in the resume_blobs table.
type DBStore struct {
	DB *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{DB: db}
}

func (s *DBStore) Save(ctx context.Context, filename, contentType, uploadedBy string, r io.Reader) (*ResumeFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	blob := models.ResumeBlob{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedBy:  uploadedBy,
		Data:        data,
	}
	if err := s.DB.WithContext(ctx).Create(&blob).Error; err != nil {
		return nil, fmt.Errorf("save resume blob: %w", err)
	}
	return blobFile(&blob), nil
}

func (s *DBStore) Open(ctx context.Context, id string) (*ResumeFile, io.ReadCloser, error) {
	var blob models.ResumeBlob
	if err := s.DB.WithContext(ctx).First(&blob, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("load resume blob: %w", err)
	}
	return blobFile(&blob), io.NopCloser(bytes.NewReader(blob.Data)), nil
}

func (s *DBStore) Delete(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.ResumeBlob{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete resume blob: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

func blobFile(b *models.ResumeBlob) *ResumeFile {
	return &ResumeFile{
		ID:          b.ID,
		Filename:    b.Filename,
		ContentType: b.ContentType,
		Size:        b.Size,
		UploadedBy:  b.UploadedBy,
		UploadedAt:  b.CreatedAt,
	}
}
