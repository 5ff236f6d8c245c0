package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/models"
	"gorm.io/gorm"
)

const ExportFilename = "validated_internships.csv"

var exportHeader = []string{"studentName", "studentEmail", "company", "role", "startDate", "endDate"}

type ExportService struct {
	DB *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{DB: db}
}

// WriteValidatedInternships writes every Validated internship as CSV.
func (s *ExportService) WriteValidatedInternships(ctx context.Context, w io.Writer) error {
	var internships []models.Internship
	err := s.DB.WithContext(ctx).
		Preload("Student").
		Where("status = ?", models.InternshipValidated).
		Order("created_at ASC").
		Find(&internships).Error
	if err != nil {
		return fmt.Errorf("load validated internships: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, it := range internships {
		var name, email string
		if it.Student != nil {
			name, email = it.Student.Name, it.Student.Email
		}
		row := []string{name, email, it.CompanyName, it.Role, formatDate(it.StartDate), formatDate(it.EndDate)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
