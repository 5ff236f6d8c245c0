package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"gorm.io/gorm"
)

type InternshipService struct {
	DB *gorm.DB
}

func NewInternshipService(db *gorm.DB) *InternshipService {
	return &InternshipService{DB: db}
}

// InternshipFilter holds the optional query parameters of a listing.
type InternshipFilter struct {
	StudentID string
	Status    string
}

// List applies the visibility rules for caller, which is nil for anonymous
// requests. Faculty see Pending by default. Only the student themselves,
// admins and companies may filter by student. Other unfiltered requests from
// anyone but an admin see Validated records only.
func (s *InternshipService) List(ctx context.Context, caller *auth.Identity, f InternshipFilter) ([]models.Internship, error) {
	q := s.DB.WithContext(ctx).Preload("Student")

	status := f.Status
	if caller != nil && caller.Role == models.RoleFaculty && status == "" {
		status = string(models.InternshipPending)
	}

	if f.StudentID != "" {
		allowed := false
		if caller != nil {
			switch caller.Role {
			case models.RoleStudent:
				allowed = caller.UserID == f.StudentID
			case models.RoleAdmin, models.RoleCompany:
				allowed = true
			}
		}
		if !allowed {
			return nil, ErrForbidden
		}
		q = q.Where("student_id = ?", f.StudentID)
	}

	if f.StudentID == "" && status == "" && (caller == nil || caller.Role != models.RoleAdmin) {
		status = string(models.InternshipValidated)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	internships := []models.Internship{}
	if err := q.Order("created_at DESC").Find(&internships).Error; err != nil {
		return nil, fmt.Errorf("list internships: %w", err)
	}
	return internships, nil
}

// Create records an internship reported by studentID. It starts Pending.
func (s *InternshipService) Create(ctx context.Context, studentID string, req *dtos.InternshipRequest) (*models.Internship, error) {
	if strings.TrimSpace(req.CompanyName) == "" {
		return nil, invalid("companyName required")
	}
	start, err := dtos.ParseDate(req.StartDate)
	if err != nil {
		return nil, invalid("invalid startDate")
	}
	end, err := dtos.ParseDate(req.EndDate)
	if err != nil {
		return nil, invalid("invalid endDate")
	}
	it := &models.Internship{
		StudentID:   studentID,
		CompanyName: strings.TrimSpace(req.CompanyName),
		Role:        req.Role,
		StartDate:   start,
		EndDate:     end,
		Status:      models.InternshipPending,
	}
	if err := s.DB.WithContext(ctx).Create(it).Error; err != nil {
		return nil, fmt.Errorf("create internship: %w", err)
	}
	return it, nil
}

// Validate marks an internship Validated when action is "validate" and
// Rejected otherwise.
func (s *InternshipService) Validate(ctx context.Context, facultyID, id, action string) (*models.Internship, error) {
	var it models.Internship
	if err := s.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find internship: %w", err)
	}
	it.Status = models.InternshipRejected
	if action == "validate" {
		it.Status = models.InternshipValidated
	}
	it.ValidatedBy = facultyID
	err := s.DB.WithContext(ctx).Model(&models.Internship{ID: it.ID}).Updates(map[string]any{
		"status":       it.Status,
		"validated_by": facultyID,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("validate internship: %w", err)
	}
	return &it, nil
}
