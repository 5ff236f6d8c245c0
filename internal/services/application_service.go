package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"github.com/justsurfingit/internship-tracker/internal/notify"
	"github.com/justsurfingit/internship-tracker/internal/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ApplicationService struct {
	DB       *gorm.DB
	Notifier *notify.Notifier
	Emails   *notify.Emails
	Resumes  storage.ResumeStore
	Legacy   storage.LegacyDir
}

func NewApplicationService(db *gorm.DB, n *notify.Notifier, emails *notify.Emails, resumes storage.ResumeStore, legacy storage.LegacyDir) *ApplicationService {
	return &ApplicationService{
		DB:       db,
		Notifier: n,
		Emails:   emails,
		Resumes:  resumes,
		Legacy:   legacy,
	}
}

func (s *ApplicationService) find(ctx context.Context, id string, preload ...string) (*models.Application, error) {
	q := s.DB.WithContext(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	var app models.Application
	if err := q.First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

// Apply records a student's application and tells the job owner.
func (s *ApplicationService) Apply(ctx context.Context, studentID string, req *dtos.ApplyRequest) (*models.Application, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return nil, invalid("jobId required")
	}
	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", req.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("find job: %w", err)
	}

	var existing int64
	err := s.DB.WithContext(ctx).Model(&models.Application{}).
		Where("job_id = ? AND student_id = ?", job.ID, studentID).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyApplied
	}

	if req.ResumeFileID != "" {
		if err := s.checkResumeOwner(ctx, req.ResumeFileID, studentID); err != nil {
			return nil, err
		}
	}

	app := &models.Application{
		JobID:              job.ID,
		StudentID:          studentID,
		CoverLetter:        req.CoverLetter,
		ResumeURL:          req.ResumeURL,
		ResumeFileID:       req.ResumeFileID,
		ResumeOriginalName: req.ResumeOriginalName,
	}
	if err := s.DB.WithContext(ctx).Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyApplied
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	if job.CreatedBy != "" {
		s.Notifier.Go("application notification email", func(ctx context.Context) error {
			var owner models.User
			if err := s.DB.WithContext(ctx).First(&owner, "id = ?", job.CreatedBy).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return fmt.Errorf("load job owner: %w", err)
			}
			var student *models.User
			var st models.User
			if err := s.DB.WithContext(ctx).First(&st, "id = ?", studentID).Error; err == nil {
				student = &st
			}
			s.Notifier.Deliver(ctx, s.Emails.NewApplication(&owner, student, &job))
			return nil
		})
	}
	return app, nil
}

// checkResumeOwner makes sure a stored resume was uploaded by studentID.
func (s *ApplicationService) checkResumeOwner(ctx context.Context, fileID, studentID string) error {
	file, body, err := s.Resumes.Open(ctx, fileID)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return ErrResumeMissing
		}
		return fmt.Errorf("open resume: %w", err)
	}
	_ = body.Close()
	if file.UploadedBy != studentID {
		return ErrForbidden
	}
	return nil
}

func (s *ApplicationService) ListMine(ctx context.Context, studentID string) ([]models.Application, error) {
	apps := []models.Application{}
	err := s.DB.WithContext(ctx).
		Preload("Job").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ListForCompany returns the pending applications for jobs created by ownerID.
func (s *ApplicationService) ListForCompany(ctx context.Context, ownerID string) ([]models.Application, error) {
	apps := []models.Application{}
	jobIDs := s.DB.Model(&models.Job{}).Select("id").Where("created_by = ?", ownerID)
	err := s.DB.WithContext(ctx).
		Preload("Job").
		Preload("Student").
		Where("job_id IN (?) AND status = ?", jobIDs, models.StatusApplied).
		Order("created_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list company applications: %w", err)
	}
	return apps, nil
}

func (s *ApplicationService) ListAll(ctx context.Context) ([]models.Application, error) {
	apps := []models.Application{}
	err := s.DB.WithContext(ctx).
		Preload("Job").
		Preload("Student").
		Order("created_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list all applications: %w", err)
	}
	return apps, nil
}

// Decide accepts or rejects an application for a job owned by callerID.
func (s *ApplicationService) Decide(ctx context.Context, callerID, id string, req *dtos.DecisionRequest) (*models.Application, error) {
	var status models.ApplicationStatus
	switch req.Action {
	case "accept":
		status = models.StatusAccepted
	case "reject":
		status = models.StatusRejected
	default:
		return nil, ErrInvalidAction
	}

	app, err := s.find(ctx, id, "Job", "Student")
	if err != nil {
		return nil, err
	}
	if app.Job == nil || app.Job.CreatedBy == "" || app.Job.CreatedBy != callerID {
		return nil, ErrNotJobOwner
	}
	if app.Status == models.StatusWithdrawn {
		return nil, ErrApplicationWithdrawn
	}

	now := time.Now()
	app.Status = status
	app.Feedback = req.Feedback
	app.DecisionAt = &now
	app.DecidedBy = callerID
	err = s.DB.WithContext(ctx).Model(&models.Application{ID: app.ID}).Updates(map[string]any{
		"status":      app.Status,
		"feedback":    app.Feedback,
		"decision_at": now,
		"decided_by":  callerID,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("save decision: %w", err)
	}

	s.notifyDecision(*app)
	return app, nil
}

func (s *ApplicationService) notifyDecision(app models.Application) {
	s.Notifier.Go("application decision notification", func(ctx context.Context) error {
		student, job := app.Student, app.Job
		if student == nil || student.Email == "" || job == nil {
			return nil
		}
		s.Notifier.Deliver(ctx, s.Emails.Decision(student, job, &app))

		var owner models.User
		if err := s.DB.WithContext(ctx).First(&owner, "id = ?", job.CreatedBy).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("load job owner: %w", err)
		}
		if owner.Email == "" {
			return nil
		}
		s.Notifier.Deliver(ctx, s.Emails.CompanyContact(student, &owner, job))
		if app.Status == models.StatusAccepted {
			s.Notifier.Deliver(ctx, s.Emails.SelectionConfirmation(&owner, student, job, &app))
		}
		return nil
	})
}

// Withdraw lets a student pull back an application nobody has decided on.
func (s *ApplicationService) Withdraw(ctx context.Context, studentID, id string) (*models.Application, error) {
	app, err := s.find(ctx, id, "Job")
	if err != nil {
		return nil, err
	}
	if app.StudentID != studentID {
		return nil, ErrForbidden
	}
	if app.Status != models.StatusApplied && app.Status != models.StatusViewed {
		return nil, ErrNotWithdrawable
	}
	app.Status = models.StatusWithdrawn
	if err := s.DB.WithContext(ctx).Model(&models.Application{ID: app.ID}).Update("status", app.Status).Error; err != nil {
		return nil, fmt.Errorf("withdraw application: %w", err)
	}
	return app, nil
}

// UploadResume stores a resume before the student applies with it.
func (s *ApplicationService) UploadResume(ctx context.Context, uploadedBy, filename, contentType string, r io.Reader) (*storage.ResumeFile, error) {
	return s.Resumes.Save(ctx, filename, contentType, uploadedBy, r)
}

// ResumeDownload is an open resume ready to stream.
type ResumeDownload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// OpenResume checks that caller may see the application's resume and opens
// it. Companies must own the job and students the application. A company
// opening an unseen application marks it Viewed.
func (s *ApplicationService) OpenResume(ctx context.Context, caller *auth.Identity, id string) (*ResumeDownload, error) {
	app, err := s.find(ctx, id, "Job")
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case models.RoleCompany:
		if app.Job == nil || app.Job.CreatedBy == "" || app.Job.CreatedBy != caller.UserID {
			return nil, ErrForbidden
		}
	case models.RoleStudent:
		if app.StudentID != caller.UserID {
			return nil, ErrForbidden
		}
	case models.RoleAdmin, models.RoleFaculty:
	default:
		return nil, ErrForbidden
	}

	legacyName := storage.LegacyName(app.ResumeFilename, app.ResumeURL)
	if app.ResumeFileID == "" && legacyName == "" {
		return nil, ErrResumeNotAttached
	}

	var (
		file *storage.ResumeFile
		body io.ReadCloser
	)
	if app.ResumeFileID != "" {
		file, body, err = s.Resumes.Open(ctx, app.ResumeFileID)
	} else {
		file, body, err = s.Legacy.Open(legacyName)
	}
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, ErrResumeMissing
		}
		return nil, err
	}

	if caller.Role == models.RoleCompany && app.Status == models.StatusApplied {
		err := s.DB.WithContext(ctx).Model(&models.Application{ID: app.ID}).Update("status", models.StatusViewed).Error
		if err != nil {
			log.Warn().Err(err).Str("application_id", app.ID).Msg("failed to mark application viewed")
		}
	}

	name := app.ResumeOriginalName
	if name == "" {
		name = file.Filename
	}
	if name == "" {
		name = "resume"
	}
	return &ResumeDownload{
		Name:        strings.ReplaceAll(name, `"`, ""),
		ContentType: file.ContentType,
		Size:        file.Size,
		Body:        body,
	}, nil
}
