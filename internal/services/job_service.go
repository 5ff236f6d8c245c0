package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/mailer"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"github.com/justsurfingit/internship-tracker/internal/notify"
	"github.com/justsurfingit/internship-tracker/internal/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type JobService struct {
	DB       *gorm.DB
	Notifier *notify.Notifier
	Emails   *notify.Emails
	Resumes  storage.ResumeStore
}

func NewJobService(db *gorm.DB, n *notify.Notifier, emails *notify.Emails, resumes storage.ResumeStore) *JobService {
	return &JobService{
		DB:       db,
		Notifier: n,
		Emails:   emails,
		Resumes:  resumes,
	}
}

func (s *JobService) ListJobs(ctx context.Context) ([]models.Job, error) {
	jobs := []models.Job{}
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// CreateJob stores a posting owned by createdBy and tells every student about
// it.
func (s *JobService) CreateJob(ctx context.Context, createdBy string, req *dtos.JobCreationRequest) (*models.Job, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.CompanyName) == "" {
		return nil, invalid("title & companyName required")
	}
	deadline, err := req.DeadlineTime()
	if err != nil {
		return nil, invalid("invalid deadline")
	}
	job := &models.Job{
		Title:       strings.TrimSpace(req.Title),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Description: req.Description,
		Location:    req.Location,
		Stipend:     req.Stipend,
		Deadline:    deadline,
		CreatedBy:   createdBy,
	}
	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	posted := *job
	s.Notifier.Go("new-job notification emails", func(ctx context.Context) error {
		var students []models.User
		err := s.DB.WithContext(ctx).
			Where("role = ? AND email <> ''", models.RoleStudent).
			Find(&students).Error
		if err != nil {
			return fmt.Errorf("load students: %w", err)
		}
		msgs := make([]mailer.Message, 0, len(students))
		for _, st := range students {
			msgs = append(msgs, s.Emails.NewJob(st, &posted))
		}
		sent := s.Notifier.Broadcast(ctx, msgs)
		log.Info().Str("job_id", posted.ID).Int("sent", sent).Int("students", len(msgs)).Msg("new-job notifications done")
		return nil
	})
	return job, nil
}

// DeleteJob removes a job and its applications. The owner and every applicant
// are emailed and stored resume files are removed on a best-effort basis.
func (s *JobService) DeleteJob(ctx context.Context, id string) error {
	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("find job: %w", err)
	}

	var apps []models.Application
	if err := s.DB.WithContext(ctx).Where("job_id = ?", job.ID).Find(&apps).Error; err != nil {
		return fmt.Errorf("load applications: %w", err)
	}

	s.notifyJobRemoved(job, apps)

	if s.Resumes != nil {
		for _, a := range apps {
			if a.ResumeFileID == "" {
				continue
			}
			if err := s.Resumes.Delete(ctx, a.ResumeFileID); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
				log.Warn().Err(err).Str("application_id", a.ID).Msg("failed to delete resume file")
			}
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.Application{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Job{}, "id = ?", job.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (s *JobService) notifyJobRemoved(job models.Job, apps []models.Application) {
	seen := make(map[string]struct{}, len(apps))
	studentIDs := make([]string, 0, len(apps))
	for _, a := range apps {
		if a.StudentID == "" {
			continue
		}
		if _, ok := seen[a.StudentID]; ok {
			continue
		}
		seen[a.StudentID] = struct{}{}
		studentIDs = append(studentIDs, a.StudentID)
	}

	s.Notifier.Go("job deletion notification emails", func(ctx context.Context) error {
		if job.CreatedBy != "" {
			var owner models.User
			err := s.DB.WithContext(ctx).First(&owner, "id = ?", job.CreatedBy).Error
			switch {
			case err == nil && owner.Email != "":
				s.Notifier.Deliver(ctx, s.Emails.JobRemovedOwner(&owner, &job))
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to load job owner")
			}
		}
		if len(studentIDs) == 0 {
			return nil
		}
		var students []models.User
		if err := s.DB.WithContext(ctx).Where("id IN ?", studentIDs).Find(&students).Error; err != nil {
			return fmt.Errorf("load applicants: %w", err)
		}
		msgs := make([]mailer.Message, 0, len(students))
		for _, st := range students {
			msgs = append(msgs, s.Emails.JobRemovedApplicant(st, &job))
		}
		s.Notifier.Broadcast(ctx, msgs)
		return nil
	})
}
