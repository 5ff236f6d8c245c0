package database

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"gorm.io/gorm"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "password123"

var demoUsers = []models.User{
	{Name: "Demo Student", Email: "student@demo.com", Role: models.RoleStudent},
	{Name: "Demo Faculty", Email: "faculty@demo.com", Role: models.RoleFaculty},
	{Name: "Demo Admin", Email: "admin@demo.com", Role: models.RoleAdmin},
	{Name: "Demo Company", Email: "hr@demo.com", Role: models.RoleCompany},
}

// SeedResult lists what Seed inserted.
type SeedResult struct {
	Users []models.User
	Jobs  []models.Job
}

// Seed wipes users and jobs, then inserts one demo account per role and two
// jobs owned by the demo company.
func Seed(ctx context.Context, db *gorm.DB, password string, now time.Time) (*SeedResult, error) {
	if password == "" {
		password = DemoPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	result := &SeedResult{}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Job{}).Error; err != nil {
			return fmt.Errorf("clear jobs: %w", err)
		}

		users := make([]models.User, len(demoUsers))
		copy(users, demoUsers)
		var companyID string
		for i := range users {
			users[i].PasswordHash = hash
			if err := tx.Create(&users[i]).Error; err != nil {
				return fmt.Errorf("create %s: %w", users[i].Email, err)
			}
			if users[i].Role == models.RoleCompany {
				companyID = users[i].ID
			}
		}

		week := now.Add(7 * 24 * time.Hour)
		twoWeeks := now.Add(14 * 24 * time.Hour)
		jobs := []models.Job{
			{Title: "Frontend Intern", CompanyName: "Demo Co", Description: "Build UI components and work with React.", Deadline: &week, CreatedBy: companyID},
			{Title: "Backend Intern", CompanyName: "Demo Co", Description: "Work on APIs and databases with Go.", Deadline: &twoWeeks, CreatedBy: companyID},
		}
		for i := range jobs {
			if err := tx.Create(&jobs[i]).Error; err != nil {
				return fmt.Errorf("create job %q: %w", jobs[i].Title, err)
			}
		}
		result.Users, result.Jobs = users, jobs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
