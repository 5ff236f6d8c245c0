package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCompany, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

type ApplicationStatus string

const (
	StatusApplied   ApplicationStatus = "Applied"
	StatusViewed    ApplicationStatus = "Viewed"
	StatusAccepted  ApplicationStatus = "Accepted"
	StatusRejected  ApplicationStatus = "Rejected"
	StatusWithdrawn ApplicationStatus = "Withdrawn"
)

type InternshipStatus string

const (
	InternshipPending   InternshipStatus = "Pending"
	InternshipValidated InternshipStatus = "Validated"
	InternshipRejected  InternshipStatus = "Rejected"
)

type User struct {
	ID        string     `gorm:"primaryKey;size:36" json:"_id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Name      string     `json:"name"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role       `gorm:"index;default:'student'" json:"role"`
	LastLogin *time.Time `json:"lastLogin"`

	PasswordHash string `gorm:"not null" json:"-"`

	// OTP values are stored as hashes, never in clear.
	LoginOTP             string     `json:"-"`
	LoginOTPExpires      *time.Time `json:"-"`
	ResetPasswordOTP     string     `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Job struct {
	ID          string     `gorm:"primaryKey;size:36" json:"_id"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Title       string     `gorm:"not null" json:"title"`
	CompanyName string     `gorm:"not null" json:"companyName"`
	Description string     `gorm:"type:text" json:"description"`
	Location    string     `json:"location"`
	Stipend     string     `json:"stipend"`
	Deadline    *time.Time `json:"deadline"`
	CreatedBy   string     `gorm:"index;size:36" json:"createdBy,omitempty"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

type Application struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	JobID string `gorm:"index;uniqueIndex:idx_application_job_student;not null;size:36" json:"jobId"`
	// Populated with Preload; nil otherwise.
	Job       *Job   `gorm:"foreignKey:JobID" json:"job,omitempty"`
	StudentID string `gorm:"index;uniqueIndex:idx_application_job_student;not null;size:36" json:"studentId"`
	Student   *User  `gorm:"foreignKey:StudentID" json:"student,omitempty"`

	CoverLetter        string `gorm:"type:text" json:"coverLetter"`
	ResumeURL          string `json:"resumeUrl"`
	ResumeFileID       string `json:"resumeFileId,omitempty"`
	ResumeOriginalName string `json:"resumeOriginalName"`
	// Name of a resume kept on local disk by older deployments.
	ResumeFilename string `json:"resumeFilename"`

	Status     ApplicationStatus `gorm:"index;default:'Applied'" json:"status"`
	Feedback   string            `gorm:"type:text" json:"feedback"`
	DecisionAt *time.Time        `json:"decisionAt"`
	DecidedBy  string            `json:"decidedBy,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusApplied
	}
	return nil
}

type Internship struct {
	ID          string           `gorm:"primaryKey;size:36" json:"_id"`
	CreatedAt   time.Time        `json:"createdAt"`
	StudentID   string           `gorm:"index;size:36" json:"studentId"`
	Student     *User            `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CompanyName string           `json:"companyName"`
	Role        string           `json:"role"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
	Status      InternshipStatus `gorm:"index;default:'Pending'" json:"status"`
	ValidatedBy string           `json:"validatedBy,omitempty"`
}

func (i *Internship) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = InternshipPending
	}
	return nil
}

// ResumeBlob holds uploaded resumes when no GridFS deployment is configured.
type ResumeBlob struct {
	ID          string `gorm:"primaryKey;size:36"`
	CreatedAt   time.Time
	Filename    string
	ContentType string
	Size        int64
	UploadedBy  string `gorm:"index;size:36"`
	Data        []byte
}
