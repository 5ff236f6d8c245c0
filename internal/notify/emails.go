package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/justsurfingit/internship-tracker/internal/mailer"
	"github.com/justsurfingit/internship-tracker/internal/models"
)

// Senders holds the From address for each family of messages.
type Senders struct {
	Default string
	Notify  string
	Signup  string
	Removed string
}

// Emails builds every message the application sends.
type Emails struct {
	senders     Senders
	frontendURL string
	backendURL  string
}

func NewEmails(senders Senders, frontendURL, backendURL string) *Emails {
	if senders.Notify == "" {
		senders.Notify = senders.Default
	}
	if senders.Signup == "" {
		senders.Signup = senders.Default
	}
	if senders.Removed == "" {
		senders.Removed = senders.Default
	}
	return &Emails{
		senders:     senders,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		backendURL:  strings.TrimRight(backendURL, "/"),
	}
}

func (e *Emails) JobURL(jobID string) string {
	return fmt.Sprintf("%s/jobs/%s", e.frontendURL, jobID)
}

func (e *Emails) ResumeURL(applicationID string) string {
	return fmt.Sprintf("%s/api/applications/%s/resume", e.backendURL, applicationID)
}

func or(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

var otpTemplate = template.Must(template.New("otp").Parse(`
<h2>{{.Heading}}</h2>
<p>Hello {{.Name}},</p>
<p>{{.Intro}}</p>
<h1 style="color: #4F46E5; font-size: 32px; letter-spacing: 8px;">{{.Code}}</h1>
<p>This OTP will expire in {{.Minutes}} minutes.</p>
<p>{{.Footer}}</p>
`))

type otpView struct {
	Heading, Name, Intro, Code, Footer string
	Minutes                            int
}

func renderOTP(v otpView) string {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, v); err != nil {
		// Only reachable with a broken template.
		return fmt.Sprintf("%s: %s", v.Intro, v.Code)
	}
	return buf.String()
}

func (e *Emails) Welcome(u *models.User) mailer.Message {
	return mailer.Message{
		From:    e.senders.Signup,
		To:      []string{u.Email},
		Subject: "Welcome to MyApp!",
		Text:    fmt.Sprintf("Hello %s,\n\nThank you for signing up.", u.Name),
	}
}

func (e *Emails) LoginOTP(u *models.User, code string, minutes int) mailer.Message {
	return mailer.Message{
		From:    e.senders.Default,
		To:      []string{u.Email},
		Subject: "Login OTP Verification",
		Text:    fmt.Sprintf("Hello %s,\n\nYour OTP for login verification is: %s\nThis OTP will expire in %d minutes.", u.Name, code, minutes),
		HTML: renderOTP(otpView{
			Heading: "Login Verification",
			Name:    u.Name,
			Intro:   "Your OTP for login verification is:",
			Code:    code,
			Minutes: minutes,
			Footer:  "If you didn't attempt to login, please secure your account immediately.",
		}),
	}
}

func (e *Emails) ResetOTP(u *models.User, code string, minutes int) mailer.Message {
	return mailer.Message{
		From:    e.senders.Default,
		To:      []string{u.Email},
		Subject: "Password Reset OTP",
		Text:    fmt.Sprintf("Hello %s,\n\nYour OTP for password reset is: %s\nThis OTP will expire in %d minutes.", u.Name, code, minutes),
		HTML: renderOTP(otpView{
			Heading: "Password Reset Request",
			Name:    u.Name,
			Intro:   "Your OTP for password reset is:",
			Code:    code,
			Minutes: minutes,
			Footer:  "If you didn't request this, please ignore this email.",
		}),
	}
}

func (e *Emails) PasswordReset(u *models.User) mailer.Message {
	return mailer.Message{
		From:    e.senders.Default,
		To:      []string{u.Email},
		Subject: "Password Reset Successful",
		Text:    fmt.Sprintf("Hello %s,\n\nYour password has been successfully reset. If you didn't make this change, please contact support immediately.", u.Name),
	}
}

func (e *Emails) AccountRemoved(u *models.User) mailer.Message {
	return mailer.Message{
		From:    e.senders.Removed,
		To:      []string{u.Email},
		Subject: "Your account has been removed",
		Text:    fmt.Sprintf("Hello %s,\n\nYour account on our platform has been removed by an administrator. If you think this is a mistake, please contact support.", u.Name),
	}
}

func (e *Emails) NewJob(student models.User, job *models.Job) mailer.Message {
	return mailer.Message{
		From:    e.senders.Notify,
		To:      []string{student.Email},
		Subject: fmt.Sprintf("New job posted: %s", or(job.Title, "Untitled")),
		Text: fmt.Sprintf("Hello %s,\n\nA new job has been posted:\n\nTitle: %s\nCompany: %s\nLocation: %s\nStipend: %s\n\nView & apply: %s\n\nIf you do not wish to receive these notifications, please contact the administrator.",
			student.Name, job.Title, job.CompanyName, or(job.Location, "Not specified"), or(job.Stipend, "Unspecified"), e.JobURL(job.ID)),
	}
}

func (e *Emails) JobRemovedOwner(owner *models.User, job *models.Job) mailer.Message {
	return mailer.Message{
		From:    e.senders.Notify,
		To:      []string{owner.Email},
		Subject: fmt.Sprintf("Your job %q has been removed", or(job.Title, "Untitled")),
		Text:    fmt.Sprintf("Hello %s,\n\nAn administrator has removed your job posting titled %q. If you have questions, please contact support.", owner.Name, job.Title),
	}
}

func (e *Emails) JobRemovedApplicant(student models.User, job *models.Job) mailer.Message {
	return mailer.Message{
		From:    e.senders.Notify,
		To:      []string{student.Email},
		Subject: fmt.Sprintf("Job %q removed", job.Title),
		Text:    fmt.Sprintf("Hello %s,\n\nThe job you applied for (%q) has been removed by an administrator. Your application record has been deleted. If you have questions, please contact support.", student.Name, job.Title),
	}
}

func (e *Emails) NewApplication(owner, student *models.User, job *models.Job) mailer.Message {
	applicant, applicantEmail := "", ""
	if student != nil {
		applicant = or(student.Name, student.Email)
		applicantEmail = student.Email
	}
	return mailer.Message{
		From:    e.senders.Notify,
		To:      []string{owner.Email},
		Subject: fmt.Sprintf("New application for %s", or(job.Title, "your job")),
		Text: fmt.Sprintf("Hello %s,\n\nA new application has been submitted for your job posting:\n\nJob: %s\nApplicant: %s\nApplicant Email: %s\n\nView job: %s\n\nIf you have access to the company dashboard, you can review applications there.",
			owner.Name, job.Title, applicant, applicantEmail, e.JobURL(job.ID)),
	}
}

func decisionWord(status models.ApplicationStatus) string {
	if status == models.StatusAccepted {
		return "accepted"
	}
	return "rejected"
}

func (e *Emails) Decision(student *models.User, job *models.Job, app *models.Application) mailer.Message {
	word := decisionWord(app.Status)
	feedback := ""
	if app.Feedback != "" {
		feedback = fmt.Sprintf("\n\nFeedback from Company:\n%s\n", app.Feedback)
	}
	return mailer.Message{
		From:    e.senders.Notify,
		To:      []string{student.Email},
		Subject: fmt.Sprintf("Your application for %s has been %s", or(job.Title, "the job"), word),
		Text: fmt.Sprintf("Hello %s,\n\nYour application for the position %q has been %s.\n\nCompany: %s\nDecision: %s%s\nYou can view the job here: %s\n\nIf you have questions, please contact the company or administrator.",
			student.Name, job.Title, word, job.CompanyName, word, feedback, e.JobURL(job.ID)),
	}
}

func (e *Emails) CompanyContact(student, owner *models.User, job *models.Job) mailer.Message {
	return mailer.Message{
		From:    e.senders.Notify,
		To:      []string{student.Email},
		Subject: fmt.Sprintf("Contact details for %s", or(job.CompanyName, "the company")),
		Text: fmt.Sprintf("Hello %s,\n\nThe company that reviewed your application can be reached at: %s\n\nCompany: %s\nIf you have questions, reply to that email or contact support.",
			student.Name, owner.Email, job.CompanyName),
	}
}

func (e *Emails) SelectionConfirmation(owner, student *models.User, job *models.Job, app *models.Application) mailer.Message {
	return mailer.Message{
		From:    e.senders.Notify,
		To:      []string{owner.Email},
		Subject: fmt.Sprintf("You selected %s for %s", or(student.Name, student.Email), job.Title),
		Text: fmt.Sprintf("Hello %s,\n\nYou have selected the following applicant for your job:\n\nName: %s\nEmail: %s\nApplication ID: %s\nResume: %s\n\nThis email is a confirmation record of the selection. Keep it for your records.",
			owner.Name, student.Name, student.Email, app.ID, e.ResumeURL(app.ID)),
	}
}

var contactTemplate = template.Must(template.New("contact").Parse(
	`<p>You received a new message from <strong>{{.Name}}</strong> (<a href="mailto:{{.Email}}">{{.Email}}</a>):</p><p>{{range $i, $line := .Lines}}{{if $i}}<br/>{{end}}{{$line}}{{end}}</p>`))

func (e *Emails) Contact(adminEmail, name, email, message string) mailer.Message {
	var html bytes.Buffer
	_ = contactTemplate.Execute(&html, struct {
		Name, Email string
		Lines       []string
	}{name, email, strings.Split(message, "\n")})
	return mailer.Message{
		From:    e.senders.Default,
		To:      []string{adminEmail},
		ReplyTo: (&mail.Address{Name: name, Address: email}).String(),
		Subject: fmt.Sprintf("New contact message from %s", name),
		Text:    fmt.Sprintf("You received a new message from %s (%s):\n\n%s", name, email, message),
		HTML:    html.String(),
	}
}
