package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"github.com/justsurfingit/internship-tracker/internal/notify"
	"gorm.io/gorm"
)

type AuthService struct {
	DB       *gorm.DB
	Tokens   *auth.TokenIssuer
	Notifier *notify.Notifier
	Emails   *notify.Emails
	OTPTTL   time.Duration
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenIssuer, n *notify.Notifier, emails *notify.Emails, otpTTL time.Duration) *AuthService {
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	return &AuthService{
		DB:       db,
		Tokens:   tokens,
		Notifier: n,
		Emails:   emails,
		OTPTTL:   otpTTL,
		now:      time.Now,
	}
}

// AuthResult is returned after a successful signup or login.
type AuthResult struct {
	Token string         `json:"token"`
	User  auth.TokenUser `json:"user"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Role     string
	Password string
}

func (s *AuthService) otpMinutes() int {
	return int(s.OTPTTL.Round(time.Minute) / time.Minute)
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", auth.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	tu := auth.NewTokenUser(user)
	token, err := s.Tokens.Issue(tu)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: tu}, nil
}

// Register creates an account and returns a token for it. Only one admin may
// ever sign up.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, invalid("name, email and password required")
	}
	if !auth.ValidEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	role := models.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	if role == "" {
		role = models.RoleStudent
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.createUser(ctx, in.Name, in.Email, role, in.Password)
	if err != nil {
		return nil, err
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.Notifier.Send("signup email", s.Emails.Welcome(user))
	return result, nil
}

// CreateAdmin creates the single admin account without sending any email.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	if strings.TrimSpace(name) == "" || !auth.ValidEmail(email) || password == "" {
		return nil, invalid("name, valid email and password required")
	}
	return s.createUser(ctx, name, email, models.RoleAdmin, password)
}

func (s *AuthService) createUser(ctx context.Context, name, email string, role models.Role, password string) (*models.User, error) {
	db := s.DB.WithContext(ctx)
	if role == models.RoleAdmin {
		var admins int64
		if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
			return nil, fmt.Errorf("count admins: %w", err)
		}
		if admins > 0 {
			return nil, ErrAdminExists
		}
	}

	email = auth.NormalizeEmail(email)
	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks the password and emails a one-time code. It returns the
// normalized email the code was sent to.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", invalid("email and password required")
	}
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.OTPTTL)
	err = s.DB.WithContext(ctx).Model(user).Updates(map[string]any{
		"login_otp":         auth.HashOTP(code),
		"login_otp_expires": expires,
	}).Error
	if err != nil {
		return "", fmt.Errorf("store login otp: %w", err)
	}

	s.Notifier.Send("login OTP email", s.Emails.LoginOTP(user, code, s.otpMinutes()))
	return user.Email, nil
}

// VerifyLoginOTP consumes a login code and returns a token.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return nil, invalid("email and otp required")
	}
	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}
	if !s.otpValid(user.LoginOTP, user.LoginOTPExpires, code) {
		return nil, ErrInvalidOTP
	}

	now := s.now()
	err = s.DB.WithContext(ctx).Model(user).Updates(map[string]any{
		"login_otp":         "",
		"login_otp_expires": nil,
		"last_login":        now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("clear login otp: %w", err)
	}
	return s.issue(user)
}

func (s *AuthService) otpValid(hash string, expires *time.Time, code string) bool {
	if expires == nil || !expires.After(s.now()) {
		return false
	}
	return auth.MatchOTP(hash, strings.TrimSpace(code))
}

// ForgotPassword emails a reset code when the account exists. Unknown
// addresses are not reported.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email required")
	}
	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Model(user).Updates(map[string]any{
		"reset_password_otp":     auth.HashOTP(code),
		"reset_password_expires": s.now().Add(s.OTPTTL),
	}).Error
	if err != nil {
		return fmt.Errorf("store reset otp: %w", err)
	}

	s.Notifier.Send("password reset OTP email", s.Emails.ResetOTP(user, code, s.otpMinutes()))
	return nil
}

// ResetPassword consumes a reset code and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" || password == "" {
		return invalid("email, otp and password required")
	}
	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	if !s.otpValid(user.ResetPasswordOTP, user.ResetPasswordExpires, code) {
		return ErrInvalidOTP
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Model(user).Updates(map[string]any{
		"password_hash":          hash,
		"reset_password_otp":     "",
		"reset_password_expires": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.Notifier.Send("password reset confirmation email", s.Emails.PasswordReset(user))
	return nil
}

// UserSummary is the admin view of an account.
type UserSummary struct {
	ID        string      `json:"_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	LastLogin *time.Time  `json:"lastLogin"`
}

// ListUsers returns every account except admins.
func (s *AuthService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("role <> ?", models.RoleAdmin).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			LastLogin: u.LastLogin,
		})
	}
	return out, nil
}

// DeleteUser removes a non-admin account on behalf of callerID and emails the
// removed user.
func (s *AuthService) DeleteUser(ctx context.Context, callerID, id string) error {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.Role == models.RoleAdmin {
		return ErrCannotDeleteAdmin
	}
	if callerID == user.ID {
		return ErrCannotRemoveSelf
	}
	if err := s.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", user.ID).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.Notifier.Send("removal email", s.Emails.AccountRemoved(&user))
	return nil
}
