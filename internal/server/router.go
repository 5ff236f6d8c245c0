package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/config"
	"github.com/justsurfingit/internship-tracker/internal/handlers"
	"github.com/justsurfingit/internship-tracker/internal/logger"
	"github.com/justsurfingit/internship-tracker/internal/middleware"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"github.com/justsurfingit/internship-tracker/internal/notify"
	"github.com/justsurfingit/internship-tracker/internal/services"
	"github.com/justsurfingit/internship-tracker/internal/storage"
	"gorm.io/gorm"
)

// Requests per client IP and route allowed on the credential endpoints.
const (
	authRateLimit  = 20
	authRateWindow = 15 * time.Minute
)

// Deps are the long-lived dependencies the router wires into handlers.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Notifier *notify.Notifier
	Resumes  storage.ResumeStore
	// Limiter may be nil to disable rate limiting.
	Limiter middleware.Limiter
	// Extractor may be nil when no model is configured.
	Extractor handlers.JobExtractor
}

func NewEmails(cfg *config.Config) *notify.Emails {
	return notify.NewEmails(notify.Senders{
		Default: cfg.DefaultFrom(),
		Notify:  cfg.NotifyFrom,
		Signup:  cfg.SignupFrom,
		Removed: cfg.RemovedFrom,
	}, cfg.FrontendURL, cfg.BackendURL)
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	emails := NewEmails(cfg)

	authService := services.NewAuthService(d.DB, tokens, d.Notifier, emails, cfg.OTPTTL)
	jobService := services.NewJobService(d.DB, d.Notifier, emails, d.Resumes)
	appService := services.NewApplicationService(d.DB, d.Notifier, emails, d.Resumes, storage.LegacyDir{Root: cfg.LegacyUploadsDir})
	internshipService := services.NewInternshipService(d.DB)
	contactService := services.NewContactService(d.Notifier, emails, cfg.AdminEmail)
	exportService := services.NewExportService(d.DB)

	authHandler := handlers.NewAuthHandler(authService)
	jobHandler := handlers.NewJobHandler(d.Extractor, jobService)
	appHandler := handlers.NewApplicationHandler(appService, cfg.ResumeMaxBytes)
	internshipHandler := handlers.NewInternshipHandler(internshipService)
	contactHandler := handlers.NewContactHandler(contactService)
	exportHandler := handlers.NewExportHandler(exportService)

	r := gin.New()
	r.Use(logger.Middleware(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = cfg.ResumeMaxBytes

	authn := middleware.Authenticate(tokens)
	only := middleware.AuthorizeRoles
	limited := middleware.RateLimit(d.Limiter, authRateLimit, authRateWindow)

	r.GET("/health", handlers.HealthCheck)
	r.GET("/export/internships", authn, only(models.RoleAdmin), exportHandler.ExportInternships)

	resumeRoles := only(models.RoleAdmin, models.RoleCompany, models.RoleFaculty, models.RoleStudent)
	r.GET("/applications/:id/resume", authn, resumeRoles, appHandler.DownloadResume)

	api := r.Group("/api")
	{
		a := api.Group("/auth")
		a.POST("/register", authHandler.Register)
		a.POST("/login", limited, authHandler.Login)
		a.POST("/verify-login-otp", limited, authHandler.VerifyLoginOTP)
		a.POST("/forgot-password", limited, authHandler.ForgotPassword)
		a.POST("/verify-otp-reset", limited, authHandler.ResetPassword)
		a.GET("/users", authn, only(models.RoleAdmin), authHandler.ListUsers)
		a.DELETE("/users/:id", authn, only(models.RoleAdmin), authHandler.DeleteUser)

		jobs := api.Group("/jobs")
		jobs.GET("", jobHandler.ListJobs)
		jobs.GET("/:id", jobHandler.GetJob)
		jobs.POST("", authn, only(models.RoleCompany), jobHandler.CreateJob)
		jobs.POST("/extract", authn, only(models.RoleCompany), jobHandler.ParseJob)
		jobs.DELETE("/:id", authn, only(models.RoleAdmin), jobHandler.DeleteJob)

		apps := api.Group("/applications")
		apps.POST("", authn, only(models.RoleStudent), appHandler.Apply)
		apps.POST("/upload-resume", authn, only(models.RoleStudent), appHandler.UploadResume)
		apps.GET("/me", authn, only(models.RoleStudent), appHandler.ListMine)
		apps.GET("/for-company", authn, only(models.RoleCompany, models.RoleAdmin), appHandler.ListForCompany)
		apps.GET("", authn, only(models.RoleAdmin), appHandler.ListAll)
		apps.PUT("/:id/decision", authn, only(models.RoleCompany), appHandler.Decide)
		apps.PUT("/:id/withdraw", authn, only(models.RoleStudent), appHandler.Withdraw)
		apps.GET("/:id/resume", authn, resumeRoles, appHandler.DownloadResume)

		ints := api.Group("/internships")
		ints.GET("", middleware.OptionalAuthenticate(tokens), internshipHandler.List)
		ints.POST("", authn, only(models.RoleStudent), internshipHandler.Create)
		ints.PUT("/:id/validate", authn, only(models.RoleFaculty), internshipHandler.Validate)

		api.POST("/contact", contactHandler.Send)
	}

	r.NoRoute(frontendFallback(cfg.FrontendDist))
	return r
}

// frontendFallback serves the built single page app from dist. Unknown GET
// paths outside /api get index.html so client-side routes survive reloads.
func frontendFallback(dist string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if dist == "" || c.Request.Method != http.MethodGet || strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		file := filepath.Join(dist, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(dist, "index.html"))
	}
}
