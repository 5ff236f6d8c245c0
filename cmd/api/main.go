package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/config"
	"github.com/justsurfingit/internship-tracker/internal/database"
	"github.com/justsurfingit/internship-tracker/internal/logger"
	"github.com/justsurfingit/internship-tracker/internal/mailer"
	"github.com/justsurfingit/internship-tracker/internal/middleware"
	"github.com/justsurfingit/internship-tracker/internal/notify"
	"github.com/justsurfingit/internship-tracker/internal/server"
	"github.com/justsurfingit/internship-tracker/internal/services"
	"github.com/justsurfingit/internship-tracker/internal/storage"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load configuration and logging
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database Connection
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	// 3. Mail transport and background notifier
	m := newMailer(ctx, cfg)
	notifier := notify.New(m, logger.Get(), notify.Options{
		Timeout:     cfg.MailTimeout,
		Concurrency: cfg.MailConcurrency,
	})

	// 4. Resume storage: GridFS when configured, the database otherwise
	var resumes storage.ResumeStore = storage.NewDBStore(db)
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		gridStore, err := storage.ConnectGridFS(connectCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.ResumeBucket)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("resume storage unavailable")
		}
		defer gridStore.Close(context.Background())
		resumes = gridStore
	}

	// 5. Rate limiting shared through redis when available
	var limiter middleware.Limiter = middleware.NewMemoryLimiter()
	if cfg.RedisURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		redisLimiter, client, err := middleware.ConnectRedis(pingCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory rate limiting")
		} else {
			defer client.Close()
			limiter = redisLimiter
		}
	}

	// 6. Optional job posting extraction
	var extractor *services.LLMService
	if cfg.GeminiAPIKey != "" {
		extractor, err = services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn().Err(err).Msg("job extraction disabled")
		}
	}

	deps := server.Deps{
		Config:   cfg,
		DB:       db,
		Notifier: notifier,
		Resumes:  resumes,
		Limiter:  limiter,
	}
	if extractor != nil {
		deps.Extractor = extractor
	}
	router := server.NewRouter(deps)

	if err := server.Run(ctx, ":"+cfg.Port, router, notifier, cfg.RequestTimeout); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// newMailer picks the configured transport. A broken SMTP or Gmail setup
// falls back to logging messages so the API still starts.
func newMailer(ctx context.Context, cfg *config.Config) mailer.Mailer {
	fallback := mailer.NewLogMailer(logger.Get())
	switch cfg.MailTransport {
	case "smtp":
		smtpMailer := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		})
		// A failed check is only logged; the server may come up before the
		// mail relay does.
		go func() {
			verifyCtx, cancel := context.WithTimeout(ctx, cfg.MailTimeout)
			defer cancel()
			if err := smtpMailer.Verify(verifyCtx); err != nil {
				log.Warn().Err(err).Str("host", cfg.SMTPHost).Msg("SMTP verify failed")
				return
			}
			log.Info().Str("host", cfg.SMTPHost).Msg("SMTP transporter ready")
		}()
		return smtpMailer
	case "gmail":
		client, err := auth.GmailClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
		if err != nil {
			log.Warn().Err(err).Msg("gmail client unavailable, logging emails instead (run internctl gmail-auth)")
			return fallback
		}
		gmailMailer, err := mailer.NewGmailMailer(ctx, client)
		if err != nil {
			log.Warn().Err(err).Msg("gmail service unavailable, logging emails instead")
			return fallback
		}
		log.Info().Msg("Gmail service connected successfully")
		return gmailMailer
	default:
		log.Warn().Msg("no mail transport configured, emails will be logged")
		return fallback
	}
}
