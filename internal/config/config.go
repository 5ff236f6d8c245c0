package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	JWTSecret    string
	JWTExpiresIn time.Duration
	OTPTTL       time.Duration

	FrontendURL  string
	BackendURL   string
	FrontendDist string

	MailTransport   string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPass        string
	NotifyFrom      string
	SignupFrom      string
	RemovedFrom     string
	AdminEmail      string
	MailConcurrency int
	MailTimeout     time.Duration

	GmailCredentialsFile string
	GmailTokenFile       string

	MongoURI         string
	MongoDatabase    string
	ResumeBucket     string
	ResumeMaxBytes   int64
	LegacyUploadsDir string

	RedisURL string

	GeminiAPIKey string
	GeminiModel  string

	RequestTimeout time.Duration
}

// Load reads the environment, after merging an optional .env file.
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "5000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getBool("LOG_PRETTY", false),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "internship.db"),

		JWTSecret:    getEnv("JWT_SECRET", "dev-secret"),
		JWTExpiresIn: getDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		OTPTTL:       getDuration("OTP_TTL", 10*time.Minute),

		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		BackendURL:   getEnv("BACKEND_URL", "http://localhost:5000"),
		FrontendDist: getEnv("FRONTEND_DIST", ""),

		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getInt("SMTP_PORT", 587),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPass:        getEnv("SMTP_PASS", ""),
		MailConcurrency: getInt("MAIL_CONCURRENCY", 4),
		MailTimeout:     getDuration("MAIL_TIMEOUT", 30*time.Second),

		GmailCredentialsFile: getEnv("GMAIL_CREDENTIALS_FILE", "credential.json"),
		GmailTokenFile:       getEnv("GMAIL_TOKEN_FILE", "token.json"),

		MongoURI:         getEnv("MONGO_URI", ""),
		MongoDatabase:    getEnv("MONGO_DATABASE", "internshipDB"),
		ResumeBucket:     getEnv("RESUME_BUCKET", "resumes"),
		ResumeMaxBytes:   int64(getInt("RESUME_MAX_BYTES", 10*1024*1024)),
		LegacyUploadsDir: getEnv("LEGACY_UPLOADS_DIR", "uploads/resumes"),

		RedisURL: getEnv("REDIS_URL", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
	}

	cfg.NotifyFrom = getEnv("NOTIFY_FROM", cfg.SMTPUser)
	cfg.SignupFrom = getEnv("SIGNUP_FROM", cfg.SMTPUser)
	cfg.RemovedFrom = getEnv("REMOVED_FROM", cfg.SMTPUser)
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", cfg.SMTPUser)

	transport := "log"
	if cfg.SMTPUser != "" {
		transport = "smtp"
	}
	cfg.MailTransport = strings.ToLower(getEnv("MAIL_TRANSPORT", transport))

	return cfg
}

// DefaultFrom is the sender used for transactional mail when no
// purpose-specific address is configured.
func (c *Config) DefaultFrom() string {
	if c.SMTPUser != "" {
		return c.SMTPUser
	}
	return "no-reply@localhost"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
