package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	Production bool

	MongoURI string
	MongoDB  string

	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string

	CookieName string
	CookieTTL  time.Duration

	FrontendURL string
	ResetTTL    time.Duration

	Mail   MailConfig
	Rabbit RabbitConfig

	RedisAddr string

	Identity IdentityConfig

	DDEnabled bool
	DDService string
}

type MailConfig struct {
	Driver string // log | smtp | mailgun | queue
	From   string

	// DeliveryDriver is what the notifier uses for queued jobs: log | smtp | mailgun.
	DeliveryDriver string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain  string
	MailgunAPIKey  string
	MailgunAPIBase string
}

type RabbitConfig struct {
	URL         string
	Exchange    string
	MailQueue   string
	Concurrency int
	MetricsPort string
	DedupeTTL   time.Duration
}

type IdentityConfig struct {
	Provider string // google | firebase

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	StateSecret        string

	FirebaseProjectID string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "3001")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "auth_db")
	v.SetDefault("JWT_ACCESS_SECRET", "default_access_secret")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_SECRET", "default_refresh_secret")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("JWT_ISSUER", "auth-backend")
	v.SetDefault("REFRESH_COOKIE_NAME", "refreshToken")
	v.SetDefault("REFRESH_COOKIE_TTL", "168h")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("RESET_TOKEN_TTL", "10m")
	v.SetDefault("MAIL_DRIVER", "log")
	v.SetDefault("MAIL_FROM", "Support Team <no-reply@localhost>")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("RABBIT_URL", "")
	v.SetDefault("RABBIT_EXCHANGE", "auth.events")
	v.SetDefault("RABBIT_MAIL_QUEUE", "auth.mail")
	v.SetDefault("NOTIFY_CONCURRENCY", 4)
	v.SetDefault("NOTIFY_MAIL_DRIVER", "log")
	v.SetDefault("NOTIFY_METRICS_PORT", "9102")
	v.SetDefault("NOTIFY_DEDUPE_TTL", "24h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("IDENTITY_PROVIDER", "google")
	v.SetDefault("DD_ENABLED", false)
	v.SetDefault("DD_SERVICE", "auth-backend")
}

// Load reads the process environment once (optionally seeded from .env).
// The returned value is treated as immutable by every component.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Port:       v.GetString("APP_PORT"),
		Production: v.GetString("APP_ENV") == "production",

		MongoURI: v.GetString("MONGO_URI"),
		MongoDB:  v.GetString("MONGO_DB"),

		AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
		AccessTTL:     duration(v, "JWT_ACCESS_TTL", 15*time.Minute),
		RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		RefreshTTL:    duration(v, "JWT_REFRESH_TTL", 7*24*time.Hour),
		Issuer:        v.GetString("JWT_ISSUER"),

		CookieName: v.GetString("REFRESH_COOKIE_NAME"),
		CookieTTL:  duration(v, "REFRESH_COOKIE_TTL", 7*24*time.Hour),

		FrontendURL: v.GetString("FRONTEND_URL"),
		ResetTTL:    duration(v, "RESET_TOKEN_TTL", 10*time.Minute),

		Mail: MailConfig{
			Driver:         v.GetString("MAIL_DRIVER"),
			From:           v.GetString("MAIL_FROM"),
			DeliveryDriver: v.GetString("NOTIFY_MAIL_DRIVER"),
			SMTPHost:       v.GetString("SMTP_HOST"),
			SMTPPort:       v.GetInt("SMTP_PORT"),
			SMTPUser:       v.GetString("SMTP_EMAIL"),
			SMTPPassword:   v.GetString("SMTP_PASSWORD"),
			MailgunDomain:  v.GetString("MAILGUN_DOMAIN"),
			MailgunAPIKey:  v.GetString("MAILGUN_API_KEY"),
			MailgunAPIBase: v.GetString("MAILGUN_API_BASE"),
		},
		Rabbit: RabbitConfig{
			URL:         v.GetString("RABBIT_URL"),
			Exchange:    v.GetString("RABBIT_EXCHANGE"),
			MailQueue:   v.GetString("RABBIT_MAIL_QUEUE"),
			Concurrency: v.GetInt("NOTIFY_CONCURRENCY"),
			MetricsPort: v.GetString("NOTIFY_METRICS_PORT"),
			DedupeTTL:   duration(v, "NOTIFY_DEDUPE_TTL", 24*time.Hour),
		},

		RedisAddr: v.GetString("REDIS_ADDR"),

		Identity: IdentityConfig{
			Provider:           v.GetString("IDENTITY_PROVIDER"),
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
			StateSecret:        v.GetString("OAUTH_STATE_SECRET"),
			FirebaseProjectID:  v.GetString("FIREBASE_PROJECT_ID"),
		},

		DDEnabled: v.GetBool("DD_ENABLED"),
		DDService: v.GetString("DD_SERVICE"),
	}
}

// duration falls back to def when the value does not parse.
func duration(v *viper.Viper, key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
