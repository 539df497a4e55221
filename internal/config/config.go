package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// Database
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort     string `envconfig:"API_PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Delivery event queue
	// ----------------------------
	// Empty AMQPURL falls back to the in-process queue.
	AMQPURL    string `envconfig:"AMQP_URL" default:""`
	EventQueue string `envconfig:"EVENT_QUEUE" default:"delivery_events"`

	// ----------------------------
	// Mailer
	// ----------------------------
	MailerDriver  string `envconfig:"MAILER_DRIVER" default:"log"` // log or smtp
	SMTPHost      string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort      int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser      string `envconfig:"SMTP_USER" default:""`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom      string `envconfig:"SMTP_FROM" default:"noreply@mailcamp.local"`
	SendRateLimit int    `envconfig:"SEND_RATE_LIMIT" default:"10"`
	RetryAttempts int    `envconfig:"RETRY_ATTEMPTS" default:"3"`

	// ----------------------------
	// Scheduler
	// ----------------------------
	SchedulerInterval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"30s"`
	SchedulerBatch    int           `envconfig:"SCHEDULER_BATCH" default:"20"`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
