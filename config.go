package bakery

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8000"`

	AppScheme   string `env:"APP_SCHEME" envDefault:"https"`
	AppHost     string `env:"APP_HOST" envDefault:"localhost:8000"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000/reset"`

	SigningSecret string `env:"SIGNING_SECRET,required"`

	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"10h"`
	ActivationLinkTTL    time.Duration `env:"ACTIVATION_LINK_TTL" envDefault:"72h"`
	PasswordResetTimeout time.Duration `env:"PASSWORD_RESET_TIMEOUT" envDefault:"24h"`

	MailgunBaseURL string `env:"MAILGUN_BASE_URL"`
	MailgunAPIKey  string `env:"MAILGUN_API_KEY"`
	MailSender     string `env:"MAIL_SENDER" envDefault:"noreply@bakery.local"`

	DispatchQueueSize int `env:"DISPATCH_QUEUE_SIZE" envDefault:"128"`
	DispatchWorkers   int `env:"DISPATCH_WORKERS" envDefault:"2"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:bakery.db?cache=shared"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse configuration")
	}
	return cfg, nil
}

// Links builds the LinkBuilder implied by the configured hosts.
func (c Config) Links() LinkBuilder {
	return LinkBuilder{
		Scheme:      c.AppScheme,
		Host:        c.AppHost,
		FrontendURL: c.FrontendURL,
	}
}

// DispatcherOptions maps the queue settings into dispatcher options.
func (c Config) DispatcherOptions() DispatcherOptions {
	return DispatcherOptions{
		QueueSize: c.DispatchQueueSize,
		Workers:   c.DispatchWorkers,
	}
}
