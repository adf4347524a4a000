package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"bundlehub.db"`

	Stripe  Stripe  `envPrefix:"STRIPE_"`
	Auth    Auth    `envPrefix:"AUTH_"`
	Polling Polling `envPrefix:"POLL_"`

	ReconcileOnBoot bool `env:"RECONCILE_ON_BOOT" envDefault:"false"`
}

type Stripe struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.stripe.com"`
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	SuccessURL    string `env:"SUCCESS_URL"`
	CancelURL     string `env:"CANCEL_URL"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
	Issuer    string `env:"ISSUER" envDefault:"bundlehub"`
}

// Polling bounds the client-side verification loop after checkout redirect.
type Polling struct {
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"10"`
	AttemptDelay time.Duration `env:"ATTEMPT_DELAY" envDefault:"2s"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
