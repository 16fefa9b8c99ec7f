// Package config builds the server configuration from an optional YAML file
// and environment variables. Environment variables win over the file so a
// deployment can override single values without editing it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	Environment     string        `yaml:"environment"`
	LogLevel        string        `yaml:"log_level"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TrustedProxies  []string      `yaml:"trusted_proxies"`

	Backend   Backend   `yaml:"backend"`
	Storage   Storage   `yaml:"storage"`
	RateLimit RateLimit `yaml:"rate_limit"`
}

// Backend locates the hosted backend project.
type Backend struct {
	URL       string        `yaml:"url"`
	AnonKey   string        `yaml:"anon_key"`
	JWTSecret string        `yaml:"jwt_secret"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Storage struct {
	ProductImageBucket string `yaml:"product_image_bucket"`
	MaxUploadBytes     int64  `yaml:"max_upload_bytes"`
}

type RateLimit struct {
	LoginPerMinute       int `yaml:"login_per_minute"`
	PublicWritePerMinute int `yaml:"public_write_per_minute"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Server {
	return Server{
		Addr:            ":8080",
		Environment:     "development",
		LogLevel:        "info",
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Backend: Backend{
			Timeout: 10 * time.Second,
		},
		Storage: Storage{
			ProductImageBucket: "product-images",
			MaxUploadBytes:     5 * 1024 * 1024,
		},
		RateLimit: RateLimit{
			LoginPerMinute:       10,
			PublicWritePerMinute: 5,
		},
	}
}

// Load reads the file named by STOREFRONT_CONFIG (if any) over the defaults
// and then applies environment overrides.
func Load() (Server, error) {
	cfg := Defaults()
	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Server{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// FromEnv builds a Server config from environment variables only.
func FromEnv() (Server, error) {
	cfg := Defaults()
	if err := cfg.applyEnv(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s *Server) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (s *Server) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("STOREFRONT_ADDR", &s.Addr)
	str("ENVIRONMENT", &s.Environment)
	str("LOG_LEVEL", &s.LogLevel)
	dur("REQUEST_TIMEOUT", &s.RequestTimeout)
	dur("SHUTDOWN_TIMEOUT", &s.ShutdownTimeout)
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		s.TrustedProxies = strings.Split(v, ",")
	}

	str("BACKEND_URL", &s.Backend.URL)
	str("BACKEND_ANON_KEY", &s.Backend.AnonKey)
	str("BACKEND_JWT_SECRET", &s.Backend.JWTSecret)
	dur("BACKEND_TIMEOUT", &s.Backend.Timeout)

	str("PRODUCT_IMAGE_BUCKET", &s.Storage.ProductImageBucket)
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err))
		} else {
			s.Storage.MaxUploadBytes = n
		}
	}

	integer("LOGIN_RATE_PER_MINUTE", &s.RateLimit.LoginPerMinute)
	integer("PUBLIC_WRITE_RATE_PER_MINUTE", &s.RateLimit.PublicWritePerMinute)

	return errors.Join(errs...)
}

// Validate reports every missing or out-of-range setting at once.
func (s Server) Validate() error {
	var errs []error
	if s.Backend.URL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	} else if !strings.HasPrefix(s.Backend.URL, "http://") && !strings.HasPrefix(s.Backend.URL, "https://") {
		errs = append(errs, fmt.Errorf("BACKEND_URL must be an http(s) URL, got %q", s.Backend.URL))
	}
	if s.Backend.AnonKey == "" {
		errs = append(errs, errors.New("BACKEND_ANON_KEY is required"))
	}
	if s.Backend.JWTSecret == "" {
		errs = append(errs, errors.New("BACKEND_JWT_SECRET is required"))
	}
	if s.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT must be positive"))
	}
	if s.Storage.ProductImageBucket == "" {
		errs = append(errs, errors.New("PRODUCT_IMAGE_BUCKET is required"))
	}
	if s.Storage.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if s.RateLimit.LoginPerMinute <= 0 || s.RateLimit.PublicWritePerMinute <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}
