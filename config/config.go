package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pto/dates"
)

type Config struct {
	DatabaseURL   string
	Storage       string
	AutoMigrate   bool
	JWTSecret     string
	JWTExpiration time.Duration
	ServerPort    string

	WorkDay  int
	WorkWeek dates.WorkWeek

	Policy Policy
	SMTP   SMTPConfig
	LDAP   LDAPConfig
}

// Policy is the notification policy. It can be overridden by the YAML file
// named in POLICY_FILE.
type Policy struct {
	HRManagers        []string `yaml:"hr_managers"`
	EmailBlacklist    []string `yaml:"email_blacklist"`
	FallbackToAddress string   `yaml:"fallback_to_address"`
	EmailSubject      string   `yaml:"email_subject"`
	EmailSubjectEdit  string   `yaml:"email_subject_edit"`
	EmailSignature    string   `yaml:"email_signature"`
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Enabled reports whether mail should go out over SMTP.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type LDAPConfig struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
}

func (l LDAPConfig) Enabled() bool {
	return l.URL != ""
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", "postgresql://postgres@localhost:5432/pto"),
		Storage:       getEnv("STORAGE", StoragePostgres),
		AutoMigrate:   getEnv("AUTO_MIGRATE", "1") == "1",
		JWTSecret:     getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		JWTExpiration: 24 * time.Hour,
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		Policy: Policy{
			HRManagers:        splitList(os.Getenv("HR_MANAGERS")),
			EmailBlacklist:    splitList(os.Getenv("EMAIL_BLACKLIST")),
			FallbackToAddress: os.Getenv("FALLBACK_TO_ADDRESS"),
			EmailSubject:      os.Getenv("EMAIL_SUBJECT"),
			EmailSubjectEdit:  os.Getenv("EMAIL_SUBJECT_EDIT"),
			EmailSignature:    os.Getenv("EMAIL_SIGNATURE"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		LDAP: LDAPConfig{
			URL:          os.Getenv("LDAP_URL"),
			BindDN:       os.Getenv("LDAP_BIND_DN"),
			BindPassword: os.Getenv("LDAP_BIND_PASSWORD"),
			BaseDN:       os.Getenv("LDAP_BASE_DN"),
		},
	}

	var err error
	if cfg.WorkDay, err = strconv.Atoi(getEnv("WORK_DAY", "8")); err != nil || cfg.WorkDay <= 0 {
		return nil, fmt.Errorf("config: WORK_DAY must be a positive number of hours")
	}
	if cfg.WorkWeek, err = dates.ParseWorkWeek(os.Getenv("WORK_WEEK")); err != nil {
		return nil, fmt.Errorf("config: WORK_WEEK: %w", err)
	}
	if cfg.SMTP.Port, err = strconv.Atoi(getEnv("SMTP_PORT", "25")); err != nil {
		return nil, fmt.Errorf("config: SMTP_PORT: %w", err)
	}

	switch cfg.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return nil, fmt.Errorf("config: STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.Storage)
	}

	if path := os.Getenv("POLICY_FILE"); path != "" {
		if err := cfg.Policy.loadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadFile overrides p with the non-empty values of a YAML policy file.
func (p *Policy) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read policy file %s: %w", path, err)
	}

	var file Policy
	if err := yaml.Unmarshal(b, &file); err != nil {
		return fmt.Errorf("config: parse policy yaml: %w", err)
	}

	if file.HRManagers != nil {
		p.HRManagers = file.HRManagers
	}
	if file.EmailBlacklist != nil {
		p.EmailBlacklist = file.EmailBlacklist
	}
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&p.FallbackToAddress, file.FallbackToAddress},
		{&p.EmailSubject, file.EmailSubject},
		{&p.EmailSubjectEdit, file.EmailSubjectEdit},
		{&p.EmailSignature, file.EmailSignature},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
