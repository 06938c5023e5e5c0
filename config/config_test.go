package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pto/dates"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"STORAGE", "WORK_DAY", "WORK_WEEK", "HR_MANAGERS", "POLICY_FILE", "SMTP_HOST", "SMTP_PORT", "LDAP_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage != StoragePostgres || cfg.WorkDay != 8 || cfg.WorkWeek != dates.DefaultWorkWeek {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.SMTP.Enabled() || cfg.LDAP.Enabled() {
		t.Error("SMTP and LDAP should be off by default")
	}
	if cfg.SMTP.Port != 25 {
		t.Errorf("SMTP.Port = %d", cfg.SMTP.Port)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("WORK_DAY", "7")
	t.Setenv("WORK_WEEK", "Sun,Mon,Tue,Wed,Thu")
	t.Setenv("HR_MANAGERS", "hr@example.com, boss@example.com,")
	t.Setenv("POLICY_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage != StorageMemory || cfg.WorkDay != 7 {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.WorkWeek.Includes(time.Friday) || !cfg.WorkWeek.Includes(time.Sunday) {
		t.Errorf("WorkWeek = %b", cfg.WorkWeek)
	}
	if want := []string{"hr@example.com", "boss@example.com"}; !reflect.DeepEqual(cfg.Policy.HRManagers, want) {
		t.Errorf("HRManagers = %v, want %v", cfg.Policy.HRManagers, want)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"WORK_DAY":  "eight",
		"WORK_WEEK": "Mon,Funday",
		"STORAGE":   "sqlite",
		"SMTP_PORT": "smtp",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("POLICY_FILE", "")
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%s: expected error", key, value)
			}
		})
	}
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	yaml := `hr_managers:
  - people@example.com
email_blacklist:
  - all@example.com
fallback_to_address: pto@example.com
email_signature: The PTO team
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HR_MANAGERS", "hr@example.com")
	t.Setenv("EMAIL_SUBJECT", "PTO from {{.Username}}")
	t.Setenv("POLICY_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p := cfg.Policy
	if !reflect.DeepEqual(p.HRManagers, []string{"people@example.com"}) || !reflect.DeepEqual(p.EmailBlacklist, []string{"all@example.com"}) {
		t.Errorf("Policy lists = %+v", p)
	}
	if p.FallbackToAddress != "pto@example.com" || p.EmailSignature != "The PTO team" {
		t.Errorf("Policy = %+v", p)
	}
	if p.EmailSubject != "PTO from {{.Username}}" {
		t.Errorf("EmailSubject = %q, env value should survive", p.EmailSubject)
	}

	t.Setenv("POLICY_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("Load() with missing policy file: expected error")
	}
}
