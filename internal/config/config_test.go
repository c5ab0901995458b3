package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
auth:
  gate_failure_policy: open
  sign_in_max_attempts: 3
evidence:
  max_files: 2
telegram:
  moderators_chat_id: -100123
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.GateFailurePolicy != GateFailOpen {
		t.Fatalf("unexpected gate failure policy: %s", cfg.Auth.GateFailurePolicy)
	}
	if cfg.Auth.SignInMaxAttempts != 3 {
		t.Fatalf("unexpected sign in attempts: %d", cfg.Auth.SignInMaxAttempts)
	}
	if cfg.Evidence.MaxFiles != 2 {
		t.Fatalf("unexpected evidence max files: %d", cfg.Evidence.MaxFiles)
	}
	if cfg.Telegram.ModeratorsChatID != -100123 {
		t.Fatalf("unexpected moderators chat id: %d", cfg.Telegram.ModeratorsChatID)
	}

	if cfg.Evidence.MaxFileBytes != 10<<20 {
		t.Fatalf("evidence max_file_bytes default should stay 10MiB, got %d", cfg.Evidence.MaxFileBytes)
	}
	if cfg.S3.Bucket != "evidence-files" {
		t.Fatalf("s3 bucket default should stay evidence-files, got %s", cfg.S3.Bucket)
	}
	if cfg.Auth.AccessCookie != "cos_access" {
		t.Fatalf("access cookie default should stay cos_access, got %s", cfg.Auth.AccessCookie)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Auth.GateFailurePolicy != GateFailClosed {
		t.Fatalf("gate must fail closed by default, got %s", cfg.Auth.GateFailurePolicy)
	}
	if cfg.Evidence.MaxFiles != 5 {
		t.Fatalf("unexpected default max files: %d", cfg.Evidence.MaxFiles)
	}
	if cfg.Evidence.UploadConcurrency != 5 {
		t.Fatalf("unexpected default upload concurrency: %d", cfg.Evidence.UploadConcurrency)
	}
	if cfg.Auth.ResetTokenTTL.String() != "30m0s" {
		t.Fatalf("unexpected default reset token ttl: %s", cfg.Auth.ResetTokenTTL)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GATE_FAILURE_POLICY", "OPEN")
	t.Setenv("TELEGRAM_MODERATORS_CHAT_ID", "42")
	t.Setenv("EVIDENCE_MAX_FILES", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Auth.GateFailurePolicy != GateFailOpen {
		t.Fatalf("unexpected gate failure policy: %s", cfg.Auth.GateFailurePolicy)
	}
	if cfg.Telegram.ModeratorsChatID != 42 {
		t.Fatalf("unexpected chat id: %d", cfg.Telegram.ModeratorsChatID)
	}
	if cfg.Evidence.MaxFiles != 3 {
		t.Fatalf("unexpected max files: %d", cfg.Evidence.MaxFiles)
	}
}

func TestLoadRejectsUnknownGatePolicy(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GATE_FAILURE_POLICY", "maybe")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown gate failure policy")
	}
}

func TestLoadRejectsZeroShutdownTimeout(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_SHUTDOWN_TIMEOUT", "0s")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for zero shutdown timeout")
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error when jwt secret is the default in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("TOTP_SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("COOKIE_SECURE", "true")
	if _, err := Load(""); err != nil {
		t.Fatalf("unexpected error with production secrets set: %v", err)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"HTTP_SHUTDOWN_TIMEOUT",
		"LOG_LEVEL",
		"LOG_ENCODING",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_REGION",
		"S3_USE_SSL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"REFRESH_TTL",
		"COOKIE_SECURE",
		"GATE_FAILURE_POLICY",
		"TOTP_SECRET_KEY",
		"EVIDENCE_MAX_FILES",
		"EVIDENCE_UPLOAD_CONCURRENCY",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_MODERATORS_CHAT_ID",
	} {
		t.Setenv(key, "")
	}
}
