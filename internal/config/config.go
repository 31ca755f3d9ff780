package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port            int    `env:"CRM_PORT, default=8090"`
	DataDir         string `env:"CRM_DATA_DIR, default=./data"`
	SessionSecret   string `env:"CRM_SESSION_SECRET, default=change-me-in-production-32bytes!"`
	SessionMaxAge   int    `env:"CRM_SESSION_MAX_AGE, default=86400"`
	SecureCookies   bool   `env:"CRM_SECURE_COOKIES, default=false"`
	DefaultAdmin    string `env:"CRM_DEFAULT_ADMIN, default=admin"`
	DefaultPassword string `env:"CRM_DEFAULT_PASSWORD, default=admin123"`
	LogLevel        string `env:"CRM_LOG_LEVEL, default=info"`
	LogPretty       bool   `env:"CRM_LOG_PRETTY, default=false"`
	RecentLimit     int    `env:"CRM_RECENT_LIMIT, default=1000"`

	Backup BackupConfig
}

type BackupConfig struct {
	BaseURL    string        `env:"CRM_BACKUP_BASE_URL, default=https://github.com"`
	ScratchDir string        `env:"CRM_BACKUP_SCRATCH_DIR"`
	Timeout    time.Duration `env:"CRM_BACKUP_TIMEOUT, default=2m"`
}

// BackupCredentials are read from the environment each time a backup runs
// and are never stored.
type BackupCredentials struct {
	Token    string `env:"CRM_GITHUB_TOKEN"`
	Repo     string `env:"CRM_GITHUB_REPO"`
	Username string `env:"CRM_GITHUB_USERNAME"`
}

func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Backup.ScratchDir == "" {
		cfg.Backup.ScratchDir = filepath.Join(os.TempDir(), "ayaocrm-backup")
	}

	return &cfg, nil
}

func (c *Config) TranslationFile() string {
	return filepath.Join(c.DataDir, "translations.json")
}

func LoadBackupCredentials(ctx context.Context) (BackupCredentials, error) {
	return loadBackupCredentials(ctx, envconfig.OsLookuper())
}

func loadBackupCredentials(ctx context.Context, lookuper envconfig.Lookuper) (BackupCredentials, error) {
	var creds BackupCredentials
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &creds,
		Lookuper: lookuper,
	}); err != nil {
		return BackupCredentials{}, fmt.Errorf("failed to read backup credentials: %w", err)
	}
	return creds, nil
}
