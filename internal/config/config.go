// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/keshon/rbot/internal/parse"
)

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"json"`
	StoragePath   string `env:"STORAGE_PATH"` // empty: each driver picks its own file
	RedisURL      string `env:"REDIS_URL"`

	MemberRoleID        string `env:"MEMBER_ROLE_ID"`
	DeploymentChannelID string `env:"DEPLOYMENT_CHANNEL_ID"`
	ArchiveCategoryID   string `env:"ARCHIVE_CATEGORY_ID"`
	SupervisorURL       string `env:"CODEFLOW_SUPERVISOR_URL"`
	SupervisorAPIKey    string `env:"SUPERVISOR_API_KEY"`

	// Deployment prompt glyphs: a unicode emoji or a <:name:id> reference.
	DeployApproveEmoji string `env:"DEPLOY_APPROVE_EMOJI"`
	DeployRejectEmoji  string `env:"DEPLOY_REJECT_EMOJI"`

	Maintainer    string `env:"MAINTAINER" envDefault:"the maintainer"`
	SilentUnknown bool   `env:"SILENT_UNKNOWN"`
	NotFoundReply string `env:"NOT_FOUND_REPLY"`
	EventWorkers  int    `env:"EVENT_WORKERS" envDefault:"16"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	AccessFile string `env:"ACCESS_FILE"`
	Access     Access
}

// Access is the optional YAML document named by ACCESS_FILE.
type Access struct {
	// Admins are user ids promoted to Admin at startup.
	Admins []string `yaml:"admins"`
	// ApproverRoles are guild role ids allowed to decide deployments.
	ApproverRoles []string `yaml:"approver_roles"`
	// Channels restricts a command name to one channel id.
	Channels map[string]string `yaml:"channels"`
}

// Load reads .env (when present), the environment and the access file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.AccessFile != "" {
		access, err := LoadAccess(cfg.AccessFile)
		if err != nil {
			return nil, err
		}
		cfg.Access = access
	}

	cfg.DeployApproveEmoji = parse.ReactionName(cfg.DeployApproveEmoji)
	cfg.DeployRejectEmoji = parse.ReactionName(cfg.DeployRejectEmoji)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadAccess(path string) (Access, error) {
	var a Access
	data, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("read access file: %w", err)
	}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("parse access file %s: %w", path, err)
	}
	return a, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.StorageDriver) {
	case "json", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be json or sqlite, got %q", c.StorageDriver)
	}
	if c.DeployApproveEmoji != "" && c.DeployApproveEmoji == c.DeployRejectEmoji {
		return fmt.Errorf("DEPLOY_APPROVE_EMOJI and DEPLOY_REJECT_EMOJI must differ")
	}
	if c.EventWorkers < 1 {
		return fmt.Errorf("EVENT_WORKERS must be positive, got %d", c.EventWorkers)
	}
	return nil
}

// RequireDiscord reports whether the settings needed to connect are present.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	return nil
}
