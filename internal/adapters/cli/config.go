package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tikalinvest/internal/client"
	"tikalinvest/internal/session"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the CLI configuration: flags over TIKAL_* env over the config
// file over defaults
type Config struct {
	APIURL      string
	SessionFile string
	Timeout     time.Duration
	Debug       bool
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tikal", "config.yaml")
}

func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TIKAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api-url", client.DefaultBaseURL)
	v.SetDefault("timeout", "15s")
	v.SetDefault("debug", false)

	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	path := v.GetString("config")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
			if !missing || explicit {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		APIURL:      strings.TrimRight(v.GetString("api-url"), "/"),
		SessionFile: v.GetString("session-file"),
		Timeout:     v.GetDuration("timeout"),
		Debug:       v.GetBool("debug"),
	}
	if cfg.SessionFile == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.SessionFile = p
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return cfg, nil
}
