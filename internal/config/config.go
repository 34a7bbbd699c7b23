package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ggonzalez94/defi-explorer/internal/cache"
	"github.com/ggonzalez94/defi-explorer/internal/policy"
	"github.com/ggonzalez94/defi-explorer/internal/proxy"
)

const envPrefix = "DEFI_EXPLORER_"

type GlobalFlags struct {
	ConfigPath  string
	JSON        bool
	Plain       bool
	Select      string
	ResultsOnly bool
	Timeout     string
	Retries     int
	ProxyURL    string
	LogLevel    string
}

type Settings struct {
	OutputMode       string
	SelectFields     []string
	ResultsOnly      bool
	Strict           bool
	Timeout          time.Duration
	Retries          int
	ProviderTimeout  time.Duration
	CacheTTL         time.Duration
	ListenAddr       string
	FrontendOrigins  []string
	ProxyURL         string
	UpstreamURL      string
	AllowedEndpoints []string
	LogLevel         string
	LogFormat        string
}

type fileConfig struct {
	Output  string `yaml:"output"`
	Strict  *bool  `yaml:"strict"`
	Timeout string `yaml:"timeout"`
	Retries *int   `yaml:"retries"`
	Log     struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Server struct {
		Addr    string   `yaml:"addr"`
		Origins []string `yaml:"origins"`
	} `yaml:"server"`
	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Yields struct {
		ProviderTimeout  string   `yaml:"provider_timeout"`
		Upstream         string   `yaml:"upstream"`
		ProxyURL         string   `yaml:"proxy_url"`
		AllowedEndpoints []string `yaml:"allowed_endpoints"`
	} `yaml:"yields"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings := defaultSettings()

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.ProviderTimeout <= 0 {
		settings.ProviderTimeout = 10 * time.Second
	}
	if settings.CacheTTL <= 0 {
		settings.CacheTTL = cache.DefaultTTL
	}
	if len(settings.AllowedEndpoints) == 0 {
		settings.AllowedEndpoints = append([]string(nil), policy.DefaultEndpoints...)
	}

	return settings, nil
}

func defaultSettings() Settings {
	return Settings{
		OutputMode:       "json",
		Timeout:          10 * time.Second,
		Retries:          2,
		ProviderTimeout:  10 * time.Second,
		CacheTTL:         cache.DefaultTTL,
		ListenAddr:       ":8080",
		FrontendOrigins:  []string{"http://localhost:3000"},
		UpstreamURL:      proxy.DefaultUpstream,
		AllowedEndpoints: append([]string(nil), policy.DefaultEndpoints...),
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "defi-explorer", "config.yaml"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Strict != nil {
		settings.Strict = *cfg.Strict
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Log.Level != "" {
		settings.LogLevel = strings.ToLower(cfg.Log.Level)
	}
	if cfg.Log.Format != "" {
		settings.LogFormat = strings.ToLower(cfg.Log.Format)
	}
	if cfg.Server.Addr != "" {
		settings.ListenAddr = cfg.Server.Addr
	}
	if len(cfg.Server.Origins) > 0 {
		settings.FrontendOrigins = cfg.Server.Origins
	}
	if cfg.Cache.TTL != "" {
		d, err := time.ParseDuration(cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("config cache.ttl: %w", err)
		}
		settings.CacheTTL = d
	}
	if cfg.Yields.ProviderTimeout != "" {
		d, err := time.ParseDuration(cfg.Yields.ProviderTimeout)
		if err != nil {
			return fmt.Errorf("config yields.provider_timeout: %w", err)
		}
		settings.ProviderTimeout = d
	}
	if cfg.Yields.Upstream != "" {
		settings.UpstreamURL = cfg.Yields.Upstream
	}
	if cfg.Yields.ProxyURL != "" {
		settings.ProxyURL = cfg.Yields.ProxyURL
	}
	if len(cfg.Yields.AllowedEndpoints) > 0 {
		settings.AllowedEndpoints = cfg.Yields.AllowedEndpoints
	}

	return nil
}

func env(name string) string {
	return os.Getenv(envPrefix + name)
}

func applyEnv(settings *Settings) {
	if v := env("OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := env("STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Strict = b
		}
	}
	if v := env("TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := env("RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := env("LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := env("LOG_FORMAT"); v != "" {
		settings.LogFormat = strings.ToLower(v)
	}
	// PORT is what most container platforms inject.
	if v := os.Getenv("PORT"); v != "" {
		settings.ListenAddr = ":" + v
	}
	if v := env("ADDR"); v != "" {
		settings.ListenAddr = v
	}
	if v := env("ORIGINS"); v != "" {
		settings.FrontendOrigins = SplitCSV(v)
	}
	if v := env("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.CacheTTL = d
		}
	}
	if v := env("PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.ProviderTimeout = d
		}
	}
	if v := env("UPSTREAM_URL"); v != "" {
		settings.UpstreamURL = v
	}
	if v := env("PROXY_URL"); v != "" {
		settings.ProxyURL = v
	}
	if v := env("ALLOWED_ENDPOINTS"); v != "" {
		settings.AllowedEndpoints = SplitCSV(v)
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		settings.SelectFields = SplitCSV(flags.Select)
	}
	settings.ResultsOnly = flags.ResultsOnly

	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if strings.TrimSpace(flags.ProxyURL) != "" {
		settings.ProxyURL = strings.TrimSpace(flags.ProxyURL)
	}
	if strings.TrimSpace(flags.LogLevel) != "" {
		settings.LogLevel = strings.ToLower(strings.TrimSpace(flags.LogLevel))
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}

// SplitCSV splits a comma separated list, dropping blanks.
func SplitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
