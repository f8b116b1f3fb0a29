package config

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix       = "MANGADL"
	defaultBooxPort = 8085
	configDirName   = "mangadl"
	configFileName  = "config.json"
	envFileName     = ".env"
)

type ProviderConfig struct {
	MangaDexAPIKey   string `mapstructure:"mangadex_api_key"`
	MangaDexLanguage string `mapstructure:"mangadex_language"`
}

type BooxConfig struct {
	URL  string `mapstructure:"url"`
	IP   string `mapstructure:"ip"`
	Port int    `mapstructure:"port"`
}

type PublishConfig struct {
	BucketURL string     `mapstructure:"bucket_url"`
	Boox      BooxConfig `mapstructure:"boox"`
}

type Config struct {
	DownloadDir       string         `mapstructure:"download_dir"`
	TempDir           string         `mapstructure:"temp_dir"`
	SitesFile         string         `mapstructure:"sites_file"`
	Concurrency       int            `mapstructure:"concurrency"`
	Attempts          int            `mapstructure:"attempts"`
	Backoff           time.Duration  `mapstructure:"backoff"`
	RequestTimeout    time.Duration  `mapstructure:"request_timeout"`
	ChapterDelay      time.Duration  `mapstructure:"chapter_delay"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
	UserAgent         string         `mapstructure:"user_agent"`
	Verbose           bool           `mapstructure:"verbose"`
	LogJSON           bool           `mapstructure:"log_json"`
	Providers         ProviderConfig `mapstructure:"providers"`
	Publish           PublishConfig  `mapstructure:"publish"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("download_dir", "./downloads")
	v.SetDefault("temp_dir", "./temp")
	v.SetDefault("sites_file", "")
	v.SetDefault("concurrency", 0)
	v.SetDefault("attempts", 3)
	v.SetDefault("backoff", "1s")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("chapter_delay", "2s")
	v.SetDefault("requests_per_second", 2.0)
	v.SetDefault("user_agent", "")
	v.SetDefault("verbose", false)
	v.SetDefault("log_json", false)
	v.SetDefault("providers.mangadex_api_key", "")
	v.SetDefault("providers.mangadex_language", "en")
	v.SetDefault("publish.bucket_url", "")
	v.SetDefault("publish.boox.url", "")
	v.SetDefault("publish.boox.ip", "")
	v.SetDefault("publish.boox.port", defaultBooxPort)
}

func DefaultConfig() Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve config dir")
	}

	return filepath.Join(configDir, configDirName), nil
}

func ConfigPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, configFileName), nil
}

func EnvPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, envFileName), nil
}

// LoadEnv reads .env from the working directory and from the config dir.
// Variables already present in the environment win.
func LoadEnv() error {
	paths := []string{envFileName}
	if envPath, err := EnvPath(); err == nil {
		paths = append(paths, envPath)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "unable to read env file %s", path)
		}
	}

	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves configuration from defaults, the config file, .env files
// and MANGADL_* variables. An empty configPath selects the default location.
func Load(configPath string) (Config, error) {
	if err := LoadEnv(); err != nil {
		return DefaultConfig(), err
	}

	explicit := configPath != ""
	if !explicit {
		defaultPath, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), err
		}
		configPath = defaultPath
	}

	v := newViper()
	if _, err := os.Stat(configPath); err == nil || explicit {
		v.SetConfigFile(configPath)
		v.SetConfigType(configType(configPath))
		if err := v.ReadInConfig(); err != nil {
			return DefaultConfig(), errors.Wrapf(err, "unable to read config %s", configPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), errors.Wrap(err, "unable to parse config")
	}

	return ApplyEnvDefaults(cfg), nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

func SaveConfig(cfg Config) (string, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	return configPath, SaveConfigTo(configPath, cfg)
}

func SaveConfigTo(configPath string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(err, "unable to create config dir")
	}

	v := viper.New()
	v.Set("download_dir", cfg.DownloadDir)
	v.Set("temp_dir", cfg.TempDir)
	v.Set("sites_file", cfg.SitesFile)
	v.Set("concurrency", cfg.Concurrency)
	v.Set("attempts", cfg.Attempts)
	v.Set("backoff", cfg.Backoff.String())
	v.Set("request_timeout", cfg.RequestTimeout.String())
	v.Set("chapter_delay", cfg.ChapterDelay.String())
	v.Set("requests_per_second", cfg.RequestsPerSecond)
	v.Set("user_agent", cfg.UserAgent)
	v.Set("verbose", cfg.Verbose)
	v.Set("log_json", cfg.LogJSON)
	v.Set("providers.mangadex_api_key", cfg.Providers.MangaDexAPIKey)
	v.Set("providers.mangadex_language", cfg.Providers.MangaDexLanguage)
	v.Set("publish.bucket_url", cfg.Publish.BucketURL)
	v.Set("publish.boox.url", cfg.Publish.Boox.URL)
	v.Set("publish.boox.ip", cfg.Publish.Boox.IP)
	v.Set("publish.boox.port", cfg.Publish.Boox.Port)

	v.SetConfigType(configType(configPath))
	if err := v.WriteConfigAs(configPath); err != nil {
		return errors.Wrap(err, "unable to write config")
	}

	return nil
}

// ApplyEnvDefaults fills unset Boox and MangaDex settings from the
// unprefixed variables older setups export.
func ApplyEnvDefaults(cfg Config) Config {
	if cfg.Publish.Boox.URL == "" {
		if value := strings.TrimSpace(os.Getenv("BOOX_TABLET_URL")); value != "" {
			cfg.Publish.Boox.URL = value
		}
	}
	if cfg.Publish.Boox.IP == "" {
		if value := strings.TrimSpace(os.Getenv("BOOX_TABLET_IP")); value != "" {
			cfg.Publish.Boox.IP = value
		}
	}
	if value := strings.TrimSpace(os.Getenv("BOOX_TABLET_PORT")); value != "" && cfg.Publish.Boox.Port == defaultBooxPort {
		if port, err := strconv.Atoi(value); err == nil {
			cfg.Publish.Boox.Port = port
		}
	}
	if cfg.Providers.MangaDexAPIKey == "" {
		if value := strings.TrimSpace(os.Getenv("MANGADEX_API_KEY")); value != "" {
			cfg.Providers.MangaDexAPIKey = value
		}
	}

	return cfg
}

func (cfg Config) BooxConfigured() bool {
	return strings.TrimSpace(cfg.Publish.Boox.URL) != "" || strings.TrimSpace(cfg.Publish.Boox.IP) != ""
}

func (cfg Config) BooxBaseURL() (string, error) {
	boox := cfg.Publish.Boox
	if boox.URL != "" {
		return normalizeURL(boox.URL, boox.Port)
	}
	if boox.IP != "" {
		return normalizeURL(boox.IP, boox.Port)
	}

	return "", errors.New("boox url not configured")
}

func normalizeURL(rawURL string, port int) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errors.New("boox url is empty")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", errors.Wrap(err, "invalid boox url")
	}

	if parsed.Host == "" {
		return "", errors.New("boox url missing host")
	}

	if port > 0 {
		if _, _, err := net.SplitHostPort(parsed.Host); err != nil {
			parsed.Host = net.JoinHostPort(parsed.Host, strconv.Itoa(port))
		}
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")

	return parsed.String(), nil
}

func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.DownloadDir) == "" {
		return errors.New("download_dir is required")
	}
	if strings.TrimSpace(cfg.TempDir) == "" {
		return errors.New("temp_dir is required")
	}
	if cfg.Concurrency < 0 {
		return errors.New("concurrency cannot be negative")
	}
	if cfg.Attempts < 1 {
		return errors.New("attempts must be at least 1")
	}
	if cfg.ChapterDelay < 0 || cfg.Backoff < 0 || cfg.RequestTimeout < 0 {
		return errors.New("durations cannot be negative")
	}
	if cfg.BooxConfigured() {
		if _, err := cfg.BooxBaseURL(); err != nil {
			return err
		}
	}

	return nil
}
