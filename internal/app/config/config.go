package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/goccy/go-yaml"
)

// Режимы работы прокси
const (
	ModePersistent = "persistent"
	ModePerRequest = "per-request"
)

// ErrInvalidMode неизвестный режим прокси
var ErrInvalidMode = errors.New("invalid proxy mode")

// Значения по умолчанию
const (
	defaultServerAddress  = "localhost:8080"
	defaultBackendAddress = "localhost:5000"
	defaultBackendCommand = "python main.py"
	defaultWarmup         = 2 * time.Second
	defaultLogLevel       = "info"
	defaultShortenPath    = "/shorten"
	defaultAliasField     = "custom_url"
)

// Duration длительность, которая читается из env, флагов и JSON в виде "2s"
type Duration struct {
	time.Duration
}

// UnmarshalText разбирает строку вида "1500ms"
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText возвращает строковое представление длительности
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config содержит все конфигурационные параметры прокси
type Config struct {
	ServerAddress  string   `json:"server_address" yaml:"server_address" env:"SERVER_ADDRESS" envDefault:"localhost:8080"`
	BackendAddress string   `json:"backend_address" yaml:"backend_address" env:"BACKEND_ADDRESS" envDefault:"localhost:5000"`
	BackendCommand string   `json:"backend_command" yaml:"backend_command" env:"BACKEND_COMMAND" envDefault:"python main.py"`
	BackendDir     string   `json:"backend_dir" yaml:"backend_dir" env:"BACKEND_DIR"`
	BackendWarmup  Duration `json:"backend_warmup" yaml:"backend_warmup" env:"BACKEND_WARMUP" envDefault:"2s"`
	ProxyMode      string   `json:"proxy_mode" yaml:"proxy_mode" env:"PROXY_MODE" envDefault:"persistent"`
	LoggerLevel    string   `json:"log_level" yaml:"log_level" env:"LOG_LEVEL" envDefault:"info"`
	EnableGzip     bool     `json:"enable_gzip" yaml:"enable_gzip" env:"ENABLE_GZIP"`
	EnforceAlias   bool     `json:"enforce_alias" yaml:"enforce_alias" env:"ENFORCE_ALIAS"`
	ShortenPath    string   `json:"shorten_path" yaml:"shorten_path" env:"SHORTEN_PATH" envDefault:"/shorten"`
	AliasField     string   `json:"alias_field" yaml:"alias_field" env:"ALIAS_FIELD" envDefault:"custom_url"`
	PprofAddress   string   `json:"pprof_address" yaml:"pprof_address" env:"PPROF_ADDRESS"`
	TrustedSubnet  string   `json:"trusted_subnet" yaml:"trusted_subnet" env:"TRUSTED_SUBNET"`
	ConfigFile     string   `json:"-" yaml:"-" env:"CONFIG"`
}

// LoadConfig загружает конфигурацию из переменных окружения и флагов командной строки или конфиг файла (JSON или YAML)
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load как LoadConfig, но с явным набором флагов и аргументами
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := ParseFlags(fs, args, config); err != nil {
		return nil, err
	}

	if config.ConfigFile != "" {
		fileConfig, err := loadConfigFromFile(config.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		mergeConfigs(config, fileConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseFlags добавляет флаги командной строки для параметров конфигурации
// и переопределяет значения, если они указаны в аргументах запуска.
func ParseFlags(fs *flag.FlagSet, args []string, config *Config) error {
	fs.StringVar(&config.ServerAddress, "a", config.ServerAddress, "address and port to run proxy")
	fs.StringVar(&config.BackendAddress, "b", config.BackendAddress, "backend address to forward to")
	fs.StringVar(&config.BackendCommand, "e", config.BackendCommand, "command that starts the backend")
	fs.StringVar(&config.BackendDir, "w", config.BackendDir, "backend working directory")
	fs.DurationVar(&config.BackendWarmup.Duration, "warmup", config.BackendWarmup.Duration, "backend warm-up delay")
	fs.StringVar(&config.ProxyMode, "m", config.ProxyMode, "proxy mode: persistent or per-request")
	fs.StringVar(&config.LoggerLevel, "l", config.LoggerLevel, "log level")
	fs.BoolVar(&config.EnableGzip, "z", config.EnableGzip, "enable gzip compression")
	fs.BoolVar(&config.EnforceAlias, "enforce-alias", config.EnforceAlias, "validate custom aliases before forwarding")
	fs.StringVar(&config.ShortenPath, "shorten-path", config.ShortenPath, "path of the shorten form")
	fs.StringVar(&config.AliasField, "alias-field", config.AliasField, "form field holding the custom alias")
	fs.StringVar(&config.PprofAddress, "pprof", config.PprofAddress, "pprof listen address, empty to disable")
	fs.StringVar(&config.TrustedSubnet, "t", config.TrustedSubnet, "CIDR allowed to reach pprof, loopback only when empty")
	fs.StringVar(&config.ConfigFile, "c", config.ConfigFile, "path to config file, JSON or YAML (.yaml, .yml)")

	return fs.Parse(args)
}

// Command команда бэкенда, разбитая на аргументы
func (c *Config) Command() []string {
	return strings.Fields(c.BackendCommand)
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	switch c.ProxyMode {
	case ModePersistent, ModePerRequest:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.ProxyMode)
	}
	if len(c.Command()) == 0 {
		return errors.New("backend command is empty")
	}
	if c.ProxyMode == ModePersistent && c.BackendAddress == "" {
		return errors.New("backend address is empty")
	}
	if c.BackendWarmup.Duration < 0 {
		return errors.New("backend warm-up must not be negative")
	}
	if _, err := c.TrustedNet(); err != nil {
		return err
	}
	return nil
}

// TrustedNet разбирает TrustedSubnet; nil, если подсеть не задана
func (c *Config) TrustedNet() (*net.IPNet, error) {
	if c.TrustedSubnet == "" {
		return nil, nil
	}
	_, ipNet, err := net.ParseCIDR(c.TrustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted subnet: %w", err)
	}
	return ipNet, nil
}

// loadConfigFromFile читает JSON, а файлы .yaml и .yml как YAML
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) isDefault(field string) bool {
	switch field {
	case "ServerAddress":
		return c.ServerAddress == defaultServerAddress
	case "BackendAddress":
		return c.BackendAddress == defaultBackendAddress
	case "BackendCommand":
		return c.BackendCommand == defaultBackendCommand
	case "BackendDir":
		return c.BackendDir == ""
	case "BackendWarmup":
		return c.BackendWarmup.Duration == defaultWarmup
	case "ProxyMode":
		return c.ProxyMode == ModePersistent
	case "LoggerLevel":
		return c.LoggerLevel == defaultLogLevel
	case "EnableGzip":
		return !c.EnableGzip
	case "EnforceAlias":
		return !c.EnforceAlias
	case "ShortenPath":
		return c.ShortenPath == defaultShortenPath
	case "AliasField":
		return c.AliasField == defaultAliasField
	case "PprofAddress":
		return c.PprofAddress == ""
	case "TrustedSubnet":
		return c.TrustedSubnet == ""
	default:
		return false
	}
}

// mergeConfigs заполняет из файла только те поля, которые остались по умолчанию
func mergeConfigs(dst, src *Config) {
	if src.ServerAddress != "" && dst.isDefault("ServerAddress") {
		dst.ServerAddress = src.ServerAddress
	}
	if src.BackendAddress != "" && dst.isDefault("BackendAddress") {
		dst.BackendAddress = src.BackendAddress
	}
	if src.BackendCommand != "" && dst.isDefault("BackendCommand") {
		dst.BackendCommand = src.BackendCommand
	}
	if src.BackendDir != "" && dst.isDefault("BackendDir") {
		dst.BackendDir = src.BackendDir
	}
	if src.BackendWarmup.Duration != 0 && dst.isDefault("BackendWarmup") {
		dst.BackendWarmup = src.BackendWarmup
	}
	if src.ProxyMode != "" && dst.isDefault("ProxyMode") {
		dst.ProxyMode = src.ProxyMode
	}
	if src.LoggerLevel != "" && dst.isDefault("LoggerLevel") {
		dst.LoggerLevel = src.LoggerLevel
	}
	if src.EnableGzip && dst.isDefault("EnableGzip") {
		dst.EnableGzip = src.EnableGzip
	}
	if src.EnforceAlias && dst.isDefault("EnforceAlias") {
		dst.EnforceAlias = src.EnforceAlias
	}
	if src.ShortenPath != "" && dst.isDefault("ShortenPath") {
		dst.ShortenPath = src.ShortenPath
	}
	if src.AliasField != "" && dst.isDefault("AliasField") {
		dst.AliasField = src.AliasField
	}
	if src.PprofAddress != "" && dst.isDefault("PprofAddress") {
		dst.PprofAddress = src.PprofAddress
	}
	if src.TrustedSubnet != "" && dst.isDefault("TrustedSubnet") {
		dst.TrustedSubnet = src.TrustedSubnet
	}
}
