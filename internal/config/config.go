package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`

	HTTP     HTTPConfig     `yaml:"http"`
	Tokens   TokensConfig   `yaml:"tokens"`
	Reset    ResetConfig    `yaml:"reset"`
	Password PasswordPolicy `yaml:"password"`
	SMTP     SMTPConfig     `yaml:"smtp"`
}

type HTTPConfig struct {
	Host        string        `yaml:"host" env-default:"0.0.0.0"`
	Port        int           `yaml:"port" env-default:"8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// TokensConfig configures session token issuance. The signing secret is
// env-only so it never lands in a config file.
type TokensConfig struct {
	Secret      string        `env:"JWT_SECRET" env-required:"true"`
	TTL         time.Duration `yaml:"ttl" env-default:"168h"`
	RememberTTL time.Duration `yaml:"remember_ttl" env-default:"720h"`
}

// ResetConfig configures password reset tokens. LinkBase is the client
// URL the emailed reset link points at.
type ResetConfig struct {
	TTL      time.Duration `yaml:"ttl" env-default:"1h"`
	LinkBase string        `yaml:"link_base" env-default:"http://localhost:5173"`
}

// PasswordPolicy is enforced before hashing, on registration and reset.
type PasswordPolicy struct {
	MinLength        int  `yaml:"min_length" env-default:"6"`
	RequireMixedCase bool `yaml:"require_mixed_case" env-default:"false"`
	RequireDigit     bool `yaml:"require_digit" env-default:"false"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" env-default:"587"`
	User     string `yaml:"user"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `yaml:"from"`
}

// MustLoad loads the config from the path given by the --config flag or
// the CONFIG_PATH env var, panicking on any failure.
func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}

// fetchConfigPath fetches config path from command line flag or env var.
// Priority: flag > env > default (empty).
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
