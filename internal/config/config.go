package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Security SecurityConfig `yaml:"security"`
	Admin    AdminConfig    `yaml:"admin"`
	Upload   UploadConfig   `yaml:"upload"`
	Redis    RedisConfig    `yaml:"redis"`
	Email    EmailConfig    `yaml:"email"`
	Audit    AuditConfig    `yaml:"audit"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host              string `yaml:"host"`
	Port              string `yaml:"port"`
	Mode              string `yaml:"mode"` // debug, release, test
	ClientURL         string `yaml:"client_url"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

type SecurityConfig struct {
	BcryptCost         int     `yaml:"bcrypt_cost"`
	AuthRateLimitRPS   float64 `yaml:"auth_rate_limit_rps"`
	AuthRateLimitBurst int     `yaml:"auth_rate_limit_burst"`
}

// AdminConfig is the bootstrap administrator created when no admin exists.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type UploadConfig struct {
	Dir               string   `yaml:"dir"`
	PublicPath        string   `yaml:"public_path"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	Storage           string   `yaml:"storage"` // local, s3
	S3                S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Prefix        string `yaml:"prefix"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// RedisConfig for optional async task queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	UseTLS   bool   `yaml:"use_tls"`
}

type AuditConfig struct {
	RetentionDays int    `yaml:"retention_days"`
	CleanupCron   string `yaml:"cleanup_cron"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "5000",
			Mode:              "debug",
			ClientURL:         "http://localhost:3000",
			RequestTimeoutSec: 30,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "innovators_hub.db",
		},
		JWT: JWTConfig{
			Secret:     "innovators-hub-secret-change-in-production",
			ExpireHour: 24 * 7,
		},
		Security: SecurityConfig{
			BcryptCost:         10,
			AuthRateLimitRPS:   5,
			AuthRateLimitBurst: 10,
		},
		Admin: AdminConfig{
			Email:    "admin@ucu.ac.ug",
			Password: "admin123",
		},
		Upload: UploadConfig{
			Dir:               "uploads",
			PublicPath:        "/uploads",
			MaxFileSize:       5 * 1024 * 1024,
			AllowedExtensions: []string{".pdf", ".doc", ".docx"},
			Storage:           "local",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Email: EmailConfig{
			Port: 587,
			From: "no-reply@ucu.ac.ug",
		},
		Audit: AuditConfig{
			RetentionDays: 90,
			CleanupCron:   "0 3 * * *",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		c.Server.ClientURL = clientURL
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if hours, err := strconv.Atoi(os.Getenv("JWT_EXPIRE_HOUR")); err == nil && hours > 0 {
		c.JWT.ExpireHour = hours
	}
	if cost, err := strconv.Atoi(os.Getenv("BCRYPT_COST")); err == nil && cost > 0 {
		c.Security.BcryptCost = cost
	}
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		c.Admin.Email = email
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		c.Admin.Password = password
	}
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		c.Upload.Dir = dir
	}
	if size, err := strconv.ParseInt(os.Getenv("MAX_FILE_SIZE"), 10, 64); err == nil && size > 0 {
		c.Upload.MaxFileSize = size
	}
	if exts := os.Getenv("ALLOWED_EXTENSIONS"); exts != "" {
		c.Upload.AllowedExtensions = ParseExtensions(exts)
	}
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		c.Upload.Storage = driver
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		c.Upload.S3.Bucket = bucket
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		c.Upload.S3.Region = region
	}
	if baseURL := os.Getenv("S3_PUBLIC_BASE_URL"); baseURL != "" {
		c.Upload.S3.PublicBaseURL = baseURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		if err := c.applyRedisURL(redisURL); err != nil {
			return fmt.Errorf("REDIS_URL: %w", err)
		}
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		c.Email.Enabled = true
		c.Email.Host = host
	}
	if port, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && port > 0 {
		c.Email.Port = port
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		c.Email.Username = user
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		c.Email.Password = password
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		c.Email.From = from
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	return nil
}

// ParseExtensions turns "pdf, .DOC,docx" into [".pdf" ".doc" ".docx"].
func ParseExtensions(raw string) []string {
	var exts []string
	for _, part := range strings.Split(raw, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

// applyRedisURL enables the queue with the address, credentials and
// database of a redis:// or rediss:// URL.
func (c *Config) applyRedisURL(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}
	client, ok := opt.(asynq.RedisClientOpt)
	if !ok || client.Network == "unix" {
		return fmt.Errorf("only redis:// and rediss:// URLs are supported")
	}

	c.Redis.Enabled = true
	c.Redis.Addr = client.Addr
	c.Redis.Password = client.Password
	c.Redis.DB = client.DB
	c.Redis.TLS = client.TLSConfig != nil
	return nil
}

// WriteFile stores c as YAML at path. The file holds secrets, so it is
// created owner-only and an existing file is never replaced.
func (c *Config) WriteFile(path string) error {
	if path == "" {
		path = "config.yaml"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
