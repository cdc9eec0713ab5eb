package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// RedisConfig: 空の host ならトークン失効はプロセス内メモリで管理する
type RedisConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// StorageConfig: driver は "disk" か "minio"
type StorageConfig struct {
	Driver    string      `yaml:"driver"`
	Dir       string      `yaml:"dir"`
	PublicURL string      `yaml:"public_url"`
	MaxBytes  int64       `yaml:"max_bytes"`
	Minio     MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint string `yaml:"endpoint"`
	User     string `yaml:"user"`
	Pass     string `yaml:"pass"`
	Bucket   string `yaml:"bucket"`
	UseSSL   bool   `yaml:"use_ssl"`
}

// LibraryConfig は貸出・予約の運用ルール
type LibraryConfig struct {
	LoanDays            int     `yaml:"loan_days"`
	FinePerDay          float64 `yaml:"fine_per_day"`
	LostFee             float64 `yaml:"lost_fee"`
	ReservationHoldDays int     `yaml:"reservation_hold_days"`
	LowStockThreshold   int     `yaml:"low_stock_threshold"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode"`
	Addr        string         `yaml:"addr"`
	DB          DatabaseConfig `yaml:"database"`
	Certificate Certs          `yaml:"certificate"`
	Auth        AuthConfig     `yaml:"auth"`
	Redis       RedisConfig    `yaml:"redis"`
	Storage     StorageConfig  `yaml:"storage"`
	Library     LibraryConfig  `yaml:"library"`
}

func Load(path string) (*Config, error) {
	// .env は任意
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] .env not loaded: %v", err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	cfg.applyEnv()

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		return nil, fmt.Errorf("mode must be dev or release, got %q", cfg.Mode)
	}
	if cfg.Mode == "release" && cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret (or LIB_JWT_SECRET) is required in release mode")
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// 秘密情報は環境変数で上書きする
func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setStr(&c.Mode, "LIB_MODE")
	setStr(&c.DB.Host, "LIB_DB_HOST")
	setStr(&c.DB.Username, "LIB_DB_USER")
	setStr(&c.DB.Password, "LIB_DB_PASSWORD")
	setStr(&c.DB.DBName, "LIB_DB_NAME")
	setStr(&c.Auth.JWTSecret, "LIB_JWT_SECRET")
	setStr(&c.Redis.Password, "LIB_REDIS_PASSWORD")
	setStr(&c.Storage.Minio.User, "LIB_MINIO_USER")
	setStr(&c.Storage.Minio.Pass, "LIB_MINIO_PASS")
	if v := os.Getenv("LIB_DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DB.Port = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8443"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.JWTSecret == "" {
		// dev 専用
		c.Auth.JWTSecret = "dev-secret-change-me"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "disk"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "storage"
	}
	if c.Storage.PublicURL == "" {
		c.Storage.PublicURL = "/storage"
	}
	if c.Storage.MaxBytes <= 0 {
		c.Storage.MaxBytes = 5 << 20
	}
	if c.Library.LoanDays <= 0 {
		c.Library.LoanDays = 14
	}
	if c.Library.FinePerDay <= 0 {
		c.Library.FinePerDay = 1.00
	}
	if c.Library.LostFee <= 0 {
		c.Library.LostFee = 50.00
	}
	if c.Library.ReservationHoldDays <= 0 {
		c.Library.ReservationHoldDays = 7
	}
	if c.Library.LowStockThreshold <= 0 {
		c.Library.LowStockThreshold = 1
	}
}
