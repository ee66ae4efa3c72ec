package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
		MaxUploadMB  int64  `yaml:"max_upload_mb"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		ID                   string `yaml:"id"`
		ReconcileInterval    string `yaml:"reconcile_interval"`
		ReconcileConcurrency int    `yaml:"reconcile_concurrency"`
		DraftTTL             string `yaml:"draft_ttl"`
	} `yaml:"quiz"`
	AnswerKey struct {
		// Path is a YAML answer key; when empty the key is read from Postgres.
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"answer_key"`
	Admin struct {
		PasswordHash string `yaml:"password_hash"`
		JWTSecret    string `yaml:"jwt_secret"`
		TokenTTL     string `yaml:"token_ttl"`
	} `yaml:"admin"`
	Sheets struct {
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		CredentialsFile string `yaml:"credentials_file"`
		CredentialsJSON string `yaml:"credentials_json"`
		Endpoint        string `yaml:"endpoint"`
	} `yaml:"sheets"`
	Storage struct {
		// Provider is one of memory, minio, b2.
		Provider      string `yaml:"provider"`
		Bucket        string `yaml:"bucket"`
		PublicBaseURL string `yaml:"public_base_url"`
		LinkTTL       string `yaml:"link_ttl"`
		Minio         struct {
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			UseSSL    bool   `yaml:"use_ssl"`
		} `yaml:"minio"`
		B2 struct {
			Account string `yaml:"account"`
			Key     string `yaml:"key"`
		} `yaml:"b2"`
	} `yaml:"storage"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Medium struct {
		FeedURL string `yaml:"feed_url"`
	} `yaml:"medium"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads YAML config from path. Variables from a .env file in the working
// directory, if any, are loaded first; environment variables then override
// secrets and connection settings.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Postgres.URL, "DATABASE_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&cfg.Admin.JWTSecret, "JWT_SECRET")
	setString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	if raw, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	setString(&cfg.Storage.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Storage.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Storage.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Storage.B2.Account, "B2_ACCOUNT_ID")
	setString(&cfg.Storage.B2.Key, "B2_APPLICATION_KEY")
	setString(&cfg.Sheets.SpreadsheetID, "GOOGLE_SPREADSHEET_ID")
	setString(&cfg.Sheets.CredentialsJSON, "GOOGLE_SERVICE_ACCOUNT_JSON")
	setString(&cfg.Log.Level, "LOG_LEVEL")
}

func applyDefaults(cfg *Config) {
	if cfg.Quiz.ID == "" {
		cfg.Quiz.ID = "round1"
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "memory"
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 10
	}
}

func setString(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
