package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	Vision    VisionConfig
	CORS      CORSConfig
	Tasks     TaskConfig
	TaskStore TaskStoreConfig
	Redis     RedisConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// VisionConfig holds settings for the vision model used to read price tables.
type VisionConfig struct {
	Provider          string `mapstructure:"provider"`
	APIKey            string `mapstructure:"api_key"`
	Endpoint          string `mapstructure:"endpoint"`
	Model             string `mapstructure:"model"`
	TimeoutSecs       int    `mapstructure:"timeout_secs"`
	MaxConcurrent     int    `mapstructure:"max_concurrent"`
	MaxImageDimension int    `mapstructure:"max_image_dimension"`
}

// Timeout returns the HTTP timeout for a single vision call.
func (v *VisionConfig) Timeout() time.Duration {
	if v.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(v.TimeoutSecs) * time.Second
}

// TaskConfig holds parse task pool settings.
type TaskConfig struct {
	Concurrency     int  `mapstructure:"concurrency"`
	QueueSize       int  `mapstructure:"queue_size"`
	MaxImages       int  `mapstructure:"max_images"`
	ShutdownTimeout int  `mapstructure:"shutdown_timeout_secs"`
	TaskTimeoutSecs int  `mapstructure:"task_timeout_secs"`
	AutoSave        bool `mapstructure:"auto_save"`
}

// TaskStoreConfig selects where parse task state lives.
type TaskStoreConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
	Prefix string        `mapstructure:"prefix"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds settings for validating operator access tokens.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from environment variables with the AGROPRICE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGROPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "agroprice")
	v.SetDefault("db.password", "agroprice_secret")
	v.SetDefault("db.name", "agroprice_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "agroprice")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "agroprice-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Vision defaults
	v.SetDefault("vision.provider", "openai")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.endpoint", "")
	v.SetDefault("vision.model", "")
	v.SetDefault("vision.timeout_secs", 120)
	v.SetDefault("vision.max_concurrent", 4)
	v.SetDefault("vision.max_image_dimension", 2048)

	// Task pool defaults
	v.SetDefault("tasks.concurrency", 4)
	v.SetDefault("tasks.queue_size", 64)
	v.SetDefault("tasks.max_images", 10)
	v.SetDefault("tasks.shutdown_timeout_secs", 30)
	v.SetDefault("tasks.task_timeout_secs", 1800)
	v.SetDefault("tasks.auto_save", false)

	// Task store defaults
	v.SetDefault("task_store.driver", "memory")
	v.SetDefault("task_store.ttl", "24h")
	v.SetDefault("task_store.prefix", "agroprice:parse_task:")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "AGROPRICE_SERVER_PORT",
		"server.read_timeout":         "AGROPRICE_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "AGROPRICE_SERVER_WRITE_TIMEOUT",
		"server.environment":          "AGROPRICE_SERVER_ENVIRONMENT",
		"db.host":                     "AGROPRICE_DB_HOST",
		"db.port":                     "AGROPRICE_DB_PORT",
		"db.user":                     "AGROPRICE_DB_USER",
		"db.password":                 "AGROPRICE_DB_PASSWORD",
		"db.name":                     "AGROPRICE_DB_NAME",
		"db.sslmode":                  "AGROPRICE_DB_SSLMODE",
		"db.max_open":                 "AGROPRICE_DB_MAX_OPEN",
		"db.max_idle":                 "AGROPRICE_DB_MAX_IDLE",
		"jwt.secret":                  "AGROPRICE_JWT_SECRET",
		"jwt.issuer":                  "AGROPRICE_JWT_ISSUER",
		"s3.region":                   "AGROPRICE_S3_REGION",
		"s3.bucket":                   "AGROPRICE_S3_BUCKET",
		"s3.endpoint":                 "AGROPRICE_S3_ENDPOINT",
		"s3.access_key":               "AGROPRICE_S3_ACCESS_KEY",
		"s3.secret_key":               "AGROPRICE_S3_SECRET_KEY",
		"s3.presign_expiry":           "AGROPRICE_S3_PRESIGN_EXPIRY",
		"log.level":                   "AGROPRICE_LOG_LEVEL",
		"log.format":                  "AGROPRICE_LOG_FORMAT",
		"log.file":                    "AGROPRICE_LOG_FILE",
		"cors.allowed_origins":        "AGROPRICE_CORS_ALLOWED_ORIGINS",
		"vision.provider":             "AGROPRICE_VISION_PROVIDER",
		"vision.api_key":              "AGROPRICE_VISION_API_KEY",
		"vision.endpoint":             "AGROPRICE_VISION_ENDPOINT",
		"vision.model":                "AGROPRICE_VISION_MODEL",
		"vision.timeout_secs":         "AGROPRICE_VISION_TIMEOUT_SECS",
		"vision.max_concurrent":       "AGROPRICE_VISION_MAX_CONCURRENT",
		"vision.max_image_dimension":  "AGROPRICE_VISION_MAX_IMAGE_DIMENSION",
		"tasks.concurrency":           "AGROPRICE_TASKS_CONCURRENCY",
		"tasks.queue_size":            "AGROPRICE_TASKS_QUEUE_SIZE",
		"tasks.max_images":            "AGROPRICE_TASKS_MAX_IMAGES",
		"tasks.shutdown_timeout_secs": "AGROPRICE_TASKS_SHUTDOWN_TIMEOUT_SECS",
		"tasks.task_timeout_secs":     "AGROPRICE_TASKS_TASK_TIMEOUT_SECS",
		"tasks.auto_save":             "AGROPRICE_TASKS_AUTO_SAVE",
		"task_store.driver":           "AGROPRICE_TASK_STORE_DRIVER",
		"task_store.ttl":              "AGROPRICE_TASK_STORE_TTL",
		"task_store.prefix":           "AGROPRICE_TASK_STORE_PREFIX",
		"redis.addr":                  "AGROPRICE_REDIS_ADDR",
		"redis.password":              "AGROPRICE_REDIS_PASSWORD",
		"redis.db":                    "AGROPRICE_REDIS_DB",
		"redis.pool_size":             "AGROPRICE_REDIS_POOL_SIZE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if AGROPRICE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("AGROPRICE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		File:   v.GetString("log.file"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Vision = VisionConfig{
		Provider:          v.GetString("vision.provider"),
		APIKey:            v.GetString("vision.api_key"),
		Endpoint:          v.GetString("vision.endpoint"),
		Model:             v.GetString("vision.model"),
		TimeoutSecs:       v.GetInt("vision.timeout_secs"),
		MaxConcurrent:     v.GetInt("vision.max_concurrent"),
		MaxImageDimension: v.GetInt("vision.max_image_dimension"),
	}

	cfg.Tasks = TaskConfig{
		Concurrency:     v.GetInt("tasks.concurrency"),
		QueueSize:       v.GetInt("tasks.queue_size"),
		MaxImages:       v.GetInt("tasks.max_images"),
		ShutdownTimeout: v.GetInt("tasks.shutdown_timeout_secs"),
		TaskTimeoutSecs: v.GetInt("tasks.task_timeout_secs"),
		AutoSave:        v.GetBool("tasks.auto_save"),
	}

	cfg.TaskStore = TaskStoreConfig{
		Driver: v.GetString("task_store.driver"),
		TTL:    v.GetDuration("task_store.ttl"),
		Prefix: v.GetString("task_store.prefix"),
	}

	cfg.Redis = RedisConfig{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
		PoolSize: v.GetInt("redis.pool_size"),
	}

	if cfg.TaskStore.Driver != "memory" && cfg.TaskStore.Driver != "redis" {
		return nil, fmt.Errorf("unknown task store driver: %s", cfg.TaskStore.Driver)
	}

	return cfg, nil
}
