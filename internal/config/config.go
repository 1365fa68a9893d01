package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Session       SessionConfig       `mapstructure:"session"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Storage       StorageConfig       `mapstructure:"storage"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Thumbnail     ThumbnailConfig     `mapstructure:"thumbnail"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Web           WebConfig           `mapstructure:"web"`
	Log           LogConfig           `mapstructure:"log"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Mode    string `mapstructure:"mode"`
	Port    int    `mapstructure:"port"`
}

// DatabaseConfig 数据库配置，driver 为 sqlite 或 postgres
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
}

// DSN 返回PostgreSQL连接字符串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr 返回Redis地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SessionConfig 会话配置，store 为 memory 或 redis
type SessionConfig struct {
	Store      string `mapstructure:"store"`
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
	TTLHours   int    `mapstructure:"ttl_hours"`
	Secure     bool   `mapstructure:"secure"`
}

// TTL 返回会话有效期
func (s *SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// UploadConfig 上传配置
type UploadConfig struct {
	MaxSize     int64    `mapstructure:"max_size"` // 字节
	AllowedExts []string `mapstructure:"allowed_exts"`
	WorkDir     string   `mapstructure:"work_dir"`
}

// IsAllowedExt 判断扩展名（含点，大小写不敏感）是否在白名单内
func (u *UploadConfig) IsAllowedExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range u.AllowedExts {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// StorageConfig 文件存储配置，driver 为 local 或 minio
type StorageConfig struct {
	Driver       string `mapstructure:"driver"`
	UploadDir    string `mapstructure:"upload_dir"`
	ThumbnailDir string `mapstructure:"thumbnail_dir"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	VideoBucket     string `mapstructure:"video_bucket"`
	ThumbnailBucket string `mapstructure:"thumbnail_bucket"`
}

// ThumbnailConfig 缩略图提取配置
type ThumbnailConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	FFmpeg  string `mapstructure:"ffmpeg"`
	Offset  string `mapstructure:"offset"`
	Timeout int    `mapstructure:"timeout"` // 秒
}

// TimeoutDuration 返回提取超时时间
func (t *ThumbnailConfig) TimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Hosts   []string          `mapstructure:"hosts"`
	Index   map[string]string `mapstructure:"index"`
}

// VideosIndex 返回视频索引名
func (e *ElasticsearchConfig) VideosIndex() string {
	if name := e.Index["videos"]; name != "" {
		return name
	}
	return "videos"
}

// WebConfig 页面展示配置
type WebConfig struct {
	PlaceholderThumbnail string   `mapstructure:"placeholder_thumbnail"`
	Categories           []string `mapstructure:"categories"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// 全局配置实例
var globalConfig *Config

// Load 加载配置文件，文件不存在时使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖，session.secret -> SESSION_SECRET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("session.secret", "SECRET_KEY", "SESSION_SECRET")
	_ = v.BindEnv("upload.max_size", "MAX_UPLOAD_SIZE", "UPLOAD_MAX_SIZE")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "FriendHub")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.mode", "debug")
	v.SetDefault("app.port", 10000)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite_path", "friendhub.db")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "friendhub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 3600)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.secret", "dev")
	v.SetDefault("session.cookie_name", "friendhub_session")
	v.SetDefault("session.ttl_hours", 24)
	v.SetDefault("session.secure", false)

	v.SetDefault("upload.max_size", 200*1024*1024)
	v.SetDefault("upload.allowed_exts", []string{".mp4", ".webm", ".ogg", ".mov", ".mkv", ".avi"})
	v.SetDefault("upload.work_dir", "")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.thumbnail_dir", "thumbnails")

	v.SetDefault("minio.endpoint", "127.0.0.1:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.video_bucket", "friendhub-videos")
	v.SetDefault("minio.thumbnail_bucket", "friendhub-thumbnails")

	v.SetDefault("thumbnail.enabled", true)
	v.SetDefault("thumbnail.ffmpeg", "ffmpeg")
	v.SetDefault("thumbnail.offset", "1")
	v.SetDefault("thumbnail.timeout", 15)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topics", map[string]string{"video_events": "friendhub.video.events"})

	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.hosts", []string{"http://127.0.0.1:9200"})
	v.SetDefault("elasticsearch.index", map[string]string{"videos": "friendhub_videos"})

	v.SetDefault("web.placeholder_thumbnail", "https://placehold.co/400x225")
	v.SetDefault("web.categories", []string{"Funny", "Gameplay", "Vlog", "Music", "Prank"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "logs/friendhub.log")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("session.secret (SECRET_KEY) must not be empty")
	}
	if c.Session.TTLHours <= 0 {
		return fmt.Errorf("session.ttl_hours must be positive, got %d", c.Session.TTLHours)
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size must be positive, got %d", c.Upload.MaxSize)
	}
	if len(c.Upload.AllowedExts) == 0 {
		return errors.New("upload.allowed_exts must not be empty")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported session.store %q", c.Session.Store)
	}
	switch c.Storage.Driver {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded, please call Load() first")
	}
	return globalConfig
}

// GetApp 获取应用配置
func GetApp() *AppConfig {
	return &Get().App
}

// GetSession 获取会话配置
func GetSession() *SessionConfig {
	return &Get().Session
}

// GetUpload 获取上传配置
func GetUpload() *UploadConfig {
	return &Get().Upload
}

// GetKafka 获取Kafka配置
func GetKafka() *KafkaConfig {
	return &Get().Kafka
}

// GetElasticsearch 获取Elasticsearch配置
func GetElasticsearch() *ElasticsearchConfig {
	return &Get().Elasticsearch
}

// GetWeb 获取页面配置
func GetWeb() *WebConfig {
	return &Get().Web
}

// GetLog 获取日志配置
func GetLog() *LogConfig {
	return &Get().Log
}
