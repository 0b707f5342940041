package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Version is the application version embedded in exported archive manifests.
const Version = "1.2.0"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Images   ImagesConfig
	Import   ImportConfig
	Public   PublicConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// StorageConfig selects the file backend behind the two image roots.
// Backend is "disk" or "minio". The roots are mirrored relative-path
// trees: originals under the upload root, thumbnails under the thumb root.
type StorageConfig struct {
	Backend    string      `mapstructure:"backend"`
	UploadRoot string      `mapstructure:"upload_root"`
	ThumbRoot  string      `mapstructure:"thumb_root"`
	MinIO      MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	UploadBucket string `mapstructure:"upload_bucket"`
	ThumbBucket  string `mapstructure:"thumb_bucket"`
}

type ImagesConfig struct {
	ThumbnailSize int `mapstructure:"thumbnail_size"`
}

type ImportConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// PublicConfig carries the externally visible base URLs embedded in
// exported manifests, plus the allowed CORS origins.
type PublicConfig struct {
	ImageBaseURL    string   `mapstructure:"image_base_url"`
	FrontendBaseURL string   `mapstructure:"frontend_base_url"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level            string        `mapstructure:"level"`
	Format           string        `mapstructure:"format"`
	Output           string        `mapstructure:"output"`
	File             FileLogConfig `mapstructure:"file"`
	EnableCaller     bool          `mapstructure:"enablecaller"`
	EnableStacktrace bool          `mapstructure:"enablestacktrace"`
}

type FileLogConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"`
	MaxAge     int    `mapstructure:"maxage"`
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("storage.backend", "disk")
	viper.SetDefault("storage.upload_root", "/srv/images")
	viper.SetDefault("storage.thumb_root", "/srv/thumbs")
	viper.SetDefault("images.thumbnail_size", 500)
	viper.SetDefault("import.workers", 4)
	viper.SetDefault("import.queue_size", 64)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
