package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	LogLevel    string
	ServiceName string
	HTTPHost    string
	HTTPPort    string

	FFmpeg           string
	FFprobe          string
	Preset           string
	TranscodeTimeout time.Duration
	ProbeTimeout     time.Duration
	DefaultFPS       int
	DefaultFormat    string

	TempFolderPath   string
	MaxUploadSize    int64
	RemoveRetries    int
	RemoveBackoff    time.Duration
	RemoveMaxBackoff time.Duration

	RateLimitPerMinute int
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	RabbitMqEnabled  bool
	RabbitMqHost     string
	RabbitMqPort     string
	RabbitMqUser     string
	RabbitMqPassword string
	WriteQueue       string

	Cloud struct {
		Type      string
		Endpoint  string
		AccessKey string
		SecretKey string
		Region    string
		Bucket    string
		Secure    bool
	}

	Stages struct {
		Probe     string
		Transcode string
		Send      string
	}
	Status struct {
		Pending string
		Running string
		Success string
		Fail    string
	}
}

func Load() Config {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Could not load the .env file")
	}

	c := Config{}
	c.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", "debug"))
	c.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "video_compressor"))
	c.HTTPHost = cast.ToString(getOrReturnDefault("HTTP_HOST", ""))
	c.HTTPPort = cast.ToString(getOrReturnDefault("HTTP_PORT", "5000"))

	c.FFmpeg = cast.ToString(getOrReturnDefault("FFMPEG", "ffmpeg"))
	c.FFprobe = cast.ToString(getOrReturnDefault("FFPROBE", "ffprobe"))
	c.Preset = cast.ToString(getOrReturnDefault("PRESET", "veryfast"))
	c.TranscodeTimeout = cast.ToDuration(getOrReturnDefault("TRANSCODE_TIMEOUT", "30m"))
	c.ProbeTimeout = cast.ToDuration(getOrReturnDefault("PROBE_TIMEOUT", "1m"))
	c.DefaultFPS = cast.ToInt(getOrReturnDefault("DEFAULT_FPS", 30))
	c.DefaultFormat = strings.ToLower(cast.ToString(getOrReturnDefault("DEFAULT_FORMAT", "mp4")))

	c.TempFolderPath = cast.ToString(getOrReturnDefault("TEMP_FOLDER_PATH", os.TempDir()))
	c.MaxUploadSize = cast.ToInt64(getOrReturnDefault("MAX_UPLOAD_SIZE", int64(1<<30)))
	c.RemoveRetries = cast.ToInt(getOrReturnDefault("REMOVE_RETRIES", 5))
	c.RemoveBackoff = cast.ToDuration(getOrReturnDefault("REMOVE_BACKOFF", "100ms"))
	c.RemoveMaxBackoff = cast.ToDuration(getOrReturnDefault("REMOVE_MAX_BACKOFF", "2s"))

	c.RateLimitPerMinute = cast.ToInt(getOrReturnDefault("RATE_LIMIT_PER_MINUTE", 30))
	c.CORSAllowedOrigins = splitList(cast.ToString(getOrReturnDefault("CORS_ALLOWED_ORIGINS", "*")))
	c.ShutdownTimeout = cast.ToDuration(getOrReturnDefault("SHUTDOWN_TIMEOUT", "30s"))

	c.RabbitMqEnabled = cast.ToBool(getOrReturnDefault("RABBITMQ_ENABLED", false))
	c.RabbitMqHost = cast.ToString(getOrReturnDefault("RABBITMQ_HOST", "localhost"))
	c.RabbitMqPort = cast.ToString(getOrReturnDefault("RABBITMQ_PORT", "5672"))
	c.RabbitMqUser = cast.ToString(getOrReturnDefault("RABBITMQ_USER", "user"))
	c.RabbitMqPassword = cast.ToString(getOrReturnDefault("RABBITMQ_PASSWORD", "secret"))
	c.WriteQueue = cast.ToString(getOrReturnDefault("WRITE_QUEUE", "compress_job_status"))

	c.Cloud.Type = strings.ToLower(cast.ToString(getOrReturnDefault("CLOUD_TYPE", "")))
	c.Cloud.Endpoint = cast.ToString(getOrReturnDefault("CLOUD_ENDPOINT", ""))
	c.Cloud.AccessKey = cast.ToString(getOrReturnDefault("CLOUD_ACCESS_KEY", ""))
	c.Cloud.SecretKey = cast.ToString(getOrReturnDefault("CLOUD_SECRET_KEY", ""))
	c.Cloud.Region = cast.ToString(getOrReturnDefault("CLOUD_REGION", "us-east-1"))
	c.Cloud.Bucket = cast.ToString(getOrReturnDefault("CLOUD_BUCKET", ""))
	c.Cloud.Secure = cast.ToBool(getOrReturnDefault("CLOUD_SECURE", true))

	c.Stages.Probe = "probe"
	c.Stages.Transcode = "transcode"
	c.Stages.Send = "send"

	c.Status.Pending = "pending"
	c.Status.Running = "running"
	c.Status.Success = "success"
	c.Status.Fail = "fail"

	return c
}

// Address is the listen address of the HTTP server
func (c *Config) Address() string {
	return c.HTTPHost + ":" + c.HTTPPort
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	_, exists := os.LookupEnv(key)
	if exists {
		return os.Getenv(key)
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
