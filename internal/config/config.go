package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port     string `mapstructure:"port"`
		Env      string `mapstructure:"env"`
		TempDir  string `mapstructure:"temp_dir"`
		MediaDir string `mapstructure:"media_dir"`
	} `mapstructure:"app"`
	Log struct {
		File string `mapstructure:"file"`
	} `mapstructure:"log"`
	DB struct {
		DSN            string `mapstructure:"dsn"`
		MigrationsPath string `mapstructure:"migrations_path"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	LLM struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"llm"`
	VideoAPI struct {
		BaseURL  string `mapstructure:"base_url"`
		Project  string `mapstructure:"project"`
		Location string `mapstructure:"location"`
		Model    string `mapstructure:"model"`
	} `mapstructure:"video_api"`
	Storage struct {
		Provider  string `mapstructure:"provider"`
		Scheme    string `mapstructure:"scheme"`
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		UseSSL    bool   `mapstructure:"use_ssl"`
		Bucket    string `mapstructure:"bucket"`
	} `mapstructure:"storage"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Pipeline struct {
		PollInterval    time.Duration `mapstructure:"poll_interval"`
		PollMaxAttempts int           `mapstructure:"poll_max_attempts"`
		WaitInterval    time.Duration `mapstructure:"wait_interval"`
		WaitTimeout     time.Duration `mapstructure:"wait_timeout"`
		LockTTL         time.Duration `mapstructure:"lock_ttl"`
		LockWaitTimeout time.Duration `mapstructure:"lock_wait_timeout"`
		ConcatStrategy  string        `mapstructure:"concat_strategy"`
		FFmpegPath      string        `mapstructure:"ffmpeg_path"`
		JobStatusTTL    time.Duration `mapstructure:"job_status_ttl"`
	} `mapstructure:"pipeline"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
	Metrics struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

func setDefaults() {
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.temp_dir", "/tmp/reel-forge")
	viper.SetDefault("app.media_dir", "./data/media")
	viper.SetDefault("db.migrations_path", "migrations")
	viper.SetDefault("kafka.group_id", "extended-video-workers")
	viper.SetDefault("auth.token_lifespan", 24*time.Hour)
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("video_api.location", "us-central1")
	viper.SetDefault("video_api.model", "veo-3.0-generate-001")
	viper.SetDefault("storage.provider", "minio")
	viper.SetDefault("storage.scheme", "gs")
	viper.SetDefault("storage.endpoint", "storage.googleapis.com")
	viper.SetDefault("storage.use_ssl", true)
	viper.SetDefault("pipeline.poll_interval", 10*time.Second)
	viper.SetDefault("pipeline.poll_max_attempts", 60)
	viper.SetDefault("pipeline.wait_interval", 5*time.Second)
	viper.SetDefault("pipeline.wait_timeout", 300*time.Second)
	viper.SetDefault("pipeline.lock_ttl", 2*time.Minute)
	viper.SetDefault("pipeline.lock_wait_timeout", 30*time.Minute)
	viper.SetDefault("pipeline.concat_strategy", "auto")
	viper.SetDefault("pipeline.ffmpeg_path", "ffmpeg")
	viper.SetDefault("pipeline.job_status_ttl", 24*time.Hour)
	viper.SetDefault("metrics.port", 9091)
}

func LoadConfig(paths ...string) (cfg Config, err error) {

	err = godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	setDefaults()

	viper.AddConfigPath(".")
	for _, p := range paths {
		viper.AddConfigPath(p)
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if err = viper.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("app.port", "APP_PORT")
	viper.BindEnv("app.env", "APP_ENV")
	viper.BindEnv("app.temp_dir", "APP_TEMP_DIR")
	viper.BindEnv("app.media_dir", "APP_MEDIA_DIR")
	viper.BindEnv("log.file", "LOG_FILE")
	viper.BindEnv("db.dsn", "DB_DSN")
	viper.BindEnv("db.migrations_path", "DB_MIGRATIONS_PATH")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	viper.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")

	viper.BindEnv("llm.base_url", "LLM_BASE_URL")
	viper.BindEnv("llm.api_key", "LLM_API_KEY")
	viper.BindEnv("llm.model", "LLM_MODEL")

	viper.BindEnv("video_api.base_url", "VIDEO_API_BASE_URL")
	viper.BindEnv("video_api.project", "VIDEO_API_PROJECT")
	viper.BindEnv("video_api.location", "VIDEO_API_LOCATION")
	viper.BindEnv("video_api.model", "VIDEO_API_MODEL")

	viper.BindEnv("storage.provider", "STORAGE_PROVIDER")
	viper.BindEnv("storage.scheme", "STORAGE_SCHEME")
	viper.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	viper.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	viper.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	viper.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	viper.BindEnv("storage.bucket", "STORAGE_BUCKET")

	viper.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	viper.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	viper.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	viper.BindEnv("pipeline.concat_strategy", "PIPELINE_CONCAT_STRATEGY")
	viper.BindEnv("pipeline.ffmpeg_path", "FFMPEG_PATH")
	viper.BindEnv("jaeger.otlp_endpoint", "OTLP_ENDPOINT")
	viper.BindEnv("metrics.port", "METRICS_PORT")

	err = viper.Unmarshal(&cfg)
	return
}
