package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App          App          `mapstructure:",squash"`
	Server       Server       `mapstructure:",squash"`
	Database     Database     `mapstructure:",squash"`
	Redis        Redis        `mapstructure:",squash"`
	Import       Import       `mapstructure:",squash"`
	StatsRefresh StatsRefresh `mapstructure:",squash"`
	VIPPolicy    VIPPolicy    `mapstructure:",squash"`
	CORS         CORS         `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

// Redis is optional. An empty address disables every cache.
type Redis struct {
	Addr     string        `mapstructure:"redis_addr"`
	Password string        `mapstructure:"redis_password"`
	DB       int           `mapstructure:"redis_db"`
	TTL      time.Duration `mapstructure:"redis_ttl"`
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

type Import struct {
	MaxRows      int    `mapstructure:"import_max_rows"`
	DefaultActor string `mapstructure:"import_default_actor"`
}

type StatsRefresh struct {
	CronSchedule      string `mapstructure:"stats_refresh_cron"`
	MaxConcurrentJobs int    `mapstructure:"stats_refresh_max_concurrent_jobs"`
	Enabled           bool   `mapstructure:"stats_refresh_enabled"`
}

// VIPPolicy holds the spend thresholds used for tier assignment. Tiers are
// left untouched unless the policy is enabled.
type VIPPolicy struct {
	Enabled          bool   `mapstructure:"vip_policy_enabled"`
	VIPThreshold     string `mapstructure:"vip_policy_vip_threshold"`
	PremiumThreshold string `mapstructure:"vip_policy_premium_threshold"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/vault?sslmode=disable")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_TTL", "10m")

	viper.SetDefault("IMPORT_MAX_ROWS", 5000)
	viper.SetDefault("IMPORT_DEFAULT_ACTOR", "bulk-import")

	viper.SetDefault("STATS_REFRESH_CRON", "0 2 * * *") // every day at 2am
	viper.SetDefault("STATS_REFRESH_MAX_CONCURRENT_JOBS", 3)
	viper.SetDefault("STATS_REFRESH_ENABLED", false)

	viper.SetDefault("VIP_POLICY_ENABLED", false)
	viper.SetDefault("VIP_POLICY_VIP_THRESHOLD", "")
	viper.SetDefault("VIP_POLICY_PREMIUM_THRESHOLD", "")

	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Using variables loaded by godotenv (viper could not read .env): ", err)
	} else {
		logrus.Info(".env file read by viper")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	if config.Import.MaxRows <= 0 {
		return nil, fmt.Errorf("IMPORT_MAX_ROWS must be positive, got %d", config.Import.MaxRows)
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Could not resolve working directory: ", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info(".env loaded from: ", location)
			return
		}
	}

	logrus.Debug("No .env file found, relying on process environment")
}
