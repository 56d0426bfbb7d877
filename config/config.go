package config

import (
	"sparklean/internal/logger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	UploadDir            string `mapstructure:"UPLOAD_DIR"`
	AdminUsername        string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword        string `mapstructure:"ADMIN_PASSWORD"`
	AdminDisplayName     string `mapstructure:"ADMIN_DISPLAY_NAME"`
	AdminSessionSecret   string `mapstructure:"ADMIN_SESSION_SECRET"`
	AdminSessionHours    int    `mapstructure:"ADMIN_SESSION_HOURS"`
	StripeSecretKey      string `mapstructure:"STRIPE_SECRET_KEY"`
	SchedulerEnabled     bool   `mapstructure:"SCHEDULER_ENABLED"`
}

var ConfigInstance Config

func InitConfig() (Config, error) {
	log := logger.New("config").Function("InitConfig")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
		"CORS_ALLOW_ORIGINS", "UPLOAD_DIR",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_DISPLAY_NAME",
		"ADMIN_SESSION_SECRET", "ADMIN_SESSION_HOURS",
		"STRIPE_SECRET_KEY", "SCHEDULER_ENABLED",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("ADMIN_SESSION_HOURS", 12)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.AdminUsername == "" || config.AdminPassword == "" {
		return log.ErrMsg("Fatal error: ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}

	if config.AdminSessionSecret == "" {
		return log.ErrMsg("Fatal error: ADMIN_SESSION_SECRET is required")
	}

	if config.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set, payment-enabled registration is disabled")
	}

	ConfigInstance = config
	return nil
}
