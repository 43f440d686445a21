package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings.
type Config struct {
	Port              int
	DBPath            string
	JWTSecret         string
	TokenTTL          time.Duration
	LogLevel          string
	LogFormat         string // text|json
	SchedulerInterval time.Duration
}

func Load() Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("database.path", "liquidgold.db")
	viper.SetDefault("auth.secret", "dev-secret-change-me")
	viper.SetDefault("auth.ttl_hours", 24)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("scheduler.interval_minutes", 60)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file found, using defaults")
	}
	return Config{
		Port:              viper.GetInt("server.port"),
		DBPath:            viper.GetString("database.path"),
		JWTSecret:         viper.GetString("auth.secret"),
		TokenTTL:          time.Duration(viper.GetInt("auth.ttl_hours")) * time.Hour,
		LogLevel:          viper.GetString("log.level"),
		LogFormat:         viper.GetString("log.format"),
		SchedulerInterval: time.Duration(viper.GetInt("scheduler.interval_minutes")) * time.Minute,
	}
}
