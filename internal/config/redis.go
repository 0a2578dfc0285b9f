package config

import (
	"time"
)

type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// EventsChannel is the pub/sub channel shared by every instance's hub.
	EventsChannel string `yaml:"events_channel"`
}

func loadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:       getEnvAsBool("REDIS_ENABLED", true),
		Host:          getEnv("REDIS_HOST", "localhost"),
		Port:          getEnvAsInt("REDIS_PORT", 6379),
		Password:      getEnv("REDIS_PASSWORD", ""),
		DB:            getEnvAsInt("REDIS_DB", 0),
		PoolSize:      getEnvAsInt("REDIS_POOL_SIZE", 10),
		MinIdleConns:  getEnvAsInt("REDIS_MIN_IDLE_CONNS", 3),
		DialTimeout:   getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:   getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:  getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		EventsChannel: getEnv("REDIS_EVENTS_CHANNEL", "lifeline:events"),
	}
}
