// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "time"

// Config holds all application configuration, loaded via LoadWithKoanf
// from built-in defaults, an optional YAML file, and environment
// variables, in that precedence order (§6: `{server, redis,
// database}` plus the worker-pool and logging sections this repo
// adds).
//
// Config is immutable after loading and safe for concurrent read
// access from multiple goroutines.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Redis    RedisConfig    `koanf:"redis"`
	Database DatabaseConfig `koanf:"database"`
	Queue    QueueConfig    `koanf:"queue"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// RedisConfig configures the sorted-set timeline cache connection.
type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// DatabaseConfig configures the durable event store. Path is the
// on-disk DuckDB file (§6 persisted layout); an empty path opens an
// in-memory database, useful for tests.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// QueueConfig configures the task queue and its worker pool (§4.5: "a
// fixed worker count is configured at registration").
type QueueConfig struct {
	Capacity int `koanf:"capacity"`
	Workers  int `koanf:"workers"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
