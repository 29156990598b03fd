// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package config provides centralized configuration loading for FeedStream.

It handles layered loading, validation, and typed access to the
server, redis, database, queue, and logging settings every component
needs at boot.

# Configuration Sources

Loaded in precedence order (later overrides earlier):

  - Built-in defaults (defaultConfig)
  - An optional YAML file found via DefaultConfigPaths or CONFIG_PATH
  - Environment variables prefixed FEEDSTREAM_ (e.g. FEEDSTREAM_SERVER_PORT)

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
*/
package config
