// Package config loads streamkit configuration.
//
// It uses Viper to read streamkit.yml or config.yml from the working
// directory, ./config or the user config directory, and godotenv to load
// .env.streamkit or .env. Environment variables override file values and
// map onto dotted keys, with or without the STREAMKIT_ prefix
// (CODEC_FLUSH=raw and STREAMKIT_CODEC_FLUSH=raw both set codec.flush).
//
// # Usage
//
//	cfg, err := config.Load("streamkit", config.WithConfigFile(path))
package config
