// Package config provides application configuration management.
//
// The config package loads configuration using viper from a config.yaml
// file with sensible defaults, and validates the result before the rest
// of the application starts.
package config
