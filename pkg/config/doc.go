// Package config loads typed configuration from environment variables
// using github.com/caarlos0/env/v11 struct tags, with optional .env files
// read through github.com/joho/godotenv.
//
// Structs that implement Validator are checked after parsing.
package config
