// Package config loads service configuration from a YAML file, a .env file
// and the process environment.
//
// It uses Viper for file loading and godotenv for .env files. Every
// environment variable is bound under several key spellings so that
// BOT_TOKEN reaches a `bot_token` field and TELEGRAM_API_URL reaches
// `telegram.api_url`.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("voicescribe", &cfg)
package config
