package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	WooCommerceURL    string `mapstructure:"WC_URL"`
	WooCommerceKey    string `mapstructure:"WC_KEY"`
	WooCommerceSecret string `mapstructure:"WC_SECRET"`

	TranslateURL string `mapstructure:"TRANSLATE_URL"`
	SourceLang   string `mapstructure:"SOURCE_LANG"`
	TargetLang   string `mapstructure:"TARGET_LANG"`

	OCRServiceURL string `mapstructure:"OCR_URL"`
	OCRLang       string `mapstructure:"OCR_LANG"`

	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	TranslateCacheTTL int    `mapstructure:"TRANSLATE_CACHE_TTL"`

	FetchTimeout    int `mapstructure:"FETCH_TIMEOUT"`
	UpstreamTimeout int `mapstructure:"UPSTREAM_TIMEOUT"`
	ImageCap        int `mapstructure:"IMAGE_CAP"`
	OCRImageCap     int `mapstructure:"OCR_IMAGE_CAP"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	// Set default values
	viper.SetDefault("SERVER_PORT", "10000")
	viper.SetDefault("SOURCE_LANG", "zh")
	viper.SetDefault("TARGET_LANG", "en")
	viper.SetDefault("OCR_LANG", "chi_sim")
	viper.SetDefault("TRANSLATE_CACHE_TTL", 86400) // in seconds
	viper.SetDefault("FETCH_TIMEOUT", 20)          // in seconds
	viper.SetDefault("UPSTREAM_TIMEOUT", 20)       // in seconds
	viper.SetDefault("IMAGE_CAP", 30)
	viper.SetDefault("OCR_IMAGE_CAP", 5)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
