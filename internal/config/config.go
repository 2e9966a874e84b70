package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv            string
	AppName           string
	AppPort           string
	LogLevel          string
	AppAPIBaseURL     string
	SaleorAPIURL      string
	ChannelConfigPath string
	CheckoutLocale    string
	TermsURL          string
	CheckoutURL       string
	ConfirmationURL   string
	PushURL           string
	ProviderTimeout   time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	ConfigCacheTTL    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:            os.Getenv("APP_ENV"),
		AppName:           os.Getenv("APP_NAME"),
		AppPort:           os.Getenv("APP_PORT"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		AppAPIBaseURL:     os.Getenv("APP_API_BASE_URL"),
		SaleorAPIURL:      os.Getenv("SALEOR_API_URL"),
		ChannelConfigPath: os.Getenv("CHANNEL_CONFIG_PATH"),
		CheckoutLocale:    os.Getenv("CHECKOUT_LOCALE"),
		TermsURL:          os.Getenv("MERCHANT_TERMS_URL"),
		CheckoutURL:       os.Getenv("MERCHANT_CHECKOUT_URL"),
		ConfirmationURL:   os.Getenv("MERCHANT_CONFIRMATION_URL"),
		PushURL:           os.Getenv("MERCHANT_PUSH_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.AppName == "" {
		cfg.AppName = "klarna-checkout-bridge"
	}
	if cfg.AppPort == "" {
		cfg.AppPort = "8000"
	}
	if cfg.CheckoutLocale == "" {
		cfg.CheckoutLocale = "sv-SE"
	}
	if cfg.TermsURL == "" {
		cfg.TermsURL = "https://www.dalecarliacrew.se/terms"
	}
	if cfg.CheckoutURL == "" {
		cfg.CheckoutURL = "http://localhost:3001/checkout"
	}
	if cfg.ConfirmationURL == "" {
		cfg.ConfirmationURL = "http://localhost:3001/confirmation"
	}
	if cfg.PushURL == "" {
		cfg.PushURL = "http://localhost:3001/push"
	}
	var err error
	cfg.ProviderTimeout = 15 * time.Second
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		cfg.ProviderTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
		}
	}
	cfg.ConfigCacheTTL = 10 * time.Minute
	if v := os.Getenv("CONFIG_CACHE_TTL"); v != "" {
		cfg.ConfigCacheTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CONFIG_CACHE_TTL: %w", err)
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		cfg.RedisDB, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
	}
	if cfg.AppAPIBaseURL == "" || cfg.SaleorAPIURL == "" || cfg.ChannelConfigPath == "" {
		return nil, fmt.Errorf("missing required environment variables")
	}
	return cfg, nil
}
