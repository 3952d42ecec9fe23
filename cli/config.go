package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "/secrets/config.yaml"

func firstExistingPath(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadConfig fills serviceConfig from config.yaml, then lets the
// environment override individual keys. Running with no config file at
// all is fine for local development, but a path set explicitly through
// ACCOUNTD_CONFIG must exist.
func loadConfig() error {
	if explicit := os.Getenv("ACCOUNTD_CONFIG"); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return fmt.Errorf("ACCOUNTD_CONFIG %s: %w", explicit, err)
		}
	}
	path := firstExistingPath(os.Getenv("ACCOUNTD_CONFIG"), defaultConfigPath, "./config.yaml", "../config.yaml")
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &serviceConfig); err != nil {
			return fmt.Errorf("parse config yaml: %w", err)
		}
		logrusLogger.Printf("loaded config from %s", path)
	}

	overrideString("ACCOUNTD_DATABASE_PATH", &serviceConfig.DatabasePath)
	overrideString("ACCOUNTD_REDIS", &serviceConfig.RedisPort)
	overrideString("ACCOUNTD_JWT_KEY", &serviceConfig.JWTKey)
	overrideString("ACCOUNTD_DATA_ENCRYPTION_KEY", &serviceConfig.DataEncryptionKey)
	overrideString("GOOGLE_CLIENT_ID", &serviceConfig.GoogleClientID)
	overrideString("GOOGLE_CLIENT_SECRET", &serviceConfig.GoogleClientSecret)
	overrideString("GOOGLE_REDIRECT_URL", &serviceConfig.GoogleRedirectURL)
	overrideString("ACCOUNTD_SMS_GATEWAY", &serviceConfig.SMSGateway)
	overrideString("ACCOUNTD_SMS_API_KEY", &serviceConfig.SMSAPIKey)

	if v := os.Getenv("ACCOUNTD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCOUNTD_PORT: %w", err)
		}
		serviceConfig.Port = port
	}
	if v := os.Getenv("ACCOUNTD_DEBUG"); v != "" {
		serviceConfig.IsDebug = v == "1" || v == "true"
	}
	return nil
}

func overrideString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
