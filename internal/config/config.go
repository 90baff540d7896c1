package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Repo    RepoConfig
	MongoDB MongoDBConfig
	Retry   RetryConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RepoConfig struct {
	Name        string
	BaseURL     string
	AdminEmails []string
	SiteBaseURL string
	// ResumptionTokenBatchSize bounds the page size of the list verbs.
	ResumptionTokenBatchSize int
}

type MongoDBConfig struct {
	DSN        string
	DBName     string
	ReplicaSet string
}

type RetryConfig struct {
	MaxRetries    int
	BackoffFactor float64
}

// Load builds the settings once at startup. Environment variables override
// the defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvMulti([]string{"OAIPMH_PORT", "PORT"}, "8080"),
			ReadTimeout:  getDurationEnv("OAIPMH_SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("OAIPMH_SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Repo: RepoConfig{
			Name:                     getEnv("OAIPMH_REPO_NAME", "SciELO - Scientific Electronic Library Online"),
			BaseURL:                  getEnv("OAIPMH_REPO_BASEURL", "https://www.scielo.br/oai/"),
			AdminEmails:              getSliceEnv("OAIPMH_REPO_ADMIN_EMAILS", []string{"scielo-dev@googlegroups.com"}),
			SiteBaseURL:              getEnv("OAIPMH_SITE_BASEURL", "https://www.scielo.br"),
			ResumptionTokenBatchSize: getIntEnv("OAIPMH_RESUMPTIONTOKEN_BATCHSIZE", 100),
		},
		MongoDB: MongoDBConfig{
			DSN:        getEnv("OAIPMH_MONGODB_DSN", "mongodb://localhost:27017"),
			DBName:     getEnv("OAIPMH_MONGODB_DBNAME", "oaipmh"),
			ReplicaSet: getEnv("OAIPMH_MONGODB_REPLICASET", ""),
		},
		Retry: RetryConfig{
			MaxRetries:    getIntEnv("OAIPMH_MAX_RETRIES", 4),
			BackoffFactor: getFloatEnv("OAIPMH_BACKOFF_FACTOR", 1.2),
		},
	}
}

func getEnvMulti(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
