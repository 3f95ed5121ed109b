package config

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
	StoragePostgres = "postgres"

	OracleHeuristic = "heuristic"
	OracleHTTP      = "http"

	KafkaClientSarama  = "sarama"
	KafkaClientKafkaGo = "kafka-go"
)

type Config struct {
	HTTPPort      int
	StorageDriver string
	DynamoDB      DynamoDBConfig
	Postgres      PostgresConfig
	Pricing       PricingConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSecret     string
	CORSOrigins   []string
}

type DynamoDBConfig struct {
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
	ServiceRequestsTable string
	QuotesTable          string
}

type PostgresConfig struct {
	URL string
}

type PricingConfig struct {
	Mode     string
	URL      string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Client  string
}

// Load reads the configuration from the environment. A .env file, when
// present, is loaded by the godotenv autoload import in main.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "local")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "local")
	v.SetDefault("SERVICE_REQUESTS_TABLE", "service_requests")
	v.SetDefault("QUOTES_TABLE", "quotes")
	v.SetDefault("PRICING_ORACLE_MODE", OracleHeuristic)
	v.SetDefault("PRICING_ORACLE_TIMEOUT", "5s")
	v.SetDefault("PRICING_CACHE_TTL", "10m")
	v.SetDefault("KAFKA_TOPIC", "homequote.lifecycle")
	v.SetDefault("KAFKA_CLIENT", KafkaClientSarama)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	cfg := &Config{
		HTTPPort:      v.GetInt("HTTP_PORT"),
		StorageDriver: strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		DynamoDB: DynamoDBConfig{
			Region:               v.GetString("AWS_REGION"),
			Endpoint:             v.GetString("DYNAMODB_ENDPOINT"),
			AccessKeyID:          v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey:      v.GetString("AWS_SECRET_ACCESS_KEY"),
			ServiceRequestsTable: v.GetString("SERVICE_REQUESTS_TABLE"),
			QuotesTable:          v.GetString("QUOTES_TABLE"),
		},
		Postgres: PostgresConfig{URL: v.GetString("DATABASE_URL")},
		Pricing: PricingConfig{
			Mode:     strings.ToLower(strings.TrimSpace(v.GetString("PRICING_ORACLE_MODE"))),
			URL:      v.GetString("PRICING_ORACLE_URL"),
			Timeout:  v.GetDuration("PRICING_ORACLE_TIMEOUT"),
			CacheTTL: v.GetDuration("PRICING_CACHE_TTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
			Client:  strings.ToLower(strings.TrimSpace(v.GetString("KAFKA_CLIENT"))),
		},
		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Infof("[config] parsed storage=%s oracle=%s kafka_client=%s", cfg.StorageDriver, cfg.Pricing.Mode, cfg.Kafka.Client)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid HTTP_PORT %d", c.HTTPPort)
	}
	switch c.StorageDriver {
	case StorageMemory, StorageDynamoDB:
	case StoragePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.Pricing.Mode {
	case OracleHeuristic:
	case OracleHTTP:
		if c.Pricing.URL == "" {
			return fmt.Errorf("config: PRICING_ORACLE_URL is required for the http oracle")
		}
	default:
		return fmt.Errorf("config: unknown PRICING_ORACLE_MODE %q", c.Pricing.Mode)
	}
	if c.Pricing.Timeout <= 0 {
		return fmt.Errorf("config: PRICING_ORACLE_TIMEOUT must be positive")
	}
	switch c.Kafka.Client {
	case KafkaClientSarama, KafkaClientKafkaGo:
	default:
		return fmt.Errorf("config: unknown KAFKA_CLIENT %q", c.Kafka.Client)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
