package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.HTTPPort != 8080 || cfg.StorageDriver != StorageMemory || cfg.Pricing.Mode != OracleHeuristic {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
		if cfg.Pricing.Timeout != 5*time.Second || cfg.Pricing.CacheTTL != 10*time.Minute {
			t.Fatalf("unexpected durations: %+v", cfg.Pricing)
		}
		if cfg.DynamoDB.ServiceRequestsTable != "service_requests" || cfg.DynamoDB.QuotesTable != "quotes" {
			t.Fatalf("unexpected tables: %+v", cfg.DynamoDB)
		}
		if len(cfg.Kafka.Brokers) != 0 || cfg.Kafka.Client != KafkaClientSarama {
			t.Fatalf("unexpected kafka config: %+v", cfg.Kafka)
		}
		if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
			t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("HTTP_PORT", "9090")
		t.Setenv("STORAGE_DRIVER", "Postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/homequote")
		t.Setenv("PRICING_ORACLE_MODE", "http")
		t.Setenv("PRICING_ORACLE_URL", "http://oracle:8000")
		t.Setenv("PRICING_ORACLE_TIMEOUT", "2s")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
		t.Setenv("KAFKA_CLIENT", "kafka-go")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.StorageDriver != StoragePostgres || cfg.Pricing.Timeout != 2*time.Second {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" || cfg.Kafka.Client != KafkaClientKafkaGo {
			t.Fatalf("unexpected kafka config: %+v", cfg.Kafka)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		cases := map[string]map[string]string{
			"missing secret":     {},
			"unknown driver":     {"JWT_SECRET": "x", "STORAGE_DRIVER": "mongo"},
			"postgres no dsn":    {"JWT_SECRET": "x", "STORAGE_DRIVER": "postgres"},
			"http oracle no url": {"JWT_SECRET": "x", "PRICING_ORACLE_MODE": "http"},
			"unknown kafka":      {"JWT_SECRET": "x", "KAFKA_CLIENT": "confluent"},
			"bad port":           {"JWT_SECRET": "x", "HTTP_PORT": "70000"},
		}
		for name, env := range cases {
			t.Run(name, func(t *testing.T) {
				t.Setenv("JWT_SECRET", "")
				for k, v := range env {
					t.Setenv(k, v)
				}
				if _, err := Load(); err == nil {
					t.Fatalf("expected error")
				}
			})
		}
	})
}
