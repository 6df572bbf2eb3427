package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_secret")
}

func TestParseDefaults(t *testing.T) {
	setSecrets(t)

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "GHS", cfg.Paystack.Currency)
	require.Equal(t, 10*time.Second, cfg.Paystack.Timeout)
	require.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseApiURL)
	require.Equal(t, "memory", cfg.RateLimit.Store)
	require.Empty(t, cfg.Kafka.Brokers)
}

func TestParseOverrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PAYSTACK_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("HTTP_PORT", "9000")

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, 3*time.Second, cfg.Paystack.Timeout)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "9000", cfg.HTTP.Port)
}

func TestParseRequiresSecrets(t *testing.T) {
	cases := map[string]string{
		"JWT_SECRET":          "PAYSTACK_SECRET_KEY",
		"PAYSTACK_SECRET_KEY": "JWT_SECRET",
	}
	for missing, set := range cases {
		t.Run(missing, func(t *testing.T) {
			t.Setenv(set, "secret")
			t.Setenv(missing, "")

			err := env.Parse(&Config{})
			require.Error(t, err)
			require.Contains(t, err.Error(), missing)
		})
	}
}
