package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "kafka:9092", want: []string{"kafka:9092"}},
		{name: "spaces and blanks", in: " a:1 , ,b:2,", want: []string{"a:1", "b:2"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BAD_INT", "forty")
	t.Setenv("CFG_TEST_DUR", "90s")
	t.Setenv("CFG_TEST_BAD_DUR", "-5s")
	t.Setenv("CFG_TEST_BLANK", "   ")
	t.Setenv("CFG_TEST_PADDED_INT", " 7 ")

	assert.Equal(t, "value", EnvDefault("CFG_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_TEST_MISSING", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_TEST_BLANK", "def"))
	assert.Equal(t, 7, EnvIntDefault("CFG_TEST_PADDED_INT", 1))

	assert.Equal(t, 42, EnvIntDefault("CFG_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CFG_TEST_BAD_INT", 1))

	assert.Equal(t, 90*time.Second, EnvDurationDefault("CFG_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("CFG_TEST_BAD_DUR", time.Second))
	assert.Equal(t, time.Minute, EnvDurationDefault("CFG_TEST_MISSING", time.Minute))
}

func TestLoad_ReadsSharedKeys(t *testing.T) {
	t.Setenv("SERVICE_NAME", "order")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()

	assert.Equal(t, "order", cfg.ServiceName)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "postgres://localhost/shop", cfg.DatabaseURL)
	assert.Equal(t, []byte("secret"), cfg.JWTAccessSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestCheck(t *testing.T) {
	t.Parallel()

	assert.NoError(t, new(Check).NonEmpty("A", "x").NonEmptyBytes("B", []byte("y")).Positive("C", 1).Err())

	var c Check
	err := c.NonEmpty("A", "").NonEmptyBytes("B", nil).Positive("C", 0).Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	for _, name := range []string{"A", "B", "C"} {
		assert.Contains(t, err.Error(), "env "+name)
	}
}

func TestConfig_CheckRequiresSharedKeys(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SERVER_PORT", "")

	err := Load().Check().Err()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.NotContains(t, err.Error(), "SERVER_PORT")
}
