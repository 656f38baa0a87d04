package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name:        "sqlite development",
			cfg:         Config{Port: "3001", Env: "development", DBDriver: DriverSQLite, DBPath: "likes.db"},
			expectError: false,
		},
		{
			name:        "missing port",
			cfg:         Config{DBDriver: DriverSQLite, DBPath: "likes.db"},
			expectError: true,
		},
		{
			name:        "sqlite without path",
			cfg:         Config{Port: "3001", DBDriver: DriverSQLite},
			expectError: true,
		},
		{
			name:        "unknown driver",
			cfg:         Config{Port: "3001", DBDriver: "mysql"},
			expectError: true,
		},
		{
			name:        "postgres without host",
			cfg:         Config{Port: "3001", DBDriver: DriverPostgres, DBName: "antisocial"},
			expectError: true,
		},
		{
			name: "production postgres with default password",
			cfg: Config{Port: "3001", Env: "production", DBDriver: DriverPostgres,
				DBHost: "db", DBName: "antisocial", DBPassword: "password", DBSSLMode: "require"},
			expectError: true,
		},
		{
			name: "production postgres with disabled ssl",
			cfg: Config{Port: "3001", Env: "prod", DBDriver: DriverPostgres,
				DBHost: "db", DBName: "antisocial", DBPassword: "s3cure-enough", DBSSLMode: "disable"},
			expectError: true,
		},
		{
			name: "production postgres with tls",
			cfg: Config{Port: "3001", Env: "production", DBDriver: DriverPostgres,
				DBHost: "db", DBName: "antisocial", DBPassword: "s3cure-enough", DBSSLMode: "verify-full"},
			expectError: false,
		},
		{
			name:        "sample ratio out of range",
			cfg:         Config{Port: "3001", DBDriver: DriverSQLite, DBPath: "likes.db", TracingSampleRatio: 1.5},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_PATH", "file:config_test?mode=memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("LIKE_COUNT_CACHE_TTL", "45")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", c.Env)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, "file:config_test?mode=memory", c.DBPath)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.KafkaBrokerList())
	assert.Equal(t, 45*time.Second, c.LikeCountCacheTTL())
	assert.Equal(t, "likes.toggled", c.KafkaLikesTopic)
}

func TestConfig_LikeCountCacheTTLFallback(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 30*time.Second, c.LikeCountCacheTTL())
	assert.Empty(t, c.KafkaBrokerList())
}
