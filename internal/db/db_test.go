package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresPoolConfig(t *testing.T) {
	cfg := PostgresConfig{MaxConns: 4, MinConns: 1, MaxConnIdleTime: time.Minute, MaxConnLifetime: time.Hour}

	pc, err := cfg.PoolConfig("postgres://sf:pw@db.local:5433/slots?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "db.local", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "slots", pc.ConnConfig.Database)
	assert.Equal(t, int32(4), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
}

func TestPostgresPoolConfigKeepsDefaults(t *testing.T) {
	pc, err := PostgresConfig{}.PoolConfig("postgres://localhost/slots")
	require.NoError(t, err)
	assert.Positive(t, pc.MaxConns)

	_, err = PostgresConfig{}.PoolConfig("postgres://%zz")
	assert.Error(t, err)
}
