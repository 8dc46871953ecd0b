package utils

import (
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("PG_DSN", "")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "maps")
	t.Setenv("PG_PASSWORD", "pw")
	t.Setenv("PG_DB", "")
	assert.True(t, PostgresEnabled())
	assert.Equal(t, "postgres://maps:pw@db:5432/choromap?sslmode=disable", BuildPostgresDSNFromEnv())

	t.Setenv("PG_DSN", "postgres://x@y/z")
	assert.Equal(t, "postgres://x@y/z", BuildPostgresDSNFromEnv())
}

func TestOpenRedisDisabled(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "false")
	assert.Nil(t, OpenRedisFromEnv())
	t.Setenv("REDIS_ENABLED", "")
	t.Setenv("REDIS_DB", "3")
	rc := OpenRedisFromEnv()
	require.NotNil(t, rc)
	assert.Equal(t, 3, rc.Options().DB)
	_ = rc.Close()
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert, key := filepath.Join(dir, "certs", "server.crt"), filepath.Join(dir, "certs", "server.key")
	require.NoError(t, EnsureSelfSignedCert(cert, key, "choromap.local"))
	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	require.NoError(t, EnsureSelfSignedCert(cert, key, "ignored"), "existing pair is kept")
}
