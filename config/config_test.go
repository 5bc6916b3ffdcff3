package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConnectionConfig(t *testing.T) {
	valid := NewConnectionConfig()
	valid.Username = "gizmosql_username"
	valid.Password = "gizmosql_password"

	err := valid.Validate()
	assert.NoError(t, err)

	missingCreds := NewConnectionConfig()
	err = missingCreds.Validate()
	assert.Error(t, err)

	badPort := valid
	badPort.Port = -1
	err = badPort.Validate()
	assert.Error(t, err)

	badConcurrency := valid
	badConcurrency.ConcurrentTasks = 0
	err = badConcurrency.Validate()
	assert.Error(t, err)

	skipVerifyWithoutTLS := valid
	skipVerifyWithoutTLS.UseEncryption = false
	skipVerifyWithoutTLS.DisableCertificateVerification = true
	err = skipVerifyWithoutTLS.Validate()
	assert.Error(t, err)
}

func TestURI(t *testing.T) {
	cfg := NewConnectionConfig()
	cfg.Host = "gizmosql.example.com"
	assert.Equal(t, "grpc+tls://gizmosql.example.com:31337", cfg.URI())

	cfg.UseEncryption = false
	cfg.Port = 31338
	assert.Equal(t, "grpc://gizmosql.example.com:31338", cfg.URI())
}

func TestDefaults(t *testing.T) {
	cfg := NewConnectionConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.UseEncryption)
	assert.False(t, cfg.DisableCertificateVerification)
	assert.Equal(t, 4, cfg.ConcurrentTasks)
	assert.True(t, cfg.RegisterComments)
	assert.False(t, cfg.PrePing)
	assert.Empty(t, cfg.Catalog())
}

func TestLoadGateways(t *testing.T) {
	yaml := `
gateways:
  my_gizmosql:
    username: user
    password: pass
    database: analytics
  remote:
    host: gizmosql.example.com
    port: 443
    username: remote_user
    password: remote_pass
    disable_certificate_verification: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadGateways(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	local := cfg.Gateways["my_gizmosql"]
	assert.Equal(t, "localhost", local.Host)
	assert.Equal(t, DefaultPort, local.Port)
	assert.Equal(t, "analytics", local.Catalog())
	assert.Equal(t, 4, local.ConcurrentTasks)

	remote := cfg.Gateways["remote"]
	assert.Equal(t, "gizmosql.example.com", remote.Host)
	assert.Equal(t, 443, remote.Port)
	assert.True(t, remote.UseEncryption)
	assert.True(t, remote.DisableCertificateVerification)
}

func TestLoadGatewaysMissingFile(t *testing.T) {
	_, err := LoadGateways(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
