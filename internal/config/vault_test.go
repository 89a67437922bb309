package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"atscore/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader map[string]*api.Secret

func (f fakeReader) Read(path string) (*api.Secret, error) {
	if path == "boom" {
		return nil, fmt.Errorf("connection refused")
	}
	return f[path], nil
}

func kv2(data map[string]any, version any) *api.Secret {
	return &api.Secret{Data: map[string]any{
		"data":     data,
		"metadata": map[string]any{"version": version},
	}}
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"})
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestGetSecretV2(t *testing.T) {
	client := &VaultClient{reader: fakeReader{
		"secret/data/ok":      kv2(map[string]any{"api_key": "abc"}, "3"),
		"secret/data/flat":    {Data: map[string]any{"api_key": "abc"}},
		"secret/data/no-meta": {Data: map[string]any{"data": map[string]any{}}},
	}}

	secret, err := client.GetSecretV2("secret/data/ok")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)
	assert.Equal(t, "abc", secret.Data["api_key"])

	_, err = client.GetSecretV2("secret/data/missing")
	assert.ErrorContains(t, err, "secret not found")

	_, err = client.GetSecretV2("secret/data/flat")
	assert.ErrorContains(t, err, "missing 'data' field")

	_, err = client.GetSecretV2("secret/data/no-meta")
	assert.ErrorContains(t, err, "missing 'metadata' field")

	_, err = client.GetSecretV2("boom")
	assert.ErrorContains(t, err, "connection refused")

	var nilClient *VaultClient
	_, err = nilClient.GetSecretV2("secret/data/ok")
	assert.ErrorContains(t, err, "not initialized")
}

func TestGetStringSecret(t *testing.T) {
	client := &VaultClient{reader: fakeReader{
		"kv/data/str": kv2(map[string]any{"api_key": "value", "n": 7}, int64(1)),
	}}

	value, err := client.GetStringSecret("kv/data/str", "api_key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	_, err = client.GetStringSecret("kv/data/str", "absent")
	assert.ErrorContains(t, err, "not found")

	_, err = client.GetStringSecret("kv/data/str", "n")
	assert.ErrorContains(t, err, "is not a string")
}

func TestApplySecrets(t *testing.T) {
	client := &VaultClient{
		reader: fakeReader{
			"kv/data/server": kv2(map[string]any{"keys": "k1, k2 ,,k3"}, float64(2)),
			"kv/data/remote": kv2(map[string]any{"api_key": "remote-secret"}, "1"),
			"kv/data/gemini": kv2(map[string]any{"api_key": "gemini-secret"}, "1"),
		},
		logger: errors.NewNopLogger(),
	}

	cfg := &Config{Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{
		ServerAPIKeys: "kv/data/server",
		RemoteHTTPKey: "kv/data/remote",
		GeminiKey:     "kv/data/gemini",
	}}}
	cfg.Remote.HTTP.APIKey = "from-env"

	require.NoError(t, applySecrets(client, cfg, errors.NewNopLogger()))
	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Server.APIKeys)
	assert.Equal(t, "remote-secret", cfg.Remote.HTTP.APIKey)
	assert.Equal(t, "gemini-secret", cfg.Remote.Gemini.APIKey)

	cfg.Vault.Secrets.GeminiKey = "kv/data/unknown"
	assert.ErrorContains(t, applySecrets(client, cfg, nil), "Gemini API key")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))
}
