package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	p := writeYAML(t, "jwt:\n  secret: s3cr3t\n")
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "jwt", c.JWT.CookieName)
	assert.Equal(t, 12, c.Auth.BcryptCost)
	assert.Equal(t, 10, c.Auth.ResetTokenTTLMin)
	assert.Equal(t, 1, c.Auth.PasswordChangeSkewSec)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, 8000, c.App.HTTP.Port)
	assert.Equal(t, "usd", c.Payment.Currency)
}

func TestLoadOverrides(t *testing.T) {
	p := writeYAML(t, `
app:
  env: prod
jwt:
  secret: abc
  accessTokenTTLMin: 30
db:
  driver: mongo
mongo:
  uri: mongodb://localhost:27017
  database: natours
`)
	t.Setenv("APP_AUTH_BCRYPTCOST", "4")
	c, err := Load(p)
	require.NoError(t, err)

	assert.True(t, c.App.IsProd())
	assert.Equal(t, 30, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, "mongo", c.DB.Driver)
	assert.Equal(t, "natours", c.Mongo.Database)
	assert.Equal(t, 4, c.Auth.BcryptCost)
}

func TestLoadRequiresSecret(t *testing.T) {
	p := writeYAML(t, "app:\n  name: x\n")
	_, err := Load(p)
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestValidateDriver(t *testing.T) {
	c := &Config{
		JWT:  JWT{Secret: "x", AccessTokenTTLMin: 1},
		Auth: Auth{ResetTokenTTLMin: 10},
		DB:   DB{Driver: "sqlite"},
	}
	assert.ErrorContains(t, c.Validate(), "sqlite")
}

func TestValidateTrustedProxies(t *testing.T) {
	c := &Config{
		JWT:  JWT{Secret: "x", AccessTokenTTLMin: 1},
		Auth: Auth{ResetTokenTTLMin: 10},
		DB:   DB{Driver: "postgres"},
	}
	c.Limits.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.7", "::1"}
	assert.NoError(t, c.Validate())

	c.Limits.TrustedProxies = []string{"10.0.0.0/8", "lb.internal"}
	assert.ErrorContains(t, c.Validate(), "lb.internal")
}

func TestLoadTrustedProxies(t *testing.T) {
	p := writeYAML(t, "jwt:\n  secret: s\nlimits:\n  trustedProxies: [\"10.0.0.0/8\"]\n")
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8"}, c.Limits.TrustedProxies)

	p = writeYAML(t, "jwt:\n  secret: s\n")
	c, err = Load(p)
	require.NoError(t, err)
	assert.Empty(t, c.Limits.TrustedProxies)
}
