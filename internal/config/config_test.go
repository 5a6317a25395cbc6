package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv("IMAGE_API_KEY", "sk-test")
	t.Setenv("DB_PASSWORD", "")

	c, err := Load(filepath.Join("testdata", "config.xml"))
	require.NoError(t, err)

	assert.True(t, c.RequestDump)
	assert.Equal(t, "127.0.0.1:9090", c.Addr())
	assert.Equal(t, "https://persona.example", c.Context.PublicURL)
	assert.Equal(t, 250*time.Millisecond, c.LockDelay())
	assert.Equal(t, 20, c.Quiz.ScaleMax)
	assert.Equal(t, "app-language", c.Locale.CookieName, "empty element falls back to the default")
	assert.Equal(t, 4, c.Images.Concurrency)
	assert.Equal(t, "nano-banana-pro", c.Images.Model)
	assert.Equal(t, "sk-test", c.Secrets.ImageAPIKey)
	assert.Equal(t, "s3cret", c.Secrets.DBPassword)
	assert.Contains(t, c.DSN(), "host=db.internal port=5432 user=persona password=s3cret dbname=persona")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	c, err := Load(filepath.Join(t.TempDir(), "absent.xml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Context, c.Context)
	assert.Equal(t, 400*time.Millisecond, c.LockDelay())
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout())
}

func TestEnvPasswordWins(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")
	c, err := Load(filepath.Join("testdata", "config.xml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Secrets.DBPassword)
}

func TestParseRejectsBadInput(t *testing.T) {
	c := Default()
	assert.Error(t, Parse([]byte("<API><CONTEXT>"), &c))

	c = Default()
	assert.ErrorContains(t, Parse([]byte("<API><CONTEXT><PORT>70000</PORT></CONTEXT></API>"), &c), "invalid port")

	c = Default()
	assert.ErrorContains(t, Parse([]byte("<API><QUIZ><LOCK_DELAY_MS>-1</LOCK_DELAY_MS></QUIZ></API>"), &c), "lock delay")
}
