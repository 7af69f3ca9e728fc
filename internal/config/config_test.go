package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Grpc.Port)
	assert.Equal(t, "percentage", cfg.Grading.Policy)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.IsLocal())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.staging.yaml"), []byte(`
server:
  port: "8181"
grading:
  policy: subject_floor
  pass_mark: 18
  marks_max: 50
auth:
  admin_email: admin@school.test
`), 0o644))

	t.Chdir(dir)
	t.Setenv("ENV", "staging")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, "subject_floor", cfg.Grading.Policy)
	assert.Equal(t, "admin@school.test", cfg.Auth.AdminEmail)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.False(t, cfg.IsLocal())
}

func TestLoad_RequiresAuthOutsideLocal(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "production")

	_, err := Load()
	assert.ErrorContains(t, err, "admin_email")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:     "local",
			Grading: GradingConfig{Policy: "percentage"},
			Events:  EventsConfig{Driver: "none"},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		c := valid()
		assert.NoError(t, c.Validate())
	})

	t.Run("UnknownPolicy", func(t *testing.T) {
		c := valid()
		c.Grading.Policy = "curve"
		assert.Error(t, c.Validate())
	})

	t.Run("FloorAboveMax", func(t *testing.T) {
		c := valid()
		c.Grading = GradingConfig{Policy: "subject_floor", PassMark: 60, MarksMax: 50}
		assert.Error(t, c.Validate())
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		c := valid()
		c.Events.Driver = "rabbitmq"
		assert.Error(t, c.Validate())
	})

	t.Run("ProductionNeedsSecret", func(t *testing.T) {
		c := valid()
		c.Env = "prod"
		c.Auth.AdminEmail = "admin@school.test"
		assert.ErrorContains(t, c.Validate(), "jwt_secret")

		c.Auth.JWTSecret = "secret"
		assert.NoError(t, c.Validate())
		assert.False(t, c.IsLocal())
	})
}
