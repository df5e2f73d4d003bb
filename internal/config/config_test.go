package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "admin-secret")
	t.Setenv("KYC_REVIEW_PASSWORD", "review-secret")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "minio", cfg.Storage.Driver)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 5, cfg.RateLimit.Gate.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Gate.Lockout)
	assert.Equal(t, time.Hour, cfg.RateLimit.Intake.Window)
	assert.Equal(t, int64(10*1024*1024), cfg.KYC.MaxFileSize)
	assert.Equal(t, 30, cfg.KYC.ExpiryWarningDays)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("GATE_MAX_ATTEMPTS", "3")
	t.Setenv("GATE_WINDOW", "10m")
	t.Setenv("STORAGE_USE_SSL", "true")
	t.Setenv("KYC_EXPIRY_WARNING_DAYS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, 3, cfg.RateLimit.Gate.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.Gate.Window)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, 30, cfg.KYC.ExpiryWarningDays, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"missing admin password", map[string]string{"ADMIN_PASSWORD": ""}, "ADMIN_PASSWORD"},
		{"unknown storage driver", map[string]string{"STORAGE_DRIVER": "gcs"}, "STORAGE_DRIVER"},
		{"unknown limiter backend", map[string]string{"RATE_LIMIT_BACKEND": "memcached"}, "RATE_LIMIT_BACKEND"},
		{"upload cap below file cap", map[string]string{"MAX_UPLOAD_SIZE": "1024"}, "MAX_UPLOAD_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
