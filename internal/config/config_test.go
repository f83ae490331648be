package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PROMO_CODES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Catalog.ClearanceWindowDays)
	assert.Equal(t, 24*time.Hour, cfg.Cart.AbandonAfter)
	assert.Empty(t, cfg.Orders.PromoCodes)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestPromoCodesDefaultOnlyWhenUnset(t *testing.T) {
	t.Setenv("PROMO_CODES", "")
	require.NoError(t, os.Unsetenv("PROMO_CODES"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"FRESH10": 10}, cfg.Orders.PromoCodes)

	t.Setenv("PROMO_CODES", "")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Orders.PromoCodes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("PRODUCT_CACHE_TTL", "2m")
	t.Setenv("PROMO_CODES", "fresh10:10, SUMMER:25")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, map[string]int{"FRESH10": 10, "SUMMER": 25}, cfg.Orders.PromoCodes)
	assert.Len(t, cfg.Security.CORSAllowedOrigins, 2)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestParsePromoCodes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]int
		wantErr bool
	}{
		{name: "empty", raw: "", want: map[string]int{}},
		{name: "single", raw: "FRESH10:10", want: map[string]int{"FRESH10": 10}},
		{name: "missing percent", raw: "FRESH10", wantErr: true},
		{name: "out of range", raw: "ALL:150", wantErr: true},
		{name: "not a number", raw: "X:ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePromoCodes(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
