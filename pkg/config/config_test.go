package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 3, cfg.Electives.RequiredQuota)
	assert.Equal(t, 10, cfg.Electives.SuggestionLimit)
	assert.Equal(t, 30.0, cfg.Electives.DefaultWeeklyHours)
	assert.Equal(t, 5*time.Minute, cfg.Electives.StatsCacheTTL)
	assert.Equal(t, 1, cfg.Electives.RefreshWorkers)
	assert.True(t, cfg.Electives.Enabled)
}

func TestFromViperOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ELECTIVE_REQUIRED_QUOTA", 4)
	v.Set("ELECTIVE_SUGGESTION_LIMIT", -1)
	v.Set("ELECTIVE_STATS_CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := fromViper(v)

	assert.Equal(t, 4, cfg.Electives.RequiredQuota)
	assert.Equal(t, 10, cfg.Electives.SuggestionLimit)
	assert.Equal(t, 5*time.Minute, cfg.Electives.StatsCacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
