package config

import (
	"strconv"
	"time"
)

type AuthConfig interface {
	GetClockSkew() time.Duration
	GetMaxAssertionValidity() time.Duration
	GetReplayCacheSize() int
	GetReplayCacheTTL() time.Duration
	GetAssertionAudiences() []string
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetClockSkew is the tolerance applied to every temporal claim check.
func (Auth) GetClockSkew() time.Duration {
	return getDurationEnv("AUTH_CLOCK_SKEW", 60*time.Second)
}

// GetMaxAssertionValidity caps the exp-iat window of client assertions.
func (Auth) GetMaxAssertionValidity() time.Duration {
	return getDurationEnv("AUTH_MAX_ASSERTION_VALIDITY", 300*time.Second)
}

func (Auth) GetReplayCacheSize() int {
	if value, err := strconv.Atoi(GetEnv("AUTH_REPLAY_CACHE_SIZE", "")); err == nil && value > 0 {
		return value
	}
	return 10000
}

// GetReplayCacheTTL must cover the assertion validity window plus skew, or
// an expired entry could let a replayed assertion through.
func (Auth) GetReplayCacheTTL() time.Duration {
	return getDurationEnv("AUTH_REPLAY_CACHE_TTL", 10*time.Minute)
}

// GetAssertionAudiences returns the audience values accepted in client
// assertions: the token endpoint URL and the bare base URL.
func (Auth) GetAssertionAudiences() []string {
	base := EnvVars{}.GetBaseURL()
	return []string{base + "/oauth2/token", base}
}

func getDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(GetEnv(envVar, "")); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
