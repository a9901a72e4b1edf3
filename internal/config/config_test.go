package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"MONGODB_URI", "MONGODB_DATABASE", "MONGODB_COLLECTION", "MONGODB_TIMEOUT", "DEMO_OPERATION", "AUTH_JWT_SECRET", "KEYCLOAK_URL", "KEYCLOAK_CLIENT_ID"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, DefaultMongoURI, cfg.MongoDB.URI)
	require.Equal(t, "playground", cfg.MongoDB.Database)
	require.Equal(t, "courses", cfg.MongoDB.Collection)
	require.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, "create", cfg.Demo.Operation)
	require.False(t, cfg.Auth.Enabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db.internal:27017/school")
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("MONGODB_TIMEOUT", "3")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("DEMO_OPERATION", "DELETE")
	t.Setenv("AUTH_JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "school", cfg.MongoDB.Database)
	require.Equal(t, 3*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, "localhost:6380", cfg.Redis.Addr())
	require.True(t, cfg.RateLimit.Enabled)
	require.InDelta(t, 2.5, cfg.RateLimit.RPS, 0.0001)
	require.Equal(t, "delete", cfg.Demo.Operation)
	require.True(t, cfg.Auth.Enabled())
}

func TestLoadConfigExplicitDatabaseWins(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost/school")
	t.Setenv("MONGODB_DATABASE", "other")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "other", cfg.MongoDB.Database)
}

func TestLoadConfigRejectsBadURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "postgres://localhost/x")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestAuthIssuer(t *testing.T) {
	a := AuthConfig{KeycloakURL: "http://kc:8080/", KeycloakRealm: "courses", KeycloakClientID: "web"}
	require.Equal(t, "http://kc:8080/realms/courses", a.Issuer())
	require.True(t, a.Enabled())
	require.Equal(t, "http://kc:8080/", AuthConfig{KeycloakURL: "http://kc:8080/"}.Issuer())
}
