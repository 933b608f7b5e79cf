package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/receiving/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://erp.example.test/api")
	t.Setenv("BACKEND_SERVICE_TOKEN", "svc")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, RulesSourceBackend, cfg.RulesSource)
	assert.Equal(t, 8*time.Hour, cfg.WorksheetTTL)
	assert.Equal(t, 10*time.Minute, cfg.RulesCacheTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRuleSources(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "postgres without dsn", env: map[string]string{"RULES_SOURCE": "postgres", "PG_DSN": ""}, wantErr: "PG_DSN"},
		{name: "file without path", env: map[string]string{"RULES_SOURCE": "file", "RULES_FILE": ""}, wantErr: "RULES_FILE"},
		{name: "backend without service token", env: map[string]string{"RULES_SOURCE": "backend", "BACKEND_SERVICE_TOKEN": ""}, wantErr: "BACKEND_SERVICE_TOKEN"},
		{name: "unknown source", env: map[string]string{"RULES_SOURCE": "ftp"}, wantErr: "unknown RULES_SOURCE"},
		{name: "file with path", env: map[string]string{"RULES_SOURCE": "File", "RULES_FILE": "rules.yaml"}},
		{name: "postgres with dsn", env: map[string]string{"RULES_SOURCE": "postgres", "PG_DSN": "postgres://localhost/erp"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BACKEND_URL", "https://erp.example.test/api")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig()
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, []string{RulesSourceFile, RulesSourcePostgres}, cfg.RulesSource)
		})
	}
}

func TestLoadConfigRequiresBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
}
