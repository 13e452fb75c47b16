package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
cycle_interval: 30s
chains:
  - name: cosmoshub
    id: 1
    api: https://lcd.cosmos.example
    query_dialect: events
    valoper_prefix: cosmosvaloper
  - name: osmosis
    id: 2
    api: https://lcd.osmosis.example
    valoper_prefix: osmovaloper
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.CycleInterval)
	require.Len(t, cfg.Chains, 2)
	assert.Equal(t, DialectEvents, cfg.Chains[0].QueryDialect)
	// Dialect defaults to the generic query form when omitted.
	assert.Equal(t, DialectQuery, cfg.Chains[1].QueryDialect)
}

func TestLoadDefaultsCycleInterval(t *testing.T) {
	path := writeConfig(t, `
chains:
  - name: cosmoshub
    id: 1
    api: https://lcd.cosmos.example
    valoper_prefix: cosmosvaloper
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.CycleInterval)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "no chains",
			body: "cycle_interval: 10s\n",
		},
		{
			name: "missing api",
			body: `
chains:
  - name: cosmoshub
    id: 1
    valoper_prefix: cosmosvaloper
`,
		},
		{
			name: "missing valoper prefix",
			body: `
chains:
  - name: cosmoshub
    id: 1
    api: https://lcd.cosmos.example
`,
		},
		{
			name: "bad dialect",
			body: `
chains:
  - name: cosmoshub
    id: 1
    api: https://lcd.cosmos.example
    valoper_prefix: cosmosvaloper
    query_dialect: graphql
`,
		},
		{
			name: "duplicate chain id",
			body: `
chains:
  - name: cosmoshub
    id: 1
    api: https://a.example
    valoper_prefix: cosmosvaloper
  - name: osmosis
    id: 1
    api: https://b.example
    valoper_prefix: osmovaloper
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
