package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
environment: test
analyst:
  url: http://analyst:8090
`

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "any", c.Research.AuxPolicy)
	assert.Equal(t, 30*time.Second, c.Research.NewsTimeout)
	assert.Equal(t, 90, c.CoinGecko.HistoryDays)
	assert.Equal(t, 0.5, c.CoinGecko.RatePerSec)
	assert.Equal(t, "research.reports", c.Kafka.Topics.Reports)
	assert.Equal(t, "finresearch.research_runs", c.ClickHouse.ArchiveTable())
	assert.Equal(t, "reports", c.Output.Dir)
	assert.False(t, c.Kafka.Enabled)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"aux policy":       minimal + "research:\n  aux_policy: most\n",
		"missing analyst":  "environment: test\n",
		"kafka no brokers": minimal + "kafka:\n  enabled: true\n",
		"queue no redis":   minimal + "queue:\n  enabled: true\n",
		"notion no key":    minimal + "notion:\n  enabled: true\n",
		"clickhouse host":  minimal + "clickhouse:\n  enabled: true\n",
		"bad yaml":         "environment: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte(minimal))
	require.NoError(t, err)

	env := map[string]string{
		"COINGECKO_API_KEY":  "cg-key",
		"ANALYST_URL":        "http://other:9000",
		"NOTION_API_KEY":     "secret",
		"NOTION_DATABASE_ID": "db",
		"OUTPUT_DIR":         "/tmp/out",
		"KAFKA_BROKERS":      "k1:9092, k2:9092,",
		"REDIS_ADDR":         "redis:6379",
		"LOG_LEVEL":          "  ",
	}
	c.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "cg-key", c.CoinGecko.APIKey)
	assert.Equal(t, "http://other:9000", c.Analyst.URL)
	assert.True(t, c.Notion.Enabled)
	assert.Equal(t, "/tmp/out", c.Output.Dir)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "info", c.Log.Level)
	assert.NoError(t, c.Validate())
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	prompts := filepath.Join(dir, "prompts")
	require.NoError(t, os.MkdirAll(filepath.Join(prompts, "social_sentinel"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(prompts, "news_aggregator.md"), []byte("news prompt\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(prompts, "social_sentinel", "SKILL.md"), []byte("sentiment prompt"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(prompts, "notes.txt"), []byte("ignored"), 0o644))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\nresearch:\n  prompts_dir: "+prompts+"\n"), 0o644))

	t.Setenv("ANALYST_URL", "http://analyst:8090")
	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"news_aggregator": "news prompt",
		"social_sentinel": "sentiment prompt",
	}, c.Prompts)

	_, err = LoadWithEnv(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadPrompts_MissingDir(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoad_ExampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, "config/prompts", c.Research.PromptsDir)
}
