package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\nllm:\n  provider: anthropic\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if c.Pipeline.DetailedLengthThreshold != 120 {
		t.Fatalf("threshold = %d", c.Pipeline.DetailedLengthThreshold)
	}
	if c.Pipeline.ToolTimeout != 20*time.Second {
		t.Fatalf("tool timeout = %v", c.Pipeline.ToolTimeout)
	}
	if c.LLM.Provider != "anthropic" {
		t.Fatalf("provider = %s", c.LLM.Provider)
	}
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	cases := map[string]string{
		"llm":         "environment: test\nllm:\n  provider: gemini\n",
		"persistence": "environment: test\npersistence:\n  backend: sqlite\n",
		"clickhouse":  "environment: test\npersistence:\n  backend: routed\n",
		"kafka":       "environment: test\nkafka:\n  enabled: true\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("REDIS_ADDR", "cache.internal:6380")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.LLM.APIKey != "sk-test" || c.Server.Port != 9090 {
		t.Fatalf("env not applied: %+v %d", c.LLM.APIKey, c.Server.Port)
	}
	if !c.Kafka.Enabled || strings.Join(c.Kafka.Brokers, ",") != "a:9092,b:9092" {
		t.Fatalf("kafka brokers not applied: %v", c.Kafka.Brokers)
	}
	if c.Cache.Redis.Host != "cache.internal" || c.Cache.Redis.Port != 6380 {
		t.Fatalf("redis addr not applied: %s:%d", c.Cache.Redis.Host, c.Cache.Redis.Port)
	}
	if c.Pipeline.DefaultCurrency != "EGP" {
		t.Fatalf("default currency = %s", c.Pipeline.DefaultCurrency)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
