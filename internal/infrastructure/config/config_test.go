package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Store != StoreSQLite || cfg.Instance != "default" || cfg.LogLevel != "warn" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.StatePath, filepath.Join("flowtask", "state.db")) {
		t.Errorf("StatePath = %q", cfg.StatePath)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Mongo.Database != "flowtask" {
		t.Errorf("unexpected backend defaults: %+v %+v", cfg.Redis, cfg.Mongo)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"FLOWTASK_API_URL":         "https://tasks.example.com",
		"FLOWTASK_REQUEST_TIMEOUT": "3s",
		"FLOWTASK_STORE":           "Redis",
		"FLOWTASK_INSTANCE":        "work",
		"REDIS_DB":                 "4",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "https://tasks.example.com" || cfg.RequestTimeout != 3*time.Second {
		t.Errorf("unexpected api settings: %+v", cfg)
	}
	if cfg.Store != StoreRedis || cfg.Instance != "work" || cfg.Redis.DB != 4 {
		t.Errorf("unexpected store settings: %+v", cfg)
	}
	if cfg.StatePath != "" {
		t.Errorf("state path only defaults for sqlite, got %q", cfg.StatePath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"store":   {"FLOWTASK_STORE": "etcd"},
		"timeout": {"FLOWTASK_REQUEST_TIMEOUT": "0s"},
		"parse":   {"FLOWTASK_REQUEST_TIMEOUT": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatal("want error")
			}
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	if _, set := os.LookupEnv("FLOWTASK_API_URL"); set {
		t.Skip("FLOWTASK_API_URL is set in the environment")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "flowtask.env")
	if err := os.WriteFile(path, []byte("FLOWTASK_API_URL=https://dotenv.example.com\nFLOWTASK_INSTANCE=ignored\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFileVar, path)
	t.Setenv("FLOWTASK_INSTANCE", "from-env")
	t.Setenv("FLOWTASK_STATE_PATH", filepath.Join(dir, "state.db"))
	t.Cleanup(func() { _ = os.Unsetenv("FLOWTASK_API_URL") })

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://dotenv.example.com" {
		t.Errorf("APIURL = %q, want the dotenv value", cfg.APIURL)
	}
	if cfg.Instance != "from-env" {
		t.Errorf("Instance = %q, the environment must win over the file", cfg.Instance)
	}
}

func TestLoad_MissingDotEnvFile(t *testing.T) {
	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "absent.env"))
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("an explicitly named env file must exist")
	}
}
