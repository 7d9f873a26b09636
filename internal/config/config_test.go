package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Log.Path != nil || cfg.Report.Unit != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `[log]
path = "/tmp/book.dat"
separator = "======"
end-token = "finish"

[report]
unit = "hour"
curve-window = 5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Log.Path == nil || *cfg.Log.Path != "/tmp/book.dat" {
		t.Fatalf("unexpected log path %v", cfg.Log.Path)
	}
	if cfg.Log.Separator == nil || *cfg.Log.Separator != "======" {
		t.Fatalf("unexpected separator %v", cfg.Log.Separator)
	}
	if cfg.Log.RecordsTitle != nil {
		t.Fatalf("unset key should stay nil")
	}
	if cfg.Report.CurveWindow == nil || *cfg.Report.CurveWindow != 5 {
		t.Fatalf("unexpected curve window %v", cfg.Report.CurveWindow)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[report]\nunits = \"hour\"\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "report.units") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadEnvReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	writeFile(t, dotenv, "TREP_FILE=from-dotenv.dat\n")
	t.Setenv(EnvFile, "")
	os.Unsetenv(EnvFile)

	env := LoadEnv(dotenv)
	if env.File != "from-dotenv.dat" {
		t.Fatalf("expected dotenv value, got %q", env.File)
	}
}

func TestLoadEnvKeepsExistingVariables(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	writeFile(t, dotenv, "TREP_FILE=from-dotenv.dat\n")
	t.Setenv(EnvFile, "from-shell.dat")

	if env := LoadEnv(dotenv); env.File != "from-shell.dat" {
		t.Fatalf("shell value should win, got %q", env.File)
	}
}

func TestResolveLogPath(t *testing.T) {
	fromConfig := "config.dat"
	file := FileConfig{Log: LogConfig{Path: &fromConfig}}

	cases := []struct {
		name    string
		flag    string
		flagSet bool
		env     Env
		file    FileConfig
		want    string
	}{
		{"flag wins", "flag.dat", true, Env{File: "env.dat"}, file, "flag.dat"},
		{"env beats config", "", false, Env{File: "env.dat"}, file, "env.dat"},
		{"config beats default", "", false, Env{}, file, "config.dat"},
		{"default", "", false, Env{}, FileConfig{}, DefaultLogFile},
	}
	for _, tc := range cases {
		if got := ResolveLogPath(tc.flag, tc.flagSet, tc.env, tc.file); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := (Env{}).ConfigPath(); got != filepath.Join("/xdg", "trep", "config.toml") {
		t.Fatalf("unexpected default config path %q", got)
	}
	if got := (Env{Config: "/etc/trep.toml"}).ConfigPath(); got != "/etc/trep.toml" {
		t.Fatalf("unexpected override %q", got)
	}
}
