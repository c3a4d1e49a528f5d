package config

import (
    "errors"
    "os"
    "path/filepath"
    "testing"
    "time"
)

func writeConfig(t *testing.T, body string) string {
    t.Helper()
    path := filepath.Join(t.TempDir(), "superttt.yaml")
    if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
        t.Fatalf("write config: %v", err)
    }
    return path
}

func TestLoadDefaults(t *testing.T) {
    cfg, err := Load("")
    if err != nil {
        t.Fatalf("load defaults: %v", err)
    }
    if cfg.Server.Addr != "127.0.0.1:8080" {
        t.Fatalf("unexpected addr %q", cfg.Server.Addr)
    }
    w, err := cfg.Weights()
    if err != nil {
        t.Fatalf("default weights: %v", err)
    }
    if w.Positional[4] != 4 || w.Positional[1] != 2 {
        t.Fatalf("unexpected default weights %v", w.Positional)
    }
    if cfg.SearchOptions().Timeout != 2*time.Second {
        t.Fatalf("unexpected timeout %v", cfg.SearchOptions().Timeout)
    }
}

func TestLoadFileOverridesDefaults(t *testing.T) {
    path := writeConfig(t, `
server:
  addr: 127.0.0.1:9090
bot:
  depth: 4
  node_budget: 100000
  positional: [1, 1, 1, 1, 2, 1, 1, 1, 1]
log:
  level: debug
`)
    cfg, err := Load(path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.Server.Addr != "127.0.0.1:9090" || cfg.Bot.Depth != 4 || cfg.Log.Level != "debug" {
        t.Fatalf("file values not applied: %+v", cfg)
    }
    if cfg.Bot.Workers != 4 {
        t.Fatalf("unset keys should keep defaults, workers=%d", cfg.Bot.Workers)
    }
    opts := cfg.SearchOptions()
    if opts.Depth != 4 || opts.NodeBudget != 100000 {
        t.Fatalf("unexpected search options %+v", opts)
    }
    w, _ := cfg.Weights()
    if w.Positional[4] != 2 {
        t.Fatalf("positional override not applied: %v", w.Positional)
    }
}

func TestEnvOverridesFile(t *testing.T) {
    path := writeConfig(t, "bot:\n  depth: 4\n")
    t.Setenv("SUPERTTT_DEPTH", "3")
    t.Setenv("SUPERTTT_ADDR", "127.0.0.1:7000")
    cfg, err := Load(path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.Bot.Depth != 3 || cfg.Server.Addr != "127.0.0.1:7000" {
        t.Fatalf("env overrides not applied: depth=%d addr=%q", cfg.Bot.Depth, cfg.Server.Addr)
    }
    t.Setenv("SUPERTTT_DEPTH", "deep")
    if _, err := Load(path); !errors.Is(err, ErrInvalid) {
        t.Fatalf("expected ErrInvalid for bad depth, got %v", err)
    }
}

func TestValidateRejectsBadValues(t *testing.T) {
    cases := map[string]string{
        "depth":      "bot:\n  depth: 40\n",
        "positional": "bot:\n  positional: [1, 2, 3]\n",
        "win":        "bot:\n  win_weight: 10\n",
        "negative":   "bot:\n  workers: -1\n",
    }
    for name, body := range cases {
        if _, err := Load(writeConfig(t, body)); !errors.Is(err, ErrInvalid) {
            t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
        }
    }
}

func TestLoadMissingFile(t *testing.T) {
    if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
        t.Fatalf("expected error for missing file")
    }
}
