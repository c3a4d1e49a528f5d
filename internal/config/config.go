package config

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "time"

    "gopkg.in/yaml.v2"

    "github.com/jaminalder/super-tic-tac-toe/internal/bot"
)

// Deepest search the config accepts; the tree grows roughly ninefold per ply.
const MaxSearchDepth = 12

var ErrInvalid = errors.New("invalid config")

type Config struct {
    Server ServerConfig `yaml:"server"`
    Bot    BotConfig    `yaml:"bot"`
    Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
    Addr             string `yaml:"addr"`
    HeartbeatSeconds int    `yaml:"heartbeat_seconds"`
}

type BotConfig struct {
    Depth      int   `yaml:"depth"`
    TimeoutMs  int   `yaml:"timeout_ms"`
    NodeBudget int64 `yaml:"node_budget"`
    Workers    int   `yaml:"workers"`
    // Positional overrides the evaluator's nine positional weights when set.
    Positional []int `yaml:"positional"`
    WinWeight  int   `yaml:"win_weight"`
}

type LogConfig struct {
    Level       string `yaml:"level"`
    Development bool   `yaml:"development"`
    // File sends logs to a file instead of stderr, needed by the terminal UI.
    File string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
    w := bot.DefaultWeights()
    positional := make([]int, len(w.Positional))
    for i, v := range w.Positional {
        positional[i] = int(v)
    }
    return Config{
        Server: ServerConfig{Addr: "127.0.0.1:8080", HeartbeatSeconds: 15},
        Bot: BotConfig{
            Depth:      bot.DefaultDepth,
            TimeoutMs:  2000,
            Workers:    4,
            Positional: positional,
            WinWeight:  int(w.Win),
        },
        Log: LogConfig{Level: "info"},
    }
}

// Load reads a YAML file over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
    cfg := Default()
    if path != "" {
        raw, err := os.ReadFile(path)
        if err != nil {
            return Config{}, fmt.Errorf("read config: %w", err)
        }
        if err := yaml.Unmarshal(raw, &cfg); err != nil {
            return Config{}, fmt.Errorf("parse config %s: %w", path, err)
        }
    }
    if err := cfg.applyEnv(); err != nil {
        return Config{}, err
    }
    if err := cfg.Validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// applyEnv lets SUPERTTT_* variables override file values.
func (c *Config) applyEnv() error {
    if v, ok := os.LookupEnv("SUPERTTT_ADDR"); ok {
        c.Server.Addr = v
    }
    if v, ok := os.LookupEnv("SUPERTTT_LOG_LEVEL"); ok {
        c.Log.Level = v
    }
    if v, ok := os.LookupEnv("SUPERTTT_DEPTH"); ok {
        d, err := strconv.Atoi(v)
        if err != nil {
            return fmt.Errorf("%w: SUPERTTT_DEPTH=%q", ErrInvalid, v)
        }
        c.Bot.Depth = d
    }
    return nil
}

func (c Config) Validate() error {
    if c.Server.Addr == "" {
        return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
    }
    if c.Bot.Depth < 1 || c.Bot.Depth > MaxSearchDepth {
        return fmt.Errorf("%w: bot.depth %d outside 1..%d", ErrInvalid, c.Bot.Depth, MaxSearchDepth)
    }
    if c.Bot.TimeoutMs < 0 || c.Bot.NodeBudget < 0 || c.Bot.Workers < 0 {
        return fmt.Errorf("%w: bot limits must not be negative", ErrInvalid)
    }
    if _, err := c.Weights(); err != nil {
        return err
    }
    return nil
}

// Weights builds evaluator weights from the bot section.
func (c Config) Weights() (bot.Weights, error) {
    w := bot.DefaultWeights()
    if len(c.Bot.Positional) != 0 {
        if len(c.Bot.Positional) != 9 {
            return bot.Weights{}, fmt.Errorf("%w: bot.positional needs 9 weights, got %d", ErrInvalid, len(c.Bot.Positional))
        }
        for i, v := range c.Bot.Positional {
            w.Positional[i] = bot.Score(v)
        }
    }
    if c.Bot.WinWeight != 0 {
        w.Win = bot.Score(c.Bot.WinWeight)
    }
    if err := w.Validate(); err != nil {
        return bot.Weights{}, fmt.Errorf("%w: %v", ErrInvalid, err)
    }
    return w, nil
}

// SearchOptions converts the bot section for bot.NewSearcher.
func (c Config) SearchOptions() bot.Options {
    return bot.Options{
        Depth:      c.Bot.Depth,
        Timeout:    time.Duration(c.Bot.TimeoutMs) * time.Millisecond,
        NodeBudget: c.Bot.NodeBudget,
        Workers:    c.Bot.Workers,
    }
}

func (c Config) Heartbeat() time.Duration {
    if c.Server.HeartbeatSeconds <= 0 {
        return 15 * time.Second
    }
    return time.Duration(c.Server.HeartbeatSeconds) * time.Second
}
