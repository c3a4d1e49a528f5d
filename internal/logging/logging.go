package logging

import (
    "fmt"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"

    "github.com/jaminalder/super-tic-tac-toe/internal/config"
)

// New builds a zap logger for cfg: JSON production output by default,
// console output in development mode.
func New(cfg config.LogConfig) (*zap.Logger, error) {
    var level zapcore.Level
    if cfg.Level != "" {
        if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
            return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
        }
    }
    zc := zap.NewProductionConfig()
    if cfg.Development {
        zc = zap.NewDevelopmentConfig()
    }
    zc.Level = zap.NewAtomicLevelAt(level)
    if cfg.File != "" {
        zc.OutputPaths = []string{cfg.File}
        zc.ErrorOutputPaths = []string{cfg.File}
    }
    return zc.Build()
}
