package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    tea "github.com/charmbracelet/bubbletea"
    "go.uber.org/zap"

    "github.com/jaminalder/super-tic-tac-toe/internal/app"
    "github.com/jaminalder/super-tic-tac-toe/internal/bot"
    "github.com/jaminalder/super-tic-tac-toe/internal/config"
    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
    "github.com/jaminalder/super-tic-tac-toe/internal/logging"
    "github.com/jaminalder/super-tic-tac-toe/internal/tui"
    "github.com/jaminalder/super-tic-tac-toe/internal/web"
)

const usage = `usage: superttt <command> [flags]

commands:
  serve   run the browser front end
  play    play in the terminal
`

func main() {
    if len(os.Args) < 2 {
        fmt.Fprint(os.Stderr, usage)
        os.Exit(2)
    }
    var err error
    switch os.Args[1] {
    case "serve":
        err = serve(os.Args[2:])
    case "play":
        err = play(os.Args[2:])
    case "-h", "--help", "help":
        fmt.Print(usage)
        return
    default:
        fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
        os.Exit(2)
    }
    if err != nil {
        fmt.Fprintln(os.Stderr, "superttt:", err)
        os.Exit(1)
    }
}

type commonFlags struct {
    config *string
    addr   *string
    depth  *int
}

func newFlags(name string) (*flag.FlagSet, commonFlags) {
    fs := flag.NewFlagSet(name, flag.ExitOnError)
    return fs, commonFlags{
        config: fs.String("config", "", "Path to a YAML config file"),
        addr:   fs.String("addr", "", "Listen address (overrides config)"),
        depth:  fs.Int("depth", 0, "Bot search depth (overrides config)"),
    }
}

// loadConfig applies flags on top of the file and environment.
func loadConfig(f commonFlags) (config.Config, error) {
    cfg, err := config.Load(*f.config)
    if err != nil {
        return config.Config{}, err
    }
    if *f.addr != "" {
        cfg.Server.Addr = *f.addr
    }
    if *f.depth != 0 {
        cfg.Bot.Depth = *f.depth
    }
    return cfg, cfg.Validate()
}

func newService(cfg config.Config, log *zap.Logger) (*app.Service, error) {
    weights, err := cfg.Weights()
    if err != nil {
        return nil, err
    }
    searcher := bot.NewSearcher(bot.NewEvaluator(weights), cfg.SearchOptions(), log.Named("bot"))
    return app.NewService(searcher, log.Named("app")), nil
}

func serve(args []string) error {
    fs, f := newFlags("serve")
    fs.Parse(args)

    cfg, err := loadConfig(f)
    if err != nil {
        return err
    }
    log, err := logging.New(cfg.Log)
    if err != nil {
        return err
    }
    defer log.Sync()

    svc, err := newService(cfg, log)
    if err != nil {
        return err
    }
    srv := &http.Server{
        Addr:              cfg.Server.Addr,
        Handler:           web.NewServer(svc, log.Named("web"), cfg.Heartbeat()),
        ReadHeaderTimeout: 5 * time.Second,
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    errc := make(chan error, 1)
    go func() {
        log.Info("listening", zap.String("addr", cfg.Server.Addr), zap.Int("depth", cfg.Bot.Depth))
        errc <- srv.ListenAndServe()
    }()

    select {
    case err := <-errc:
        if !errors.Is(err, http.ErrServerClosed) {
            return err
        }
        return nil
    case <-ctx.Done():
    }

    log.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        return fmt.Errorf("shutdown: %w", err)
    }
    svc.Wait()
    return nil
}

func play(args []string) error {
    fs, f := newFlags("play")
    botSide := fs.String("bot", "o", "Bot side: x, o or none for hot-seat")
    fs.Parse(args)

    cfg, err := loadConfig(f)
    if err != nil {
        return err
    }
    opts, err := parseSide(*botSide)
    if err != nil {
        return err
    }

    // Logs would corrupt the alt screen, so stay quiet unless a file is set.
    log := zap.NewNop()
    if cfg.Log.File != "" {
        if log, err = logging.New(cfg.Log); err != nil {
            return err
        }
    }
    defer log.Sync()

    svc, err := newService(cfg, log)
    if err != nil {
        return err
    }
    m, err := tui.New(svc, opts, cfg.Bot.Depth)
    if err != nil {
        return err
    }
    if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
        return err
    }
    return nil
}

func parseSide(s string) (app.Options, error) {
    switch s {
    case "x", "X":
        return app.Options{Mode: app.VersusBot, BotSide: domain.X}, nil
    case "o", "O":
        return app.Options{Mode: app.VersusBot, BotSide: domain.O}, nil
    case "none", "":
        return app.Options{Mode: app.HotSeat}, nil
    }
    return app.Options{}, fmt.Errorf("unknown bot side %q", s)
}
