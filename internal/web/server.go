package web

import (
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "go.uber.org/zap"

    "github.com/jaminalder/super-tic-tac-toe/internal/app"
)

// NewServer wires routes and returns an http.Handler. It also installs the
// board renderer used for broadcasts.
func NewServer(s *app.Service, log *zap.Logger, heartbeat time.Duration) http.Handler {
    if log == nil {
        log = zap.NewNop()
    }
    if heartbeat <= 0 {
        heartbeat = 15 * time.Second
    }
    h := &handlers{svc: s, tpl: loadTemplates(), log: log, heartbeat: heartbeat}
    s.SetRenderer(func(m app.Match) []byte { return h.renderBoard(m, nil, "") })

    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(requestLogger(log))
    r.Use(middleware.Recoverer)
    r.Get("/", h.index)
    r.Post("/match", h.create)
    r.Route("/match/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Post("/play", h.play)
        r.Post("/undo", h.undo)
        r.Get("/suggest", h.suggest)
        r.Get("/events", h.events)
    })
    return r
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            start := time.Now()
            defer func() {
                log.Debug("request",
                    zap.String("id", middleware.GetReqID(r.Context())),
                    zap.String("method", r.Method),
                    zap.String("path", r.URL.Path),
                    zap.Int("status", ww.Status()),
                    zap.Int("bytes", ww.BytesWritten()),
                    zap.Duration("elapsed", time.Since(start)),
                )
            }()
            next.ServeHTTP(ww, r)
        })
    }
}
