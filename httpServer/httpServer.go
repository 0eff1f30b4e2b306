/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package httpServer

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/db"
	"github.com/gbatanov/zlock/lock"
)

type StatusProvider interface {
	Status() lock.Status
}

// EventSource is the journal, nil when no database is configured.
type EventSource interface {
	LastEvents(n int) ([]db.Record, error)
}

type RequestObserver interface {
	ObserveHTTP(method, path string, status int, d time.Duration)
}

type Config struct {
	Addr     string
	Os       string
	Status   StatusProvider
	Events   EventSource
	Gatherer prometheus.Gatherer
	Observer RequestObserver
}

type HttpServer struct {
	srv *http.Server
	Err chan error
	log zerolog.Logger
}

func NewHttpServer(cfg Config, log zerolog.Logger) (*HttpServer, error) {
	httpserv := HttpServer{}
	httpserv.Err = make(chan error, 1)
	httpserv.log = log.With().Str("component", "http").Logger()

	router := NewRouter(cfg, httpserv.log)
	httpserv.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &httpserv, nil
}

// NewRouter builds the gin engine, separate from the server for tests.
func NewRouter(cfg Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Observer != nil {
		router.Use(observe(cfg.Observer))
	}
	router.SetHTMLTemplate(template.Must(template.New("index.tmpl").Parse(indexTmpl)))

	actionHandler := NewActionHandler(cfg.Status, cfg.Events, cfg.Os, log)

	router.GET("/", actionHandler.otherHandler)
	router.GET("/status", actionHandler.statusHandler)
	router.GET("/events", actionHandler.eventsHandler)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	router.NoRoute(actionHandler.page404)
	return router
}

func observe(o RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		o.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// server start
func (h *HttpServer) Start() {
	go func() {
		h.log.Info().Str("addr", h.srv.Addr).Msg("HTTP Server started")
		if err := h.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.log.Error().Err(err).Msg("listen")
			h.Err <- err
		}
	}() // listen and serve
}

// Gracefull stop for http server
func (h *HttpServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		h.log.Error().Err(err).Msg("HTTP Server Shutdown")
		return
	}
	h.log.Info().Msg("HTTP Server exiting")
}

const indexTmpl = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.title}}</title><meta http-equiv="refresh" content="5"></head>
<body>
<h3>{{.title}}</h3>
<table>
<tr><td>Состояние</td><td>{{.status.State}}</td></tr>
<tr><td>Попытка</td><td>{{.status.Attempt}} ({{.status.Context}})</td></tr>
<tr><td>Дверь</td><td>{{.status.Door}}</td></tr>
<tr><td>Пароль задан</td><td>{{.status.HasCredential}}</td></tr>
<tr><td>Тревог</td><td>{{.status.Alarms}}</td></tr>
<tr><td>Открытий</td><td>{{.status.DoorCycles}}</td></tr>
</table>
{{if .events}}<h4>Журнал</h4>
<table>
{{range .events}}<tr><td>{{.Ts.Format "02.01.2006 15:04:05"}}</td><td>{{.Kind}}</td><td>{{.Context}}</td><td>{{.Attempt}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>{{end}}
<p><small>{{.os}}</small></p>
</body>
</html>
`
