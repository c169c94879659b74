package server

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"opendart/internal/gateway/handler"
	"opendart/internal/gateway/handler/rpc"
	"opendart/internal/gateway/middleware"
)

// Handlers are the endpoints mounted by NewMux.
type Handlers struct {
	Tools    *handler.ToolsHandler
	Health   *handler.HealthHandler
	RPC      *rpc.ToolHandler
	Stream   *rpc.ToolStreamHandler
	Gatherer prometheus.Gatherer
}

func NewMux(h Handlers, log logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewToolServiceHandler(h.RPC))
	mux.HandleFunc("GET /ws", h.Stream.HandleToolWS)

	// JSON Handlers
	mux.Handle("GET /tools", gzhttp.GzipHandler(http.HandlerFunc(h.Tools.HandleList)))
	mux.Handle("POST /tools/{name}", gzhttp.GzipHandler(http.HandlerFunc(h.Tools.HandleCall)))

	// Ops Handlers
	mux.HandleFunc("GET /healthz", h.Health.HandleHealth)
	if h.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}

	// Middleware
	return middleware.RequestLog(log)(middleware.CORS(mux))
}
