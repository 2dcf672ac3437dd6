package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
	"github.com/saiset-co/sai-storecache/utils"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

// FastHTTPServer exposes the diagnostics surface: health, version,
// cache stats and the metrics scrape endpoint. It carries no business
// routes; mutations reach the coordinator through the service layer.
type FastHTTPServer struct {
	ctx             context.Context
	cancel          context.CancelFunc
	config          types.ConfigManager
	logger          types.Logger
	metrics         types.MetricsManager
	server          *fasthttp.Server
	listener        net.Listener
	serverConfig    *types.ServerConfig
	routes          map[string]fasthttp.RequestHandler
	routesMu        sync.RWMutex
	state           atomic.Value
	shutdownTimeout time.Duration
}

func NewHTTPServer(ctx context.Context, config types.ConfigManager, logger types.Logger, metrics types.MetricsManager) (*FastHTTPServer, error) {
	serverConfig := config.GetConfig().Server
	if serverConfig == nil || !serverConfig.Enabled {
		return nil, types.ErrServerNotRunning
	}

	serverCtx, cancel := context.WithCancel(ctx)

	server := &FastHTTPServer{
		ctx:             serverCtx,
		cancel:          cancel,
		config:          config,
		logger:          logger,
		metrics:         metrics,
		serverConfig:    serverConfig,
		routes:          make(map[string]fasthttp.RequestHandler),
		shutdownTimeout: 5 * time.Second,
	}

	server.state.Store(StateStopped)

	return server, nil
}

// Add registers a GET route. Registration after Start is allowed, the
// route map is read under lock per request.
func (h *FastHTTPServer) Add(path string, handler fasthttp.RequestHandler) {
	h.routesMu.Lock()
	defer h.routesMu.Unlock()

	h.routes[path] = handler
}

func (h *FastHTTPServer) Start() error {
	if !h.transitionState(StateStopped, StateStarting) {
		return types.ErrServerAlreadyRunning
	}

	defer func() {
		if h.getState() == StateStarting {
			h.setState(StateRunning)
		}
	}()

	h.server = &fasthttp.Server{
		Handler:      h.mainHandler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		TCPKeepalive: true,
	}

	addr := fmt.Sprintf("%s:%d", h.serverConfig.Host, h.serverConfig.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		h.setState(StateStopped)
		return types.WrapError(err, "failed to listen")
	}
	h.listener = listener

	go func() {
		if err := h.server.Serve(h.listener); err != nil {
			h.logger.Error("HTTP server failed", zap.Error(err))
			h.setState(StateStopped)
		}
	}()

	h.logger.Info("HTTP server started successfully",
		zap.String("address", addr))

	return nil
}

func (h *FastHTTPServer) Stop() error {
	if !h.transitionState(StateRunning, StateStopping) {
		return types.ErrServerNotRunning
	}

	defer func() {
		h.setState(StateStopped)
		h.cancel()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	if h.server != nil {
		if h.listener != nil {
			if err := h.listener.Close(); err != nil {
				h.logger.Error("Failed to close listener", zap.Error(err))
			}
		}

		if err := h.server.ShutdownWithContext(ctx); err != nil {
			h.logger.Warn("Server stop timeout, some connections may not have closed gracefully")
			return nil
		}
	}

	h.logger.Info("HTTP server stopped gracefully")
	return nil
}

func (h *FastHTTPServer) IsRunning() bool {
	return h.getState() == StateRunning
}

func (h *FastHTTPServer) getState() State {
	return h.state.Load().(State)
}

func (h *FastHTTPServer) setState(newState State) bool {
	currentState := h.getState()
	return h.state.CompareAndSwap(currentState, newState)
}

func (h *FastHTTPServer) transitionState(from, to State) bool {
	return h.state.CompareAndSwap(from, to)
}

func (h *FastHTTPServer) mainHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		path := string(ctx.Path())

		if string(ctx.Method()) != fasthttp.MethodGet {
			ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
			return
		}

		h.routesMu.RLock()
		handler, exists := h.routes[path]
		h.routesMu.RUnlock()

		if !exists {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			h.recordRequest(path, fasthttp.StatusNotFound, time.Since(start))
			return
		}

		handler(ctx)
		h.recordRequest(path, ctx.Response.StatusCode(), time.Since(start))
	}
}

func (h *FastHTTPServer) recordRequest(path string, status int, duration time.Duration) {
	if h.metrics == nil {
		return
	}

	counter := h.metrics.Counter("http_requests_total", map[string]string{
		"path":   path,
		"status": fmt.Sprintf("%d", status),
	})
	counter.Inc()

	histogram := h.metrics.Histogram("http_request_duration_seconds",
		[]float64{0.001, 0.01, 0.1, 1.0, 5.0},
		map[string]string{"path": path},
	)
	histogram.Observe(duration.Seconds())
}

// WriteJSON marshals a payload onto the response. Any status code the
// handler set beforehand is preserved.
func WriteJSON(ctx *fasthttp.RequestCtx, logger types.Logger, payload interface{}) {
	data, err := utils.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal response", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")

	if _, err := ctx.Write(data); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
