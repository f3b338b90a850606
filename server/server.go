// Package server contains go-home HTTP API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Logger system representation.
	logSystem = "server"

	readHeaderTimeout = 10 * time.Second
)

// ConstructServer has data required for a new API server.
type ConstructServer struct {
	Logger   common.ILoggerProvider
	Platform providers.IEntityPlatformProvider
	FanOut   providers.IInternalFanOutProvider
	Metrics  *prometheus.Registry
	Port     int
}

// GoHomeServer describes API server.
type GoHomeServer struct {
	sync.Mutex
	Logger   common.ILoggerProvider
	Platform providers.IEntityPlatformProvider
	FanOut   providers.IInternalFanOutProvider
	Metrics  *prometheus.Registry

	port       int
	wsSettings websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener
}

// NewServer constructs a new API server.
func NewServer(ctor *ConstructServer) *GoHomeServer {
	return &GoHomeServer{
		Logger:   ctor.Logger,
		Platform: ctor.Platform,
		FanOut:   ctor.FanOut,
		Metrics:  ctor.Metrics,
		port:     ctor.Port,
		wsSettings: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Start launches API server in background.
func (s *GoHomeServer) Start() error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.Lock()
	s.listener = l
	s.httpServer = srv
	s.Unlock()

	go func() {
		if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
			s.Logger.Error("API server stopped", err, common.LogSystemToken, logSystem)
		}
	}()

	s.Logger.Info(fmt.Sprintf("Started server on port %d", s.port), common.LogSystemToken, logSystem)
	return nil
}

// Addr returns address server is listening on.
func (s *GoHomeServer) Addr() string {
	s.Lock()
	defer s.Unlock()
	if nil == s.listener {
		return ""
	}

	return s.listener.Addr().String()
}

// Stop gracefully stops API server.
func (s *GoHomeServer) Stop(ctx context.Context) error {
	s.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.Unlock()

	if nil == srv {
		return nil
	}

	return srv.Shutdown(ctx)
}

// Wraps router into access logging and panics recovery.
func (s *GoHomeServer) handler() http.Handler {
	router := mux.NewRouter()
	s.registerAPI(router)

	return handlers.RecoveryHandler(handlers.RecoveryLogger(&recoveryLogger{logger: s.Logger}))(
		handlers.CombinedLoggingHandler(&accessLogWriter{logger: s.Logger}, router))
}

// All API registration.
func (s *GoHomeServer) registerAPI(router *mux.Router) {
	publicRouter := router.PathPrefix("/pub").Subrouter()
	publicRouter.HandleFunc("/ping", s.ping).Methods(http.MethodGet)

	if s.Metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.Metrics, promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	apiRouter := router.PathPrefix(routeAPI).Subrouter()
	apiRouter.HandleFunc("/device", s.getDevices).Methods(http.MethodGet)
	apiRouter.HandleFunc(fmt.Sprintf("/device/{%s}", urlDeviceID), s.getDevice).Methods(http.MethodGet)
	apiRouter.HandleFunc(fmt.Sprintf("/device/{%s}/{%s}", urlDeviceID, urlCommandName),
		s.deviceCommand).Methods(http.MethodPost)
	apiRouter.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	apiRouter.Use(s.logMiddleware)
}
