/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/numaproj/numaslice/pkg/shared/logging"
	"github.com/numaproj/numaslice/pkg/shared/util"
)

const (
	// EnvPPROF enables the pprof endpoints when set to "true".
	EnvPPROF = "NUMASLICE_PPROF"
	// EnvHealthCheckTimeout bounds a single readiness check.
	EnvHealthCheckTimeout = "NUMASLICE_HEALTH_CHECK_TIMEOUT"

	DefaultMetricsAddr = ":9090"
)

// HealthChecker is implemented by components that take part in readiness checks.
type HealthChecker interface {
	IsHealthy(ctx context.Context) error
}

// metricsServer runs an HTTP server to:
// 1. Expose metrics;
// 2. Serve an endpoint to execute health checks
type metricsServer struct {
	addr string
	// listener is set once the server is started
	listener net.Listener
	// Functions that health check executes
	healthCheckExecutors []func() error
}

type Option func(*metricsServer)

// WithAddr sets the listen address
func WithAddr(addr string) Option {
	return func(m *metricsServer) {
		m.addr = addr
	}
}

// WithHealthCheckExecutor appends a health check executor
func WithHealthCheckExecutor(f func() error) Option {
	return func(m *metricsServer) {
		m.healthCheckExecutors = append(m.healthCheckExecutors, f)
	}
}

// WithHealthCheckers appends an executor per checker, each bounded by the health check timeout.
func WithHealthCheckers(ctx context.Context, checkers ...HealthChecker) Option {
	timeout := util.LookupEnvDurationOr(EnvHealthCheckTimeout, 30*time.Second)
	return func(m *metricsServer) {
		for _, hc := range checkers {
			m.healthCheckExecutors = append(m.healthCheckExecutors, func() error {
				cctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				return hc.IsHealthy(cctx)
			})
		}
	}
}

// NewMetricsServer returns a Prometheus metrics server instance.
func NewMetricsServer(opts ...Option) *metricsServer {
	m := new(metricsServer)
	m.addr = DefaultMetricsAddr
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Addr returns the address the server listens on, which is only known after Start when the
// configured port is 0.
func (ms *metricsServer) Addr() string {
	if ms.listener != nil {
		return ms.listener.Addr().String()
	}
	return ms.addr
}

func (ms *metricsServer) handler(ctx context.Context) http.Handler {
	log := logging.FromContext(ctx)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		for _, ex := range ms.healthCheckExecutors {
			if err := ex(); err != nil {
				log.Errorw("Failed to execute health check", zap.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	pprofEnabled := util.LookupEnvBoolOr(logging.EnvDebug, false) || util.LookupEnvBoolOr(EnvPPROF, false)
	if pprofEnabled {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		log.Info("Not enabling pprof debug endpoints")
	}
	return mux
}

// Start starts the HTTP service to expose metrics, it returns a shutdown function and an error if any
func (ms *metricsServer) Start(ctx context.Context) (func(ctx context.Context) error, error) {
	log := logging.FromContext(ctx)
	listener, err := net.Listen("tcp", ms.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %q: %w", ms.addr, err)
	}
	ms.listener = listener

	httpServer := &http.Server{
		Handler:           ms.handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting metrics HTTP server", zap.String("addr", ms.Addr()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("Failed to serve metrics", zap.Error(err))
		}
		log.Info("Metrics server shutdown")
	}()
	return httpServer.Shutdown, nil
}
