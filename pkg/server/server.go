package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	//nolint:gosec // only exposed if pprofAddr config is set
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/execution-simulator/pkg/api"
	"github.com/ethpandaops/execution-simulator/pkg/ethereum"
	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
	"github.com/ethpandaops/execution-simulator/pkg/simulate"
	"github.com/ethpandaops/execution-simulator/pkg/tracer"
)

type Server struct {
	log    logrus.FieldLogger
	config *Config

	node      *execution.Node
	simulator *simulate.Simulator
	tracer    *tracer.Tracer
	memory    *MemoryStatsCollector

	apiServer     *http.Server
	metricsServer *http.Server
	pprofServer   *http.Server
	healthServer  *http.Server
}

func NewServer(log logrus.FieldLogger, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	node := execution.NewNode(log.WithField("component", "ethereum"), config.Ethereum.Execution)

	simulator := simulate.NewSimulator(log.WithField("component", "simulator"), node, config.Simulator)
	traceService := tracer.NewTracer(log.WithField("component", "tracer"), node)

	return &Server{
		log:       log,
		config:    config,
		node:      node,
		simulator: simulator,
		tracer:    traceService,
		memory:    NewMemoryStatsCollector(log, config.MemoryMonitor),
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.startAPI(); err != nil && err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	g.Go(func() error {
		if err := s.startMetrics(); err != nil && err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	if s.config.PProfAddr != nil {
		g.Go(func() error {
			if err := s.startPProf(); err != nil && err != http.ErrServerClosed {
				return err
			}

			return nil
		})
	}

	if s.config.HealthCheckAddr != nil {
		g.Go(func() error {
			if err := s.startHealthCheck(); err != nil && err != http.ErrServerClosed {
				return err
			}

			return nil
		})
	}

	s.node.OnReady(ctx, func(_ context.Context) error {
		chainID := s.node.Metadata().ChainID()

		network := ethereum.NetworkName(chainID)
		if s.config.Ethereum.OverrideNetworkName != nil {
			network = *s.config.Ethereum.OverrideNetworkName
		}

		s.log.WithFields(logrus.Fields{
			"network":  network,
			"chain_id": chainID,
		}).Info("Execution node is ready")

		return nil
	})

	g.Go(func() error {
		return s.node.Start(ctx)
	})

	g.Go(func() error {
		return s.memory.Start(ctx)
	})

	// Wait for shutdown signal
	g.Go(func() error {
		<-ctx.Done()

		return s.stop(context.Background())
	})

	return g.Wait()
}

func (s *Server) stop(ctx context.Context) error {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("Starting graceful shutdown...")

	if s.apiServer != nil {
		if err := s.apiServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown API server")
		}
	}

	if s.node != nil {
		if err := s.node.Stop(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to stop execution node")
		}
	}

	if s.memory != nil {
		if err := s.memory.Stop(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to stop memory collector")
		}
	}

	if s.pprofServer != nil {
		if err := s.pprofServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown pprof server")
		}
	}

	if s.healthServer != nil {
		if err := s.healthServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown health server")
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown metrics server")
		}
	}

	s.log.Info("Server stopped gracefully")

	return nil
}

func (s *Server) startAPI() error {
	s.log.WithField("addr", s.config.APIAddr).Info("Starting API server")

	mux := http.NewServeMux()

	handler := api.NewHandler(s.log.WithField("component", "api"), s.simulator, s.tracer)
	handler.RegisterRoutes(mux)

	s.apiServer = &http.Server{
		Addr:              s.config.APIAddr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}

	return s.apiServer.ListenAndServe()
}

func (s *Server) startMetrics() error {
	s.log.WithField("addr", s.config.MetricsAddr).Info("Starting metrics server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsServer = &http.Server{
		Addr:              s.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 120 * time.Second,
	}

	return s.metricsServer.ListenAndServe()
}

func (s *Server) startPProf() error {
	s.log.WithField("addr", *s.config.PProfAddr).Info("Starting pprof server")

	s.pprofServer = &http.Server{
		Addr:              *s.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	return s.pprofServer.ListenAndServe()
}

func (s *Server) startHealthCheck() error {
	s.log.WithField("addr", *s.config.HealthCheckAddr).Info("Starting healthcheck server")

	s.healthServer = &http.Server{
		Addr:              *s.config.HealthCheckAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	s.healthServer.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return s.healthServer.ListenAndServe()
}
