package execution

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/0xsequence/ethkit/ethrpc"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/execution-simulator/pkg/common"
	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution/services"
)

// headerTransport adds custom headers to requests and respects context cancellation
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	if req.Context().Err() != nil {
		return nil, req.Context().Err()
	}

	return t.base.RoundTrip(req)
}

// Node is the production Client implementation over a JSON-RPC provider.
type Node struct {
	config *Config
	log    logrus.FieldLogger
	rpc    *ethrpc.Provider

	services []services.Service

	onReadyCallbacks []func(ctx context.Context) error

	mu     sync.RWMutex
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

var _ Client = (*Node)(nil)

func NewNode(log logrus.FieldLogger, conf *Config) *Node {
	return &Node{
		config:   conf,
		log:      log.WithFields(logrus.Fields{"type": "execution", "source": conf.Name}),
		services: []services.Service{},
	}
}

func (n *Node) OnReady(_ context.Context, callback func(ctx context.Context) error) {
	n.onReadyCallbacks = append(n.onReadyCallbacks, callback)
}

func (n *Node) Start(ctx context.Context) error {
	n.log.Info("Starting execution node")

	nodeCtx, cancel := context.WithCancel(ctx)

	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()

	// No client-level timeout, the per-request context controls it
	httpClient := http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 0,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}

	httpClient.Transport = &headerTransport{
		headers: n.config.NodeHeaders,
		base:    httpClient.Transport,
	}

	rpc, err := ethrpc.NewProvider(n.config.NodeAddress, ethrpc.WithHTTPClient(&httpClient))
	if err != nil {
		n.log.WithError(err).Error("Failed to create RPC provider")

		return fmt.Errorf("failed to create RPC provider: %w", err)
	}

	metadata := services.NewMetadataService(n.log, rpc)

	n.rpc = rpc
	n.services = []services.Service{&metadata}

	errs := make(chan error, 1)

	go func() {
		wg := sync.WaitGroup{}

		for _, service := range n.services {
			serviceName := service.Name()

			wg.Add(1)

			readyCtx, readyCancel := context.WithTimeout(context.Background(), 30*time.Second)

			service.OnReady(readyCtx, func(_ context.Context) error {
				n.log.WithField("service", serviceName).Info("Service is ready")

				wg.Done()

				return nil
			})

			n.log.WithField("service", serviceName).Info("Starting service")

			n.wg.Add(1)

			go func() {
				defer n.wg.Done()

				if err := service.Start(nodeCtx); err != nil {
					if nodeCtx.Err() == nil {
						n.log.WithError(err).WithField("service", serviceName).
							Error("Failed to start service")

						errs <- fmt.Errorf("failed to start service %s: %w", serviceName, err)
					}
				}
			}()

			wg.Wait()

			readyCancel()
		}

		n.log.WithFields(logrus.Fields{
			"client_type": n.Metadata().Client(ctx),
			"chain_id":    n.Metadata().ChainID(),
		}).Info("All services are ready")

		common.NodeHealthy.WithLabelValues(n.config.Name).Set(1)
		common.NodeChainID.WithLabelValues(n.config.Name).Set(float64(n.Metadata().ChainID()))

		for _, callback := range n.onReadyCallbacks {
			callbackCtx, callbackCancel := context.WithTimeout(context.Background(), 10*time.Second)

			if err := callback(callbackCtx); err != nil {
				n.log.WithError(err).Error("Failed to run on ready callback")

				errs <- fmt.Errorf("failed to run on ready callback: %w", err)
			}

			callbackCancel()
		}

		n.log.Info("Node initialization completed")
	}()

	return nil
}

func (n *Node) Stop(ctx context.Context) error {
	n.log.Info("Stopping execution node")

	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.log.Info("All node goroutines stopped gracefully")
	case <-ctx.Done():
		n.log.Warn("Timeout waiting for node goroutines to stop")
	}

	for _, service := range n.services {
		if err := service.Stop(ctx); err != nil {
			n.log.WithError(err).WithField("service", service.Name()).Error("Failed to stop service")
		}
	}

	common.NodeHealthy.WithLabelValues(n.config.Name).Set(0)

	return nil
}

func (n *Node) getServiceByName(name services.Name) (services.Service, error) {
	for _, service := range n.services {
		if service.Name() == name {
			return service, nil
		}
	}

	return nil, errors.New("service not found")
}

func (n *Node) Metadata() *services.MetadataService {
	service, err := n.getServiceByName("metadata")
	if err != nil {
		// This should never happen. If it does, good luck.
		return nil
	}

	svc, ok := service.(*services.MetadataService)
	if !ok {
		return nil
	}

	return svc
}

func (n *Node) Name() string {
	return n.config.Name
}
