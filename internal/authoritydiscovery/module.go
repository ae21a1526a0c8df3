package authoritydiscovery

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/authority-discovery/pkg/log"
)

var moduleLog = log.Logger("authoritydiscovery.module")

// Module is the Fx module: it provides a *Worker wired from its
// collaborators and registers the lifecycle hooks that start and stop
// the Worker Loop alongside the host application.
var Module = fx.Module("authoritydiscovery",
	fx.Provide(NewWorkerFromParams),
	fx.Invoke(registerWorkerLifecycle),
)

// Params lists the Fx-managed dependencies a Worker needs. Registry is
// optional: a nil value makes newMetrics fall back to a private
// registry, which is the right default for a host application that
// doesn't expose its own Prometheus endpoint.
type Params struct {
	fx.In

	Config   *Config
	Network  NetworkProvider
	Keys     KeySource
	Runtime  RuntimeAPI
	Events   <-chan DHTEvent
	Registry prometheus.Registerer `optional:"true"`
}

// NewWorkerFromParams builds the Worker from Fx-injected dependencies,
// using the real wall clock.
func NewWorkerFromParams(p Params) (*Worker, error) {
	cfg := p.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWorker(cfg, p.Network, p.Keys, p.Runtime, p.Events, p.Registry, clock.New()), nil
}

func registerWorkerLifecycle(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			moduleLog.Info("authority discovery worker starting")
			w.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			moduleLog.Info("authority discovery worker stopping")
			w.Stop()
			return nil
		},
	})
}
