// Package scopezfx integrates scopez into an Fx-based application. The
// module builds the recording backend from a Config, provides the Tracer
// and the capability interfaces for injection, and shuts the backend down
// with the application.
package scopezfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/zoobzio/scopez"
	"github.com/zoobzio/scopez/recording"
)

// Module is the Fx module for scopez.
//
// Dependencies required by this module:
//   - a scopezfx.Config instance in the dependency injection container
//   - a *zap.Logger instance for lifecycle logging
//
// Usage:
//
//	app := fx.New(
//	    scopezfx.Module,
//	    fx.Provide(zap.NewProduction),
//	    fx.Supply(scopezfx.DefaultConfig()),
//	    fx.Invoke(func(t *scopez.Tracer) {
//	        ctx, scope := t.StartScopedSpan(context.Background(), "startup")
//	        defer scope.Close()
//	        _ = ctx
//	    }),
//	)
var Module = fx.Module("scopez",
	fx.Provide(
		NewBackend, // Provides *recording.Factory and *recording.Collector
		NewTracer,  // Provides *scopez.Tracer
		// Also provide the capability interfaces
		fx.Annotate(
			func(f *recording.Factory) scopez.SpanFactory {
				if f == nil {
					return scopez.NoopSpanFactory()
				}
				return f
			},
			fx.As(new(scopez.SpanFactory)),
		),
		fx.Annotate(
			func(cfg Config) scopez.ContextSpanHandler {
				if !cfg.Enabled {
					return scopez.NoopContextSpanHandler()
				}
				return scopez.NewContextHandler()
			},
			fx.As(new(scopez.ContextSpanHandler)),
		),
	),
	fx.Invoke(RegisterLifecycle), // Registers the lifecycle hooks
)

// NewBackend builds the recording backend described by cfg. A disabled
// config returns nil backends; NewTracer then composes the no-op
// implementations, so the application is traced-but-discarding rather than
// broken.
func NewBackend(cfg Config, log *zap.Logger) (*recording.Factory, *recording.Collector, error) {
	cfg = cfg.withDefaults()
	if !cfg.Enabled {
		log.Info("tracing disabled, composing no-op backends")
		return nil, nil, nil
	}

	factory := recording.NewFactory()
	if cfg.Workers > 0 {
		if err := factory.EnableWorkerPool(cfg.Workers, cfg.QueueSize); err != nil {
			return nil, nil, err
		}
	}

	collector := recording.NewCollector(cfg.ServiceName, cfg.BufferSize)
	factory.AddCollector(cfg.ServiceName, collector)

	return factory, collector, nil
}

// NewTracer composes the Tracer from the recording backend, falling back
// to the no-op implementations when the backend is absent.
func NewTracer(factory *recording.Factory) *scopez.Tracer {
	if factory == nil {
		return scopez.New(nil, nil)
	}
	return scopez.New(scopez.NewContextHandler(), factory)
}

// RegisterLifecycle wires the backend into the application lifecycle: on
// start it installs the backends as the process-wide default, on stop it
// drains and closes them.
//
// This function is automatically invoked by Module and does not need to be
// called directly in application code.
func RegisterLifecycle(lc fx.Lifecycle, factory *recording.Factory, collector *recording.Collector, cfg Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scopez.SetLogger(log)
			if factory != nil {
				scopez.Configure(scopez.NewContextHandler(), factory)
			}
			log.Info("tracer started",
				zap.String("service", cfg.withDefaults().ServiceName),
				zap.Bool("enabled", cfg.Enabled),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			if factory != nil {
				log.Info("shutting down tracer")
				factory.Close()
			}
			if collector != nil {
				collector.Close()
			}
			return nil
		},
	})
}
