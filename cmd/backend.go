package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/config"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/flags"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/pubsub"
	"github.com/zjrosen/agview/internal/store/sqlite"
	"github.com/zjrosen/agview/internal/tracing"
)

// busBuffer bounds how far the change bus may run ahead of a view.
const busBuffer = 64

// backend is the client stack every subcommand runs against: the REST API
// or the local store, traced, with confirmed mutations published on bus.
type backend struct {
	client api.Client
	bus    *pubsub.Broker[domain.Entity]
	tracer trace.Tracer
	db     *sqlite.DB // nil unless the local store is in use

	provider *tracing.Provider
}

func openBackend(c config.Config, fl *flags.Registry) (*backend, error) {
	provider, err := tracing.NewProvider(tracing.FromConfig(c.Tracing))
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}
	b := &backend{
		bus:      pubsub.NewOrderedBroker[domain.Entity](busBuffer),
		tracer:   provider.Tracer(),
		provider: provider,
	}

	var inner api.Client
	if fl.LocalStore() {
		db, err := sqlite.NewDB(c.Store.Path)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("opening local store: %w", err)
		}
		b.db = db
		inner = db.Backend()
		log.Info(log.CatDB, "Using local store", "path", c.Store.Path)
	} else {
		inner = api.NewHTTPClient(c.API.BaseURL,
			api.WithTimeout(c.API.Timeout),
			api.WithToken(c.API.Token),
		)
		log.Info(log.CatAPI, "Using autograder API", "base_url", c.API.BaseURL)
	}

	var traced api.Client = inner
	if provider.Enabled() {
		traced = api.NewTraced(inner, b.tracer)
	}
	b.client = api.NewNotifying(traced, b.bus)
	return b, nil
}

// Close stops the bus, closes the store and flushes traces.
func (b *backend) Close() error {
	b.bus.Close()
	var errs []error
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs = append(errs, b.provider.Shutdown(ctx))
	return errors.Join(errs...)
}
