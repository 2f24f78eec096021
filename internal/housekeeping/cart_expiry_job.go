package housekeeping

import (
	"context"
	"fmt"

	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/metrics"
)

const cartExpiryJobName = "cart-expiry-sweep"

type expiredSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CartExpiryJob deletes saved carts whose TTL has passed. Redis expires keys
// on its own; this is only needed for the database backend.
type CartExpiryJob struct {
	logg    *logger.Logger
	store   expiredSweeper
	metrics *metrics.Jobs
}

func NewCartExpiryJob(logg *logger.Logger, store expiredSweeper, m *metrics.Jobs) (*CartExpiryJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	return &CartExpiryJob{logg: logg, store: store, metrics: m}, nil
}

func (j *CartExpiryJob) Name() string { return cartExpiryJobName }

func (j *CartExpiryJob) Run(ctx context.Context) error {
	deleted, err := j.store.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired carts: %w", err)
	}
	j.metrics.AddRemoved(cartExpiryJobName, deleted)
	j.logg.Info(j.logg.WithField(ctx, "rows_deleted", deleted), "expired carts swept")
	return nil
}
