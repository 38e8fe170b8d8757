// Package worker runs the background jobs of the API process.
package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/admin"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// purgeOrder lists referencing records before the records they reference.
var purgeOrder = []string{admin.EntityVisit, admin.EntityPatient, admin.EntityDiagnosis, admin.EntityDoctor}

// PurgeWorker hard-deletes records that have stayed soft-deleted longer than the retention.
type PurgeWorker struct {
	admin     *admin.Service
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewPurgeWorker(adminSvc *admin.Service, retention, interval time.Duration, log *logger.Logger, m *metrics.Metrics) *PurgeWorker {
	return &PurgeWorker{
		admin:     adminSvc,
		retention: retention,
		interval:  interval,
		logger:    log.WithFields(map[string]interface{}{"worker": "purge"}),
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start runs a purge every interval until ctx is done.
func (w *PurgeWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("purge worker started", "retention", w.retention.String(), "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("purge worker stopped")
			return nil
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce purges every entity type and returns the number of rows removed.
// A failing entity is logged and does not stop the others.
func (w *PurgeWorker) RunOnce(ctx context.Context) int {
	ctx = model.WithActor(ctx, model.Actor{Subject: "system:purge", Role: model.RoleAdmin})
	cutoff := w.now().Add(-w.retention)

	total := 0
	for _, entity := range purgeOrder {
		start := time.Now()
		purged, err := w.admin.PurgeDeleted(ctx, entity, cutoff)
		w.metrics.DatabaseLatency.WithLabelValues("purge_" + entity).Observe(time.Since(start).Seconds())
		if err != nil {
			w.metrics.DatabaseOperations.WithLabelValues("purge_"+entity, "error").Inc()
			w.logger.Error(err, "failed to purge soft deleted records", "entity", entity)
			continue
		}
		w.metrics.DatabaseOperations.WithLabelValues("purge_"+entity, "success").Inc()
		total += purged
	}
	return total
}
