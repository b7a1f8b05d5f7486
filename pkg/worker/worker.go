package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

type Store interface {
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
}

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// PendingDigest periodically reminds staff of requests left undecided for too long.
type PendingDigest struct {
	log          *logrus.Entry
	store        Store
	notifier     Notifier
	interval     time.Duration
	pendingAfter time.Duration
	now          func() time.Time
}

func New(log *logrus.Logger, store Store, notifier Notifier, interval, pendingAfter time.Duration) *PendingDigest {
	return &PendingDigest{
		log:          log.WithField("component", "worker"),
		store:        store,
		notifier:     notifier,
		interval:     interval,
		pendingAfter: pendingAfter,
		now:          time.Now,
	}
}

// Run sends a digest every interval until ctx is done. It returns immediately
// when the interval is not positive.
func (w *PendingDigest) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info("pending digest disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				w.log.Warnf("pending digest failed: %v", err)
			}
		}
	}
}

// Tick sends one digest if any request has been pending longer than pendingAfter.
func (w *PendingDigest) Tick(ctx context.Context) error {
	cutoff := w.now().Add(-w.pendingAfter)
	reqs, err := w.store.ListRequests(ctx, models.RequestFilter{
		Status:        models.StatusPendiente,
		CreatedBefore: cutoff,
	})
	if err != nil {
		return fmt.Errorf("err listing stale requests: %w", err)
	}
	if len(reqs) == 0 {
		return nil
	}
	if err = w.notifier.Notify(ctx, digest(reqs, w.pendingAfter)); err != nil {
		return fmt.Errorf("err sending digest: %w", err)
	}
	w.log.Infof("digest sent for %d pending requests", len(reqs))
	return nil
}

func digest(reqs []models.Request, after time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d solicitudes llevan más de %s sin decisión:", len(reqs), after)
	for _, req := range reqs {
		fmt.Fprintf(&b, "\n- %s %s (%s, creada %s)", req.Kind, req.Resource(), req.ID, req.CreatedAt.UTC().Format(time.DateTime))
	}
	return b.String()
}
