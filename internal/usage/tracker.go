package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/metrics"
)

// Tracker records completed actions against today's counter.
type Tracker interface {
	Track(ctx context.Context, userID uuid.UUID, action enums.UsageAction) error
}

type tracker struct {
	repo    Repository
	metrics *metrics.UsageMetrics
	now     func() time.Time
}

// NewTracker builds a Tracker. Clock may be nil.
func NewTracker(repo Repository, m *metrics.UsageMetrics, clock func() time.Time) (Tracker, error) {
	if repo == nil {
		return nil, fmt.Errorf("usage repo required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &tracker{repo: repo, metrics: m, now: clock}, nil
}

func (t *tracker) Track(ctx context.Context, userID uuid.UUID, action enums.UsageAction) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown usage action %q", action))
	}
	if err := t.repo.Increment(ctx, userID, action, Day(t.now()), 1); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "track usage")
	}
	t.metrics.IncTracked(string(action))
	return nil
}
