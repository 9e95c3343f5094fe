package catalog

import (
	"context"
	"sync"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/observability/metrics"
	"github.com/wolfman30/ayurdiet-portal/internal/sequencer"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// PlanGateway lists plans and changes their status.
type PlanGateway interface {
	ListDietPlans(ctx context.Context) ([]PlanRecord, error)
	SetDietPlanStatus(ctx context.Context, planID string, status PlanStatus) error
}

// Reconcile outcomes of a status change.
const (
	OutcomeConfirmed  = "confirmed"  // change accepted and re-fetched
	OutcomeUnverified = "unverified" // change accepted, re-fetch failed; optimistic value kept
	OutcomeRestored   = "restored"   // change refused, re-fetch restored server truth
	OutcomeReverted   = "reverted"   // change refused and re-fetch failed; pre-change value put back
)

// StatusChange reports where a plan ended up after SetStatus.
type StatusChange struct {
	Plan     PlanRecord `json:"plan"`
	Previous PlanStatus `json:"previousStatus"`
	Outcome  string     `json:"outcome"`
}

// PlanBoard is the shared diet plan list. Status changes are applied
// optimistically, sent, then overwritten by an awaited re-fetch. Changes to
// one plan run one at a time and a snapshot older than the one already
// applied is dropped.
type PlanBoard struct {
	gw      PlanGateway
	locks   *sequencer.Keyed
	logger  *logging.Logger
	metrics *metrics.PortalMetrics

	mu      sync.Mutex
	rows    []PlanRecord
	next    uint64
	applied uint64
}

func NewPlanBoard(gw PlanGateway, locks *sequencer.Keyed, logger *logging.Logger, m *metrics.PortalMetrics) *PlanBoard {
	if locks == nil {
		locks = sequencer.NewKeyed()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PlanBoard{gw: gw, locks: locks, logger: logger, metrics: m}
}

// Refresh fetches the full list and applies it unless a newer snapshot landed first.
func (b *PlanBoard) Refresh(ctx context.Context) ([]PlanRecord, error) {
	seq := b.ticket()
	rows, err := b.gw.ListDietPlans(ctx)
	if err != nil {
		b.logger.Error("failed to list diet plans", "error", err)
		return nil, err
	}
	b.apply(seq, rows)
	return b.Rows(), nil
}

// Rows returns a copy of the board.
func (b *PlanBoard) Rows() []PlanRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PlanRecord, len(b.rows))
	copy(out, b.rows)
	return out
}

// SetStatus changes one plan's status. The returned error is the refused
// change; the board has already been reconciled or reverted when it is non-nil.
func (b *PlanBoard) SetStatus(ctx context.Context, planID string, status PlanStatus) (*StatusChange, error) {
	status = status.Normalize()
	if !status.Settable() {
		return nil, apperr.Validation("set plan status", "Status must be active, completed or cancelled.")
	}
	unlock, err := b.locks.Lock(ctx, "plan:"+planID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	previous, ok := b.status(planID)
	if !ok {
		if _, err := b.Refresh(ctx); err != nil {
			return nil, err
		}
		if previous, ok = b.status(planID); !ok {
			return nil, apperr.New(apperr.ErrNotFound, "set plan status", "Diet plan not found.")
		}
	}

	b.setStatus(planID, status)
	change := &StatusChange{Previous: previous}

	putErr := b.gw.SetDietPlanStatus(ctx, planID, status)
	if putErr != nil {
		b.logger.Error("failed to update diet plan status", "error", putErr, "plan_id", planID, "status", status)
	}

	_, fetchErr := b.Refresh(ctx)
	switch {
	case putErr == nil && fetchErr == nil:
		change.Outcome = OutcomeConfirmed
	case putErr == nil:
		change.Outcome = OutcomeUnverified
	case fetchErr == nil:
		change.Outcome = OutcomeRestored
	default:
		b.setStatus(planID, previous)
		change.Outcome = OutcomeReverted
	}
	b.metrics.ObservePlanReconcile(change.Outcome)

	if row, ok := b.row(planID); ok {
		change.Plan = row
	}
	return change, putErr
}

func (b *PlanBoard) ticket() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	return b.next
}

func (b *PlanBoard) apply(seq uint64, rows []PlanRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq < b.applied {
		return
	}
	b.applied = seq
	b.rows = append([]PlanRecord(nil), rows...)
}

func (b *PlanBoard) row(planID string) (PlanRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.rows {
		if r.ID == planID {
			return r, true
		}
	}
	return PlanRecord{}, false
}

func (b *PlanBoard) status(planID string) (PlanStatus, bool) {
	r, ok := b.row(planID)
	return r.Status, ok
}

func (b *PlanBoard) setStatus(planID string, status PlanStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.rows {
		if b.rows[i].ID == planID {
			b.rows[i].Status = status
			return
		}
	}
}
