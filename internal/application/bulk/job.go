package bulk

import (
	"context"
	"errors"
	"sync"
	"time"

	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultBatchSize is used when a job is created without one.
const DefaultBatchSize = 100

// State is a bulk job's position in Checking → AwaitingConfirmation → Deleting → Done.
type State string

const (
	StateChecking             State = "CHECKING"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateDeleting             State = "DELETING"
	StateDone                 State = "DONE"
	StateCancelled            State = "CANCELLED"
)

var (
	ErrConfirmationRequired = apperr.New(apperr.CodeValidation, "Some items are still in use; confirm to continue", nil)
	ErrJobFinished          = apperr.New(apperr.CodeValidation, "Bulk operation already finished", nil)
)

// Target is a collection that supports batched dependency checks and deletes.
type Target interface {
	// CheckDependencies returns active reference counts; ids without references may be omitted.
	CheckDependencies(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int64, error)
	// DeleteBatch deletes or deactivates ids atomically and returns how many rows changed.
	DeleteBatch(ctx context.Context, actor tenancy.Actor, ids []uuid.UUID) (int, error)
}

type Dependency struct {
	HasActiveDependencies bool  `json:"hasActiveDependencies"`
	Count                 int64 `json:"count"`
}

// Progress is reported after every batch. EstimatedTimeRemaining is in seconds.
type Progress struct {
	Completed              int     `json:"completed"`
	Total                  int     `json:"total"`
	EstimatedTimeRemaining float64 `json:"estimatedTimeRemaining"`
}

type ProgressFunc func(Progress)

type BatchError struct {
	Batch   int         `json:"batch"`
	IDs     []uuid.UUID `json:"ids"`
	Message string      `json:"message"`
}

// Result reports partial success: Deleted + Skipped always equals the number of ids.
type Result struct {
	Deleted  int          `json:"deleted"`
	Skipped  int          `json:"skipped"`
	Errors   []BatchError `json:"errors"`
	Progress []Progress   `json:"progress"`
}

// CheckDependenciesBatch returns an entry for every id, including ids with no references.
func CheckDependenciesBatch(ctx context.Context, t Target, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Dependency, error) {
	counts, err := t.CheckDependencies(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Dependency, len(ids))
	for _, id := range ids {
		n := counts[id]
		out[id] = Dependency{HasActiveDependencies: n > 0, Count: n}
	}
	return out, nil
}

// Job holds the state of one bulk delete. Confirmation is an explicit step
// between Check and Run rather than a callback.
type Job struct {
	Target     Target
	Actor      tenancy.Actor
	IDs        []uuid.UUID
	BatchSize  int
	OnProgress ProgressFunc

	mu        sync.Mutex
	state     State
	checked   bool
	confirmed bool
	deps      map[uuid.UUID]Dependency
	now       func() time.Time
}

func NewJob(t Target, actor tenancy.Actor, ids []uuid.UUID, batchSize int) *Job {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Job{
		Target:    t,
		Actor:     actor,
		IDs:       dedupe(ids),
		BatchSize: batchSize,
		state:     StateChecking,
		now:       time.Now,
	}
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Dependencies returns the result of the last Check.
func (j *Job) Dependencies() map[uuid.UUID]Dependency {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.deps
}

// Check computes dependencies. If any id is still referenced the job suspends
// in AwaitingConfirmation until Confirm or Cancel.
func (j *Job) Check(ctx context.Context) (map[uuid.UUID]Dependency, error) {
	j.mu.Lock()
	if j.state != StateChecking {
		j.mu.Unlock()
		return nil, ErrJobFinished
	}
	j.mu.Unlock()

	deps, err := CheckDependenciesBatch(ctx, j.Target, j.Actor.OrgID, j.IDs)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.deps = deps
	j.checked = true
	for _, d := range deps {
		if d.HasActiveDependencies {
			j.state = StateAwaitingConfirmation
			break
		}
	}
	return deps, nil
}

// Confirm releases a job suspended in AwaitingConfirmation.
func (j *Job) Confirm() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.state {
	case StateAwaitingConfirmation, StateChecking:
		j.confirmed = true
		return nil
	}
	return ErrJobFinished
}

// Cancel stops a job that has not started deleting.
func (j *Job) Cancel() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.state {
	case StateChecking, StateAwaitingConfirmation:
		j.state = StateCancelled
		return nil
	}
	return ErrJobFinished
}

// Run deletes ids in fixed-size batches. A failing batch is recorded and
// skipped; the remaining batches still run. Each batch commits on its own so a
// cancelled context leaves earlier batches applied and later ones untouched.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	if !j.isChecked() {
		if _, err := j.Check(ctx); err != nil {
			return nil, err
		}
	}

	j.mu.Lock()
	switch {
	case j.state == StateCancelled || j.state == StateDone || j.state == StateDeleting:
		j.mu.Unlock()
		return nil, ErrJobFinished
	case j.state == StateAwaitingConfirmation && !j.confirmed:
		j.mu.Unlock()
		return nil, ErrConfirmationRequired
	}
	j.state = StateDeleting
	j.mu.Unlock()

	res := &Result{Errors: []BatchError{}, Progress: []Progress{}}
	total := len(j.IDs)
	start := j.now()
	completed := 0

	for i, batchNo := 0, 1; i < total; i, batchNo = i+j.BatchSize, batchNo+1 {
		end := i + j.BatchSize
		if end > total {
			end = total
		}
		batch := j.IDs[i:end]

		if err := ctx.Err(); err != nil {
			res.Skipped += total - i
			res.Errors = append(res.Errors, BatchError{Batch: batchNo, IDs: j.IDs[i:], Message: err.Error()})
			break
		}

		n, err := j.Target.DeleteBatch(ctx, j.Actor, batch)
		if err != nil {
			res.Skipped += len(batch)
			res.Errors = append(res.Errors, BatchError{Batch: batchNo, IDs: batch, Message: batchMessage(err)})
			log.Warn().Err(err).Str("org_id", j.Actor.OrgID.String()).Int("batch", batchNo).Msg("bulk batch failed")
		} else {
			res.Deleted += n
			res.Skipped += len(batch) - n
		}
		completed = end

		p := Progress{Completed: completed, Total: total, EstimatedTimeRemaining: eta(j.now().Sub(start), completed, total)}
		res.Progress = append(res.Progress, p)
		if j.OnProgress != nil {
			j.OnProgress(p)
		}
		log.Info().Str("org_id", j.Actor.OrgID.String()).Int("completed", p.Completed).Int("total", p.Total).
			Float64("eta_seconds", p.EstimatedTimeRemaining).Msg("bulk batch processed")
	}

	j.mu.Lock()
	j.state = StateDone
	j.mu.Unlock()
	return res, nil
}

func (j *Job) isChecked() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.checked
}

// eta extrapolates the remaining time from the observed rate.
func eta(elapsed time.Duration, completed, total int) float64 {
	if completed <= 0 || completed >= total {
		return 0
	}
	perItem := elapsed.Seconds() / float64(completed)
	return perItem * float64(total-completed)
}

func batchMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Code != apperr.CodeInternal {
		return e.Message
	}
	return err.Error()
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
