package bulk

import (
	bulksvc "loadplan-backend/internal/application/bulk"
	"loadplan-backend/internal/interfaces/handlers/params"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/apperr"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers exposes the bulk orchestrator for every collection in Targets,
// keyed by the URL segment (cities, clients, demand, ...).
type Handlers struct {
	Targets   map[string]bulksvc.Target
	BatchSize int
}

type idsInput struct {
	IDs     []string `json:"ids" validate:"required,min=1,max=5000,dive,uuid"`
	Confirm bool     `json:"confirm"`
}

type deleteReply struct {
	State        bulksvc.State                    `json:"state"`
	Dependencies map[uuid.UUID]bulksvc.Dependency `json:"dependencies,omitempty"`
	*bulksvc.Result
}

func (h *Handlers) target(entity string) (bulksvc.Target, error) {
	t, ok := h.Targets[entity]
	if !ok {
		return nil, apperr.NotFound("Unknown collection " + entity)
	}
	return t, nil
}

func bindIDs(c *fiber.Ctx) (*idsInput, []uuid.UUID, error) {
	var in idsInput
	if err := params.Bind(c, &in); err != nil {
		return nil, nil, err
	}
	ids := make([]uuid.UUID, 0, len(in.IDs))
	for _, raw := range in.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, apperr.Validation("Invalid id " + raw)
		}
		ids = append(ids, id)
	}
	return &in, ids, nil
}

// CheckDependencies POST /api/v1/{entity}/check-dependencies-batch
func (h *Handlers) CheckDependencies(entity string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := h.target(entity)
		if err != nil {
			return response.FromError(c, err)
		}
		_, ids, err := bindIDs(c)
		if err != nil {
			return response.FromError(c, err)
		}
		deps, err := bulksvc.CheckDependenciesBatch(c.UserContext(), t, middleware.Actor(c).OrgID, ids)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Dependencies checked", deps, nil)
	}
}

// BulkDelete POST /api/v1/{entity}/bulk-delete
//
// Without confirm, ids that are still referenced suspend the job and the
// dependency map is returned so the caller can ask the user and retry.
func (h *Handlers) BulkDelete(entity string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := h.target(entity)
		if err != nil {
			return response.FromError(c, err)
		}
		in, ids, err := bindIDs(c)
		if err != nil {
			return response.FromError(c, err)
		}

		ctx := c.UserContext()
		job := bulksvc.NewJob(t, middleware.Actor(c), ids, h.BatchSize)
		deps, err := job.Check(ctx)
		if err != nil {
			return response.FromError(c, err)
		}
		if job.State() == bulksvc.StateAwaitingConfirmation {
			if !in.Confirm {
				return response.Success(c, "Some items are still in use; confirm to continue",
					deleteReply{State: job.State(), Dependencies: deps}, nil)
			}
			if err := job.Confirm(); err != nil {
				return response.FromError(c, err)
			}
		}

		res, err := job.Run(ctx)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Bulk delete finished", deleteReply{State: job.State(), Result: res}, nil)
	}
}
