package catalog

import (
	catsvc "loadplan-backend/internal/application/catalog"
	"loadplan-backend/internal/interfaces/handlers/params"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the master-data collections. The collection is taken from
// the route, so one set of handlers covers every kind.
type Handlers struct {
	Service *catsvc.Service
}

// Create POST /api/v1/{kind}
func (h *Handlers) Create(kind catsvc.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := middleware.Actor(c)
		ctx := c.UserContext()
		var (
			row interface{}
			err error
		)
		switch kind {
		case catsvc.KindCities:
			var in catsvc.CityInput
			if err = params.Bind(c, &in); err == nil {
				row, err = h.Service.CreateCity(ctx, actor, in)
			}
		case catsvc.KindClients, catsvc.KindSuppliers:
			var in catsvc.PartyInput
			if err = params.Bind(c, &in); err == nil {
				row, err = h.Service.CreateParty(ctx, actor, kind, in)
			}
		case catsvc.KindTruckTypes:
			var in catsvc.NameInput
			if err = params.Bind(c, &in); err == nil {
				row, err = h.Service.CreateTruckType(ctx, actor, in)
			}
		case catsvc.KindDemandCategories:
			var in catsvc.NameInput
			if err = params.Bind(c, &in); err == nil {
				row, err = h.Service.CreateDemandCategory(ctx, actor, in)
			}
		}
		if err != nil {
			return response.FromError(c, err)
		}
		return response.SuccessCreated(c, "Created successfully", row, nil)
	}
}

// List GET /api/v1/{kind}?includeInactive=true
func (h *Handlers) List(kind catsvc.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := middleware.Actor(c).OrgID
		ctx := c.UserContext()
		all := c.QueryBool("includeInactive", false)
		var (
			rows interface{}
			err  error
		)
		switch kind {
		case catsvc.KindCities:
			rows, err = h.Service.ListCities(ctx, orgID, all)
		case catsvc.KindClients, catsvc.KindSuppliers:
			rows, err = h.Service.ListParties(ctx, orgID, kind, all)
		case catsvc.KindTruckTypes:
			rows, err = h.Service.ListTruckTypes(ctx, orgID, all)
		case catsvc.KindDemandCategories:
			rows, err = h.Service.ListDemandCategories(ctx, orgID, all)
		}
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Fetched successfully", rows, nil)
	}
}

// Deactivate PATCH /api/v1/{kind}/:id/deactivate
func (h *Handlers) Deactivate(kind catsvc.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := params.ID(c, "id")
		if err != nil {
			return response.FromError(c, err)
		}
		if err := h.Service.Deactivate(c.UserContext(), middleware.Actor(c), kind, id); err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Deactivated successfully", fiber.Map{"id": id, "isActive": false}, nil)
	}
}
