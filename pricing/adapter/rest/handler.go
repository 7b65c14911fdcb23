package rest

import (
	"errors"

	"github.com/AzielCF/az-pricing/pkg/connpool"
	pkgError "github.com/AzielCF/az-pricing/pkg/error"
	"github.com/AzielCF/az-pricing/pricing/application"
	"github.com/AzielCF/az-pricing/pricing/domain"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

// PricingHandler serves the supplier pricing tables over REST
type PricingHandler struct {
	service *application.PricingService
}

// NewPricingHandler creates a new handler instance
func NewPricingHandler(service *application.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// RegisterRoutes registers the pricing routes on the Fiber router
func (h *PricingHandler) RegisterRoutes(router fiber.Router) {
	tables := router.Group("/suppliers/:supplierId/pricing-tables")

	tables.Get("/", h.ListPricingTables)
	tables.Post("/", h.CreatePricingTable)
	tables.Get("/:id", h.GetPricingTable)
	tables.Patch("/:id", h.UpdatePricingTable)
	tables.Put("/:id", h.UpdatePricingTable)
	tables.Delete("/:id", h.DeletePricingTable)

	router.Get("/pricing/stats", h.GetStats)
}

// ListPricingTables lists all tables of a supplier
func (h *PricingHandler) ListPricingTables(c *fiber.Ctx) error {
	tables, err := h.service.List(c.UserContext(), supplierParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": tables, "count": len(tables)})
}

// GetPricingTable returns one table
func (h *PricingHandler) GetPricingTable(c *fiber.Ctx) error {
	table, err := h.service.Get(c.UserContext(), supplierParam(c), idParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(table)
}

// CreatePricingTable creates a table for the supplier in the path
func (h *PricingHandler) CreatePricingTable(c *fiber.Ctx) error {
	var req CreatePricingTableRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, pkgError.ValidationError("invalid request body"))
	}

	supplierID := supplierParam(c)
	if req.SupplierID != "" && req.SupplierID != supplierID {
		return respondError(c, pkgError.ValidationError("supplier_id in body does not match the path"))
	}

	table, err := h.service.Create(c.UserContext(), supplierID, req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(table)
}

// UpdatePricingTable applies a partial update
func (h *PricingHandler) UpdatePricingTable(c *fiber.Ctx) error {
	var req UpdatePricingTableRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, pkgError.ValidationError("invalid request body"))
	}

	table, err := h.service.Update(c.UserContext(), supplierParam(c), idParam(c), req.toPatch())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(table)
}

// DeletePricingTable removes a table
func (h *PricingHandler) DeletePricingTable(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), supplierParam(c), idParam(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetStats exposes cache and pool metrics
func (h *PricingHandler) GetStats(c *fiber.Ctx) error {
	stats := h.service.Stats()

	lookups := stats.CacheHits + stats.CacheMisses
	hitRatio := 0.0
	if lookups > 0 {
		hitRatio = float64(stats.CacheHits) / float64(lookups)
	}

	return c.JSON(fiber.Map{
		"cache": fiber.Map{
			"ttl":           stats.CacheTTL.String(),
			"hits":          stats.CacheHits,
			"misses":        stats.CacheMisses,
			"lookups":       humanize.Comma(lookups),
			"hit_ratio":     humanize.FtoaWithDigits(hitRatio*100, 2) + "%",
			"invalidations": stats.Invalidations,
		},
		"store_errors": stats.StoreErrors,
		"pool":         stats.Pool,
		"accesses":     stats.Accesses,
		"started":      humanize.Time(stats.StartedAt),
	})
}

// Route params point into fasthttp's reusable request buffer; ids outlive the
// request in the cache and the access monitor, so they are copied.
func supplierParam(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("supplierId"))
}

func idParam(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// toGenericError maps service errors to their API representation.
func toGenericError(err error) pkgError.GenericError {
	var generic pkgError.GenericError
	switch {
	case errors.As(err, &generic):
		return generic
	case errors.Is(err, domain.ErrPricingTableNotFound):
		return pkgError.NotFoundError(err.Error())
	case errors.Is(err, connpool.ErrAcquireTimeout):
		return pkgError.ServiceUnavailableError(err.Error())
	default:
		return pkgError.InternalServerError(err.Error())
	}
}

func respondError(c *fiber.Ctx, err error) error {
	gErr := toGenericError(err)
	if gErr.StatusCode() >= fiber.StatusInternalServerError {
		logrus.WithError(err).Errorf("[PRICING_API] %s %s failed", c.Method(), c.Path())
	}
	return c.Status(gErr.StatusCode()).JSON(fiber.Map{
		"code":  gErr.ErrCode(),
		"error": gErr.Error(),
	})
}
