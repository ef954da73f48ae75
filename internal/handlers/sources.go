package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// SourcesHandler exposes the source catalog (read only; the catalog is
// loaded from file at startup).
type SourcesHandler struct {
	Registry *registry.Registry
}

func NewSourcesHandler(reg *registry.Registry) *SourcesHandler {
	return &SourcesHandler{Registry: reg}
}

// SourceDTO is the wire shape of one catalog entry.
type SourceDTO struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Tier       string `json:"tier"`
	Region     string `json:"region"`
	RegionCode string `json:"region_code,omitempty"`
	URL        string `json:"url"`
	Active     bool   `json:"active"`
}

// List handles GET /api/v1/sources. Optional filters: ?tier= and ?region=.
func (h *SourcesHandler) List(c *fiber.Ctx) error {
	filter := registry.Filter{Region: c.Query("region")}
	if tierStr := c.Query("tier"); tierStr != "" {
		tier, err := registry.ParseTier(tierStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		filter.Tier = tier
	}

	sources := h.Registry.List(filter)
	dtos := make([]SourceDTO, 0, len(sources))
	for _, src := range sources {
		dtos = append(dtos, SourceDTO{
			Slug:       src.Slug,
			Name:       src.Name,
			Tier:       string(src.Tier),
			Region:     src.Region,
			RegionCode: src.RegionCode,
			URL:        src.URL,
			Active:     src.IsActive,
		})
	}
	return c.JSON(fiber.Map{"sources": dtos})
}

// Regions handles GET /api/v1/sources/regions.
func (h *SourcesHandler) Regions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"regions": h.Registry.Regions()})
}
