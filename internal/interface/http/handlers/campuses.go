package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/focusarena/focusarena/internal/domain/campus"
	"github.com/focusarena/focusarena/internal/service"
)

// CampusHandler serves the university/campus reference data routes.
type CampusHandler struct {
	campuses *service.CampusService
}

// NewCampusHandler creates a CampusHandler.
func NewCampusHandler(campuses *service.CampusService) *CampusHandler {
	return &CampusHandler{campuses: campuses}
}

// List returns universities matching the optional q/country filters,
// paginated.
func (h *CampusHandler) List(c *fiber.Ctx) error {
	filter := campus.ListFilter{
		Query:   c.Query("q"),
		Country: c.Query("country"),
		Page:    c.QueryInt("page", 1),
		Limit:   c.QueryInt("limit", 50),
	}

	universities, err := h.campuses.ListUniversities(c.Context(), filter)
	if err != nil {
		return err
	}

	out := make([]universityDTO, 0, len(universities))
	for _, u := range universities {
		out = append(out, toUniversityDTO(u))
	}

	return c.JSON(fiber.Map{
		"universities": out,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

// Get returns a university with its campuses.
func (h *CampusHandler) Get(c *fiber.Ctx) error {
	u, err := h.campuses.GetUniversity(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"university": toUniversityDTO(u)})
}

type createUniversityRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Country string `json:"country" validate:"max=100"`
	City    string `json:"city" validate:"max=100"`
	LogoURL string `json:"logoUrl" validate:"omitempty,url"`
}

// Create adds a university.
func (h *CampusHandler) Create(c *fiber.Ctx) error {
	var req createUniversityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, err := h.campuses.CreateUniversity(c.Context(), service.CreateUniversityInput{
		Name:    req.Name,
		Country: req.Country,
		City:    req.City,
		LogoURL: req.LogoURL,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"university": toUniversityDTO(u)})
}

type createCampusRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=200"`
	Address   string  `json:"address" validate:"max=300"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

// CreateCampus adds a campus under the university in the path.
func (h *CampusHandler) CreateCampus(c *fiber.Ctx) error {
	var req createCampusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	created, err := h.campuses.CreateCampus(c.Context(), service.CreateCampusInput{
		UniversityID: c.Params("id"),
		Name:         req.Name,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"campus": toCampusDTO(created)})
}
