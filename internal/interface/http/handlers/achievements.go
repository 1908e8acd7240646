package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/focusarena/focusarena/internal/domain/achievement"
	"github.com/focusarena/focusarena/internal/service"
)

// AchievementHandler serves the achievement catalog and unlock routes.
type AchievementHandler struct {
	achievements *service.AchievementService
}

// NewAchievementHandler creates an AchievementHandler.
func NewAchievementHandler(achievements *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

// List returns the full catalog.
func (h *AchievementHandler) List(c *fiber.Ctx) error {
	catalog, err := h.achievements.Catalog(c.Context())
	if err != nil {
		return err
	}

	out := make([]achievementDTO, 0, len(catalog))
	for _, a := range catalog {
		out = append(out, toAchievementDTO(a))
	}

	return c.JSON(fiber.Map{"achievements": out})
}

// Mine returns the authenticated user's unlocked achievements plus
// catalog progress.
func (h *AchievementHandler) Mine(c *fiber.Ctx) error {
	unlocked, progress, err := h.achievements.ForUser(c.Context(), authUserID(c))
	if err != nil {
		return err
	}

	out := make([]achievementDTO, 0, len(unlocked))
	for _, u := range unlocked {
		out = append(out, toUnlockedDTO(u))
	}

	return c.JSON(fiber.Map{
		"achievements": out,
		"progress":     progress,
	})
}

// Check evaluates unlock conditions for a user and returns the newly
// unlocked achievements.
func (h *AchievementHandler) Check(c *fiber.Ctx) error {
	userID := c.Params("userId")

	unlocked, err := h.achievements.CheckAndUnlock(c.Context(), userID)
	if err != nil {
		return err
	}

	out := make([]achievementDTO, 0, len(unlocked))
	for _, ua := range unlocked {
		d := toAchievementDTO(ua.Achievement)
		at := ua.UnlockedAt
		d.UnlockedAt = &at
		out = append(out, d)
	}

	return c.JSON(fiber.Map{"unlocked": out})
}

type createAchievementRequest struct {
	Name        string                `json:"name" validate:"required,min=1,max=100"`
	Description string                `json:"description" validate:"max=500"`
	Icon        string                `json:"icon" validate:"max=200"`
	XPReward    int                   `json:"xpReward" validate:"min=0,max=1000"`
	Condition   achievement.Condition `json:"condition"`
}

// Create adds an achievement to the catalog.
func (h *AchievementHandler) Create(c *fiber.Ctx) error {
	var req createAchievementRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	a, err := h.achievements.Create(c.Context(), service.CreateAchievementInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		XPReward:    req.XPReward,
		Condition:   req.Condition,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"achievement": toAchievementDTO(a)})
}
