package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/focusarena/focusarena/internal/domain/leaderboard"
	"github.com/focusarena/focusarena/internal/service"
)

// LeaderboardHandler serves the ranked views.
type LeaderboardHandler struct {
	leaderboards *service.LeaderboardService
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(leaderboards *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboards: leaderboards}
}

func leaderboardRequest(c *fiber.Ctx, scope leaderboard.Scope) service.Request {
	return service.Request{
		Scope:        scope,
		Period:       c.Query("period"),
		UniversityID: c.Query("universityId"),
		Subject:      c.Query("subject"),
		ViewerID:     authUserID(c),
		Page:         c.QueryInt("page", 1),
		Limit:        c.QueryInt("limit", 25),
	}
}

// Get returns one page of the leaderboard for the scope in the path.
// Query: period (day/week/month/all), universityId, subject, page, limit.
func (h *LeaderboardHandler) Get(c *fiber.Ctx) error {
	scope := leaderboard.Scope(c.Params("scope"))

	page, err := h.leaderboards.Get(c.Context(), leaderboardRequest(c, scope))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

// Standing returns the caller's own rank. Scope defaults to global.
func (h *LeaderboardHandler) Standing(c *fiber.Ctx) error {
	scope := leaderboard.Scope(c.Query("scope", string(leaderboard.ScopeGlobal)))

	standing, err := h.leaderboards.Standing(c.Context(), leaderboardRequest(c, scope))
	if err != nil {
		return err
	}

	return c.JSON(standing)
}
