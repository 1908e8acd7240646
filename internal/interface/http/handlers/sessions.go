package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/service"
)

// SessionHandler serves the study session lifecycle and read routes.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type startSessionRequest struct {
	Duration int    `json:"duration" validate:"required,min=1,max=480"`
	Subject  string `json:"subject" validate:"max=200"`
	Task     string `json:"task" validate:"max=500"`
}

// Start opens a session for the authenticated user.
func (h *SessionHandler) Start(c *fiber.Ctx) error {
	var req startSessionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	sess, err := h.sessions.Start(c.Context(), service.StartInput{
		UserID:   authUserID(c),
		Duration: req.Duration,
		Subject:  req.Subject,
		Task:     req.Task,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session": toSessionDTO(sess),
	})
}

type completeSessionRequest struct {
	SessionID string     `json:"sessionId" validate:"required,uuid4"`
	EndTime   *time.Time `json:"endTime"`

	// Completed defaults to true; false records an abandon.
	Completed *bool `json:"completed"`
}

type completeSessionResponse struct {
	Session  sessionDTO `json:"session"`
	XPEarned int        `json:"xpEarned"`
	TotalXP  int        `json:"totalXP"`
	LevelUp  bool       `json:"levelUp"`
	NewLevel int        `json:"newLevel"`

	UnlockedAchievements []achievementDTO `json:"unlockedAchievements,omitempty"`
}

// Complete settles the authenticated user's session.
func (h *SessionHandler) Complete(c *fiber.Ctx) error {
	var req completeSessionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	in := service.CompleteInput{
		SessionID: req.SessionID,
		UserID:    authUserID(c),
		Completed: true,
	}
	if req.EndTime != nil {
		in.EndTime = *req.EndTime
	}
	if req.Completed != nil {
		in.Completed = *req.Completed
	}

	res, err := h.sessions.Complete(c.Context(), in)
	if err != nil {
		return err
	}

	resp := completeSessionResponse{
		Session:  toSessionDTO(res.Session),
		XPEarned: res.XPEarned,
		TotalXP:  res.TotalXP,
		LevelUp:  res.LevelUp,
		NewLevel: res.NewLevel,
	}
	for _, ua := range res.Unlocked {
		d := toAchievementDTO(ua.Achievement)
		at := ua.UnlockedAt
		d.UnlockedAt = &at
		resp.UnlockedAchievements = append(resp.UnlockedAchievements, d)
	}

	return c.JSON(resp)
}

// Active returns the user's open session, or a null session when idle.
func (h *SessionHandler) Active(c *fiber.Ctx) error {
	active, err := h.sessions.Active(c.Context(), authUserID(c))
	if err != nil {
		return err
	}
	if active == nil {
		return c.JSON(fiber.Map{"session": nil})
	}

	return c.JSON(fiber.Map{
		"session":          toSessionDTO(active.Session),
		"elapsedMinutes":   active.ElapsedMinutes,
		"remainingMinutes": active.RemainingMinutes,
	})
}

// History returns a page of the user's past sessions, newest first.
// Filters: completed, subject, from, to (RFC 3339), page, limit.
func (h *SessionHandler) History(c *fiber.Ctx) error {
	filter := session.HistoryFilter{
		Subject: c.Query("subject"),
		Page:    c.QueryInt("page", 1),
		Limit:   c.QueryInt("limit", 20),
	}

	if raw := c.Query("completed"); raw != "" {
		completed := raw == "true" || raw == "1"
		filter.Completed = &completed
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid from timestamp")
		}
		filter.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid to timestamp")
		}
		filter.To = t
	}

	sessions, total, err := h.sessions.History(c.Context(), authUserID(c), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"sessions": toSessionDTOs(sessions),
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

// Analytics returns the user's study breakdown for the requested period
// (day, week, or month; month when omitted).
func (h *SessionHandler) Analytics(c *fiber.Ctx) error {
	analytics, err := h.sessions.Analytics(c.Context(), authUserID(c), c.Query("period", "month"))
	if err != nil {
		return err
	}
	return c.JSON(analytics)
}
