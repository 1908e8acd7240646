package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/focusarena/focusarena/internal/service"
)

// UserHandler serves profile routes.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func profileResponse(c *fiber.Ctx, p *service.Profile, own bool) error {
	var u userDTO
	if own {
		u = toOwnUserDTO(p.User)
	} else {
		u = toPublicUserDTO(p.User)
	}

	resp := fiber.Map{
		"user":              u,
		"completedSessions": p.CompletedSessions,
	}
	if p.University != nil {
		resp["university"] = toUniversityDTO(p.University)
	}

	return c.JSON(resp)
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	p, err := h.users.Get(c.Context(), authUserID(c))
	if err != nil {
		return err
	}
	return profileResponse(c, p, true)
}

// Get returns another user's public profile.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	p, err := h.users.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return profileResponse(c, p, c.Params("id") == authUserID(c))
}

type updateProfileRequest struct {
	Name        *string        `json:"name" validate:"omitempty,min=2,max=100"`
	AvatarURL   *string        `json:"avatarUrl" validate:"omitempty,max=500"`
	Preferences map[string]any `json:"preferences"`
}

// Update applies a partial profile update to the caller.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, err := h.users.UpdateProfile(c.Context(), authUserID(c), service.UpdateProfileInput{
		Name:        req.Name,
		AvatarURL:   req.AvatarURL,
		Preferences: req.Preferences,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": toOwnUserDTO(u)})
}

type joinUniversityRequest struct {
	UniversityID string `json:"universityId" validate:"required,uuid4"`
}

// JoinUniversity sets the caller's campus affiliation.
func (h *UserHandler) JoinUniversity(c *fiber.Ctx) error {
	var req joinUniversityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, err := h.users.JoinUniversity(c.Context(), authUserID(c), req.UniversityID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": toOwnUserDTO(u)})
}

type searchResultDTO struct {
	User             userDTO `json:"user"`
	FriendshipStatus string  `json:"friendshipStatus"`
}

// Search finds users by name or email fragment. Query: q, limit. Each
// hit carries the caller's friendship status toward it.
func (h *UserHandler) Search(c *fiber.Ctx) error {
	results, err := h.users.Search(c.Context(), authUserID(c), c.Query("q"), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}

	out := make([]searchResultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, searchResultDTO{
			User:             toPublicUserDTO(r.User),
			FriendshipStatus: r.FriendshipStatus,
		})
	}

	return c.JSON(fiber.Map{"users": out})
}
