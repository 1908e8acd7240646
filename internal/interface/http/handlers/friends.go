package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/service"
)

// FriendHandler serves the friendship graph routes.
type FriendHandler struct {
	friends *service.FriendService
}

// NewFriendHandler creates a FriendHandler.
func NewFriendHandler(friends *service.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

type sendRequestRequest struct {
	UserID string `json:"userId" validate:"omitempty,uuid4"`
	Email  string `json:"email" validate:"omitempty,email"`
}

// SendRequest sends a friend request, addressed either by user id or by
// email.
func (h *FriendHandler) SendRequest(c *fiber.Ctx) error {
	var req sendRequestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var (
		f   *friendship.Friendship
		err error
	)
	switch {
	case req.UserID != "":
		f, err = h.friends.SendRequest(c.Context(), authUserID(c), req.UserID)
	case req.Email != "":
		f, err = h.friends.SendRequestByEmail(c.Context(), authUserID(c), req.Email)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "userId or email is required")
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": toFriendshipDTO(f)})
}

// Block blocks the user in the path. Further requests from either side
// fail until the edge is removed.
func (h *FriendHandler) Block(c *fiber.Ctx) error {
	f, err := h.friends.Block(c.Context(), authUserID(c), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"friendship": toFriendshipDTO(f)})
}

// Accept accepts a pending request addressed to the caller.
func (h *FriendHandler) Accept(c *fiber.Ctx) error {
	f, err := h.friends.Accept(c.Context(), authUserID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"friendship": toFriendshipDTO(f)})
}

// Reject declines a pending request addressed to the caller.
func (h *FriendHandler) Reject(c *fiber.Ctx) error {
	if err := h.friends.Reject(c.Context(), authUserID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Remove deletes an accepted friendship with the given user.
func (h *FriendHandler) Remove(c *fiber.Ctx) error {
	if err := h.friends.Remove(c.Context(), authUserID(c), c.Params("friendId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type friendEntryDTO struct {
	Friendship friendshipDTO `json:"friendship"`
	User       userDTO       `json:"user"`
}

func toFriendEntryDTOs(entries []*friendship.FriendEntry) []friendEntryDTO {
	out := make([]friendEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, friendEntryDTO{
			Friendship: toFriendshipDTO(e.Friendship),
			User:       toPublicUserDTO(e.Friend),
		})
	}
	return out
}

func toRequestEntryDTOs(entries []*friendship.RequestEntry) []friendEntryDTO {
	out := make([]friendEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, friendEntryDTO{
			Friendship: toFriendshipDTO(e.Friendship),
			User:       toPublicUserDTO(e.Counterpart),
		})
	}
	return out
}

// List returns the caller's accepted friends.
func (h *FriendHandler) List(c *fiber.Ctx) error {
	entries, err := h.friends.Friends(c.Context(), authUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"friends": toFriendEntryDTOs(entries)})
}

// Requests returns the caller's pending inbox and outbox.
func (h *FriendHandler) Requests(c *fiber.Ctx) error {
	incoming, outgoing, err := h.friends.Requests(c.Context(), authUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"incoming": toRequestEntryDTOs(incoming),
		"outgoing": toRequestEntryDTOs(outgoing),
	})
}
