package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-service/internal/api/dto"
	"github.com/spec-kit/issue-service/internal/service"
	apperrors "github.com/spec-kit/issue-service/pkg/util"
)

// UsersHandler exposes user endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	user, err := h.users.Create(c.UserContext(), service.UserCreateInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// List handles GET /api/users with an optional department equality filter.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var department *string
	if raw := c.Query("department"); raw != "" {
		department = &raw
	}
	users, err := h.users.List(c.UserContext(), department)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Get handles GET /api/users/:id, including the derived issue views.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	user, err := h.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	refs, err := h.users.IssueRefsFor(ctx, userID)
	if err != nil {
		return err
	}

	resp := dto.NewUserResponse(user)
	resp.AssignedIssueIDs = refs.AssignedIssueIDs
	resp.CollaboratingIssueIDs = refs.CollaboratingIssueIDs
	return c.JSON(fiber.Map{"data": resp})
}

// Update handles PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	user, err := h.users.UpdateProfile(c.UserContext(), userID, service.ProfileUpdateInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ChangePassword handles PUT /api/users/:id/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := h.users.ChangePassword(c.UserContext(), userID, req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), userID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
