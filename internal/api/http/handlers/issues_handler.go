package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-service/internal/api/dto"
	"github.com/spec-kit/issue-service/internal/domain"
	"github.com/spec-kit/issue-service/internal/service"
	apperrors "github.com/spec-kit/issue-service/pkg/util"
)

// IssuesHandler exposes issue endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issueService}
}

// Create handles POST /api/issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	issue, err := h.issues.Create(c.UserContext(), service.IssueCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Requester:      req.Requester,
		Priority:       req.Priority,
		Tags:           req.Tags,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// List handles GET /api/issues with optional status and assignee filters.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return apperrors.NewInvalidArgument(err.Error(), nil)
		}
		issues, err := h.issues.ListByStatus(ctx, status)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewIssueResponses(issues)})
	}

	if raw := c.Query("assigned_user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewInvalidArgument("invalid assigned_user_id", nil)
		}
		issues, err := h.issues.ListByAssignee(ctx, userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewIssueResponses(issues)})
	}

	issues, err := h.issues.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponses(issues)})
}

// Get handles GET /api/issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	issueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	issue, err := h.issues.Get(c.UserContext(), issueID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// Update handles PUT /api/issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	issueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	issue, err := h.issues.UpdateDetails(c.UserContext(), issueID, req.Title, req.Description, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// Assign handles PUT /api/issues/:id/assign.
func (h *IssuesHandler) Assign(c *fiber.Ctx) error {
	issueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AssignIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	issue, err := h.issues.Assign(c.UserContext(), issueID, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// Unassign handles PUT /api/issues/:id/unassign. The body is optional; a
// bare request unassigns with no acting user.
func (h *IssuesHandler) Unassign(c *fiber.Ctx) error {
	issueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UnassignIssueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewInvalidArgument("invalid payload", nil)
		}
	}
	issue, err := h.issues.Unassign(c.UserContext(), issueID, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// UpdateStatus handles PUT /api/issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	issueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return apperrors.NewInvalidArgument(err.Error(), nil)
	}
	issue, err := h.issues.UpdateStatus(c.UserContext(), issueID, status, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// AddCollaborator handles POST /api/issues/:id/collaborators.
func (h *IssuesHandler) AddCollaborator(c *fiber.Ctx) error {
	issueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CollaboratorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	issue, err := h.issues.AddCollaborator(c.UserContext(), issueID, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// RemoveCollaborator handles DELETE /api/issues/:id/collaborators/:userId.
func (h *IssuesHandler) RemoveCollaborator(c *fiber.Ctx) error {
	issueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	issue, err := h.issues.RemoveCollaborator(c.UserContext(), issueID, userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// Delete handles DELETE /api/issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	issueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.issues.Delete(c.UserContext(), issueID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidArgument("invalid "+name, nil)
	}
	return id, nil
}
