package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-workflow/internal/api/dto"
	"github.com/spec-kit/case-workflow/internal/auth"
	"github.com/spec-kit/case-workflow/internal/lifecycle"
	"github.com/spec-kit/case-workflow/internal/service"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

// ActionsHandler accepts tagged action requests.
type ActionsHandler struct {
	dispatcher *service.ActionDispatcher
}

// NewActionsHandler constructs handler.
func NewActionsHandler(dispatcher *service.ActionDispatcher) *ActionsHandler {
	return &ActionsHandler{dispatcher: dispatcher}
}

// Execute POST /api/actions.
func (h *ActionsHandler) Execute(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Role != "" && req.Role != principal.Role {
		return apperrors.NewForbidden("role in payload does not match the token")
	}
	action, err := req.ToAction()
	if err != nil {
		return err
	}

	result, err := h.dispatcher.Execute(c.UserContext(), service.Command{
		CaseID: req.CaseID,
		Actor:  principal,
		Action: action,
	})
	if err != nil {
		return err
	}

	resp := dto.ActionResponse{
		Success:     true,
		CaseID:      result.Case.ID,
		Status:      result.Case.Status,
		Version:     result.Case.Version,
		DocumentRef: result.PrimaryDocument,
		Warnings:    make([]dto.Warning, 0, len(result.Warnings)),
	}
	if len(result.DocumentRefs) > 0 {
		resp.Documents = make(map[string]string, len(result.DocumentRefs))
		for target, ref := range result.DocumentRefs {
			resp.Documents[string(target)] = ref
		}
	}
	for _, w := range result.Warnings {
		resp.Warnings = append(resp.Warnings, dto.Warning{Kind: w.Kind, Message: w.Message})
	}

	status := http.StatusOK
	if action.Name() == lifecycle.ActionIntake {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(resp)
}
