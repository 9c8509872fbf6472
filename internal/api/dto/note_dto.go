package dto

import (
	"time"

	"github.com/spec-kit/case-workflow/internal/domain"
)

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Content string `json:"content"`
}

// NoteResponse represents a management note.
type NoteResponse struct {
	ID          string    `json:"id"`
	OfficeLabel string    `json:"officeLabel"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewNoteResponse(n *domain.ManagementNote) NoteResponse {
	return NoteResponse{ID: n.ID, OfficeLabel: n.OfficeLabel, Content: n.Content, CreatedAt: n.CreatedAt}
}
