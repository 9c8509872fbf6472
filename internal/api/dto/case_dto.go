package dto

import (
	"time"

	"github.com/spec-kit/case-workflow/internal/domain"
)

// CaseSummary is a row of the case listing.
type CaseSummary struct {
	ID               string            `json:"id"`
	ReportedAt       time.Time         `json:"reportedAt"`
	VictimName       string            `json:"victimName"`
	VictimIDNumber   string            `json:"victimIdNumber"`
	ViolenceType     string            `json:"violenceType"`
	ShortDescription string            `json:"shortDescription"`
	Status           domain.CaseStatus `json:"status"`
	AssignedOffice   string            `json:"assignedOffice"`
	Urgency          domain.Urgency    `json:"urgency"`
	ReportsFilled    int               `json:"reportsFilled"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// CaseDetail is the full record, history included.
type CaseDetail struct {
	ID               string                `json:"id"`
	ReportedAt       time.Time             `json:"reportedAt"`
	Municipality     string                `json:"municipality"`
	Professional     string                `json:"professional"`
	Reporter         domain.Reporter       `json:"reporter"`
	Victim           domain.Victim         `json:"victim"`
	RightInvolved    string                `json:"rightInvolved"`
	ViolenceType     string                `json:"violenceType"`
	ShortDescription string                `json:"shortDescription"`
	ActionsTaken     string                `json:"actionsTaken"`
	Observations     string                `json:"observations"`
	Urgency          domain.Urgency        `json:"urgency"`
	Status           domain.CaseStatus     `json:"status"`
	AssignedOffice   string                `json:"assignedOffice"`
	Documents        domain.DocumentRefs   `json:"documents"`
	Reports          []string              `json:"reports"`
	History          []domain.HistoryEntry `json:"history"`
	Version          int64                 `json:"version"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// NewCaseSummary builds a listing row.
func NewCaseSummary(c *domain.Case) CaseSummary {
	return CaseSummary{
		ID:               c.ID,
		ReportedAt:       c.ReportedAt,
		VictimName:       c.Victim.Name,
		VictimIDNumber:   c.Victim.IDNumber,
		ViolenceType:     c.ViolenceType,
		ShortDescription: c.SummaryDescription(),
		Status:           c.Status,
		AssignedOffice:   c.AssignedOffice,
		Urgency:          c.Urgency,
		ReportsFilled:    c.FilledReportSlots(),
		UpdatedAt:        c.UpdatedAt,
	}
}

// NewCaseDetail builds the full view.
func NewCaseDetail(c *domain.Case) CaseDetail {
	reports := make([]string, 0, domain.MaxReportSlots)
	for _, ref := range c.ReportSlots {
		if ref != "" {
			reports = append(reports, ref)
		}
	}
	history := c.History
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	return CaseDetail{
		ID:               c.ID,
		ReportedAt:       c.ReportedAt,
		Municipality:     c.Municipality,
		Professional:     c.Professional,
		Reporter:         c.Reporter,
		Victim:           c.Victim,
		RightInvolved:    c.RightInvolved,
		ViolenceType:     c.ViolenceType,
		ShortDescription: c.ShortDescription,
		ActionsTaken:     c.ActionsTaken,
		Observations:     c.Observations,
		Urgency:          c.Urgency,
		Status:           c.Status,
		AssignedOffice:   c.AssignedOffice,
		Documents:        c.Documents,
		Reports:          reports,
		History:          history,
		Version:          c.Version,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
