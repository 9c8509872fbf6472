package domain

import "time"

// CaseStatus enumerates lifecycle states for cases.
type CaseStatus string

const (
	CaseStatusPending                   CaseStatus = "PENDING"
	CaseStatusAssigned                  CaseStatus = "ASSIGNED"
	CaseStatusInProgress                CaseStatus = "IN_PROGRESS"
	CaseStatusReclassificationRequested CaseStatus = "RECLASSIFICATION_REQUESTED"
	CaseStatusPendingArbitration        CaseStatus = "RECLASSIFICATION_PENDING_ARBITRATION"
	CaseStatusClosureRequested          CaseStatus = "CLOSURE_REQUESTED"
	CaseStatusClosed                    CaseStatus = "CLOSED"
	// CaseStatusConflict is reserved. No transition produces or consumes it.
	CaseStatusConflict CaseStatus = "CONFLICT"
)

// CaseStatuses lists every valid status in workflow order.
var CaseStatuses = []CaseStatus{
	CaseStatusPending,
	CaseStatusAssigned,
	CaseStatusInProgress,
	CaseStatusReclassificationRequested,
	CaseStatusPendingArbitration,
	CaseStatusClosureRequested,
	CaseStatusClosed,
	CaseStatusConflict,
}

// Valid reports whether s is one of the enumerated statuses.
func (s CaseStatus) Valid() bool {
	for _, candidate := range CaseStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Urgency enumerates case urgency.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// Valid reports whether u is a known urgency level.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// MaxReportSlots caps supplementary reports per case.
const MaxReportSlots = 2

// SummaryDescriptionLength bounds descriptions in tabular summaries.
const SummaryDescriptionLength = 150

// Victim holds the identifying data of the person the case is about.
type Victim struct {
	Name         string `json:"name"`
	IDNumber     string `json:"idNumber"`
	Nationality  string `json:"nationality,omitempty"`
	Age          string `json:"age,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Municipality string `json:"municipality,omitempty"`
}

// Reporter is the person or institution that referred the case.
type Reporter struct {
	Name     string `json:"name,omitempty"`
	Position string `json:"position,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Case is the aggregate for a victim-support record.
type Case struct {
	ID               string
	ReportedAt       time.Time
	Municipality     string
	Professional     string
	Reporter         Reporter
	Victim           Victim
	RightInvolved    string
	ViolenceType     string
	ShortDescription string
	ActionsTaken     string
	Observations     string
	Urgency          Urgency
	Status           CaseStatus
	AssignedOffice   string
	ReportSlots      [MaxReportSlots]string
	Documents        DocumentRefs
	History          []HistoryEntry
	// Version increments on every successful save and guards concurrent writers.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can derive a next state without touching the original.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	cp.History = append([]HistoryEntry(nil), c.History...)
	return &cp
}

// FreeReportSlot returns the index of the first empty report slot, or -1 when all are used.
func (c *Case) FreeReportSlot() int {
	for i, ref := range c.ReportSlots {
		if ref == "" {
			return i
		}
	}
	return -1
}

// FilledReportSlots counts non-empty report slots.
func (c *Case) FilledReportSlots() int {
	n := 0
	for _, ref := range c.ReportSlots {
		if ref != "" {
			n++
		}
	}
	return n
}

// LatestEntry returns the most recent history entry of the given kind.
func (c *Case) LatestEntry(kind HistoryKind) (HistoryEntry, bool) {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Kind == kind {
			return c.History[i], true
		}
	}
	return HistoryEntry{}, false
}

// SummaryDescription truncates the narrative for tabular displays.
func (c *Case) SummaryDescription() string {
	return Truncate(c.ShortDescription, SummaryDescriptionLength)
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
