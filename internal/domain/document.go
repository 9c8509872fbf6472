package domain

// DocumentKind names the artifact families produced by the document generator.
type DocumentKind string

const (
	DocumentKindDossier    DocumentKind = "dossier"
	DocumentKindAnalysis   DocumentKind = "analysis"
	DocumentKindResolution DocumentKind = "resolution"
	DocumentKindDenial     DocumentKind = "denial"
	DocumentKindReport     DocumentKind = "report"
)

// DocumentTarget is the case field a produced reference is written into.
type DocumentTarget string

const (
	TargetDossier            DocumentTarget = "DOSSIER"
	TargetAnalysis           DocumentTarget = "ANALYSIS"
	TargetResolution         DocumentTarget = "RESOLUTION"
	TargetDenial             DocumentTarget = "DENIAL"
	TargetReport1            DocumentTarget = "REPORT_1"
	TargetReport2            DocumentTarget = "REPORT_2"
	TargetOriginalAttachment DocumentTarget = "ORIGINAL_ATTACHMENT"
)

// ReportTarget returns the target for a zero-based report slot.
func ReportTarget(slot int) DocumentTarget {
	if slot == 1 {
		return TargetReport2
	}
	return TargetReport1
}

// DocumentRefs holds the named document URLs of a case.
type DocumentRefs struct {
	Dossier            string `json:"dossier,omitempty"`
	Analysis           string `json:"analysis,omitempty"`
	Resolution         string `json:"resolution,omitempty"`
	Denial             string `json:"denial,omitempty"`
	OriginalAttachment string `json:"originalAttachment,omitempty"`
}

// DocumentRef returns the reference stored for target, or an empty string.
func (c *Case) DocumentRef(target DocumentTarget) string {
	switch target {
	case TargetDossier:
		return c.Documents.Dossier
	case TargetAnalysis:
		return c.Documents.Analysis
	case TargetResolution:
		return c.Documents.Resolution
	case TargetDenial:
		return c.Documents.Denial
	case TargetOriginalAttachment:
		return c.Documents.OriginalAttachment
	case TargetReport1:
		return c.ReportSlots[0]
	case TargetReport2:
		return c.ReportSlots[1]
	}
	return ""
}

// SetDocumentRef writes ref into the field named by target.
func (c *Case) SetDocumentRef(target DocumentTarget, ref string) {
	switch target {
	case TargetDossier:
		c.Documents.Dossier = ref
	case TargetAnalysis:
		c.Documents.Analysis = ref
	case TargetResolution:
		c.Documents.Resolution = ref
	case TargetDenial:
		c.Documents.Denial = ref
	case TargetOriginalAttachment:
		c.Documents.OriginalAttachment = ref
	case TargetReport1:
		c.ReportSlots[0] = ref
	case TargetReport2:
		c.ReportSlots[1] = ref
	}
}
