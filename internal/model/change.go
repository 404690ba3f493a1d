package model

import "time"

// ChangeType classifies a detected content change
type ChangeType string

const (
	ChangeCancelled ChangeType = "CANCELLED"
	ChangePostponed ChangeType = "POSTPONED"
	ChangeUnknown   ChangeType = "UNKNOWN"
)

// ChangeEvent is produced by the change detector when monitored content
// differs from the stored hash and the keyword evidence clears the
// significance floor. It has no lifecycle beyond the verification decision
// that consumes it.
type ChangeEvent struct {
	Type          ChangeType `json:"change_type"`
	Confidence    int        `json:"confidence"` // 0-100, sum of matched keyword weights
	KeywordsFound []string   `json:"keywords_found"`
	Context       string     `json:"context,omitempty"` // Excerpt around the first matched keyword
	DetectedAt    time.Time  `json:"detected_at"`
}

// ApprovalReason explains a verification decision
type ApprovalReason string

const (
	ReasonTrustedSource ApprovalReason = "TRUSTED_SOURCE"
	ReasonCorroborated  ApprovalReason = "CORROBORATED"
	ReasonInsufficient  ApprovalReason = "INSUFFICIENT"
)

// VerificationDecision is stateless and computed fresh on every check
type VerificationDecision struct {
	Approved bool           `json:"approved"`
	Reason   ApprovalReason `json:"reason"`
}
