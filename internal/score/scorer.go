// Package score assigns the 0-100 confidence score to extracted records.
// The weight table and thresholds are a declared contract shared with the
// verification engine; changing them changes publishing behavior.
package score

import (
	"github.com/examwatch/examwatch/internal/model"
	"github.com/examwatch/examwatch/internal/normalize"
)

// Policy thresholds over the confidence score
const (
	// AutoApproveFloor marks records eligible for automatic downstream use
	AutoApproveFloor = 70
	// ReviewFloor marks the bottom of the manual-review band; a change
	// event scoring below it is discarded outright
	ReviewFloor = 40
)

// Field weights. Mandatory identity fields account for 50 points, the
// important optional fields for the other 50.
const (
	weightExamName     = 30
	weightOrganization = 20
	weightTypeDate     = 15
	weightPrimaryLink  = 15
	weightAppWindow    = 10
	weightExamDate     = 10
)

// typeDateField returns the record-type equivalent of notification_date
func typeDateField(t model.RecordType) string {
	switch t {
	case model.RecordResult, model.RecordAnswerKey:
		return model.FieldResultDate
	case model.RecordAdmitCard:
		return model.FieldExamDate
	default:
		return model.FieldNotificationDate
	}
}

// Confidence computes the additive confidence score for a record, capped
// at 100
func Confidence(record *model.ExtractedRecord) int {
	score := 0

	if record.Has(model.FieldExamName) {
		score += weightExamName
	}
	if record.Has(model.FieldOrganization) {
		score += weightOrganization
	}

	typeDate := typeDateField(record.Type)
	if record.Has(typeDate) {
		score += weightTypeDate
	}
	if normalize.IsValidURL(record.Get(model.FieldOfficialLink)) {
		score += weightPrimaryLink
	}
	if record.Has(model.FieldApplicationStart) && record.Has(model.FieldApplicationEnd) {
		score += weightAppWindow
	}
	// exam_date carries its own weight unless it already counted as the
	// record-type date
	if typeDate != model.FieldExamDate && record.Has(model.FieldExamDate) {
		score += weightExamDate
	}

	if score > 100 {
		score = 100
	}
	return score
}

// RequiresReview reports whether a score lands in the manual-review band
func RequiresReview(confidence int) bool {
	return confidence < AutoApproveFloor
}
