// Package validate checks extracted records for the mandatory identity
// fields. Completeness of identity fields is a hard concern; link
// correctness is soft and only logged.
package validate

import (
	"log/slog"

	"github.com/examwatch/examwatch/internal/model"
	"github.com/examwatch/examwatch/internal/normalize"
)

// baseMandatory applies to every record type
var baseMandatory = []string{model.FieldExamName, model.FieldOrganization}

// extraMandatory lists additional mandatory fields per record type
var extraMandatory = map[model.RecordType][]string{
	model.RecordNotification: {model.FieldOfficialLink},
}

// urlFields are checked for shape, logged when malformed, never failed on
var urlFields = []string{
	model.FieldOfficialLink,
	model.FieldPDFLink,
	model.FieldDownloadLink,
	model.FieldApplyLink,
}

// Result is the outcome of validating one record
type Result struct {
	Valid         bool
	MissingFields []string
}

// MandatoryFields returns the mandatory field names for a record type, in
// declared order
func MandatoryFields(t model.RecordType) []string {
	fields := make([]string, 0, len(baseMandatory)+2)
	fields = append(fields, baseMandatory...)
	fields = append(fields, extraMandatory[t]...)
	return fields
}

// Validate fails a record whose mandatory fields are absent or blank.
// URL-shaped fields that are not valid URLs are logged but do not fail
// validation.
func Validate(record *model.ExtractedRecord) Result {
	var missing []string
	for _, f := range MandatoryFields(record.Type) {
		if !record.Has(f) {
			missing = append(missing, f)
		}
	}

	for _, f := range urlFields {
		if v := record.Get(f); v != "" && !normalize.IsValidURL(v) {
			slog.Warn("invalid URL in field", "field", f, "url", v, "source", record.SourceURL)
		}
	}

	return Result{Valid: len(missing) == 0, MissingFields: missing}
}
