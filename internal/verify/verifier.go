// Package verify decides whether a detected change is trustworthy enough
// to publish without human review, from source trust, change confidence
// and independent corroboration.
package verify

import (
	"net/url"
	"strings"

	"github.com/examwatch/examwatch/internal/model"
)

// minCorroboration is the independent-confirmation count that approves a
// change from an untrusted source
const minCorroboration = 2

// Verifier makes stateless auto-approval decisions
type Verifier struct {
	trusted         map[string]bool
	confidenceFloor int
}

// NewVerifier creates a verifier over the trusted-domain allow-list.
// confidenceFloor is the minimum change confidence a trusted source still
// needs for auto-approval.
func NewVerifier(trustedDomains []string, confidenceFloor int) *Verifier {
	trusted := make(map[string]bool, len(trustedDomains))
	for _, d := range trustedDomains {
		trusted[strings.ToLower(strings.TrimPrefix(d, "www."))] = true
	}
	return &Verifier{trusted: trusted, confidenceFloor: confidenceFloor}
}

// IsTrustedSource reports whether the URL's registrable domain is on the
// allow-list. A leading "www." is stripped before the exact comparison;
// malformed URLs are untrusted.
func (v *Verifier) IsTrustedSource(sourceURL string) bool {
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	domain := strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))
	return v.trusted[domain]
}

// ShouldAutoApprove decides publication without review: a trusted source
// with sufficient confidence approves immediately; otherwise two
// independent corroborations approve; otherwise the change waits for
// manual review.
func (v *Verifier) ShouldAutoApprove(sourceURL string, confidence, corroborationCount int) model.VerificationDecision {
	if v.IsTrustedSource(sourceURL) && confidence >= v.confidenceFloor {
		return model.VerificationDecision{Approved: true, Reason: model.ReasonTrustedSource}
	}
	if corroborationCount >= minCorroboration {
		return model.VerificationDecision{Approved: true, Reason: model.ReasonCorroborated}
	}
	return model.VerificationDecision{Approved: false, Reason: model.ReasonInsufficient}
}
