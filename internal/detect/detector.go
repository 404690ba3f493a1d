// Package detect hashes monitored page content and classifies deltas
// against the cancellation/postponement keyword taxonomies.
package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/examwatch/examwatch/internal/model"
)

// Keyword taxonomies. Matching is case-insensitive over the whole page
// text; weights sum into the change confidence.
var (
	// CancellationKeywords assert a CANCELLED status, weight 30 each
	CancellationKeywords = []string{
		"cancelled",
		"canceled",
		"will not be held",
		"stands cancelled",
		"withdrawn",
	}

	// PostponementKeywords assert a POSTPONED status, weight 25 each
	PostponementKeywords = []string{
		"postponed",
		"deferred",
		"rescheduled",
		"date changed",
		"revised schedule",
	}

	// ContextKeywords are administrative-notice words that raise
	// confidence without asserting a status, weight 10 each
	ContextKeywords = []string{
		"notice",
		"important",
		"corrigendum",
		"amendment",
	}
)

const (
	cancellationWeight = 30
	postponementWeight = 25
	contextWeight      = 10
)

// HashContent returns the stable content hash used for change detection
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Detector classifies content changes
type Detector struct {
	confidenceFloor int
	contextRadius   int
}

// NewDetector creates a detector. Changes scoring below confidenceFloor
// are discarded; contextRadius bounds the excerpt extracted around the
// first matched keyword.
func NewDetector(confidenceFloor, contextRadius int) *Detector {
	return &Detector{confidenceFloor: confidenceFloor, contextRadius: contextRadius}
}

// Detect compares new content against the stored hash and classifies the
// delta. It returns (nil, newHash) when the content is unchanged, empty,
// or the classified change is below the significance floor; the hash
// comparison short-circuit is the common case and stays cheap.
func (d *Detector) Detect(lastHash, content string) (*model.ChangeEvent, string) {
	if content == "" {
		return nil, lastHash
	}

	newHash := HashContent(content)
	if lastHash != "" && lastHash == newHash {
		return nil, newHash
	}

	return d.Classify(content), newHash
}

// Classify scans content for the keyword taxonomies and builds a change
// event, or nil when the aggregate confidence is below the floor.
// Precedence is deterministic: cancellation wins whenever both taxonomies
// match, regardless of keyword order in the page.
func (d *Detector) Classify(content string) *model.ChangeEvent {
	lower := strings.ToLower(content)

	var keywordsFound []string
	confidence := 0
	changeType := model.ChangeUnknown

	for _, k := range CancellationKeywords {
		if strings.Contains(lower, k) {
			keywordsFound = append(keywordsFound, k)
			confidence += cancellationWeight
			changeType = model.ChangeCancelled
		}
	}

	for _, k := range PostponementKeywords {
		if strings.Contains(lower, k) {
			keywordsFound = append(keywordsFound, k)
			confidence += postponementWeight
			if changeType != model.ChangeCancelled {
				changeType = model.ChangePostponed
			}
		}
	}

	for _, k := range ContextKeywords {
		if strings.Contains(lower, k) {
			confidence += contextWeight
		}
	}

	if confidence > 100 {
		confidence = 100
	}
	if confidence < d.confidenceFloor {
		return nil
	}

	return &model.ChangeEvent{
		Type:          changeType,
		Confidence:    confidence,
		KeywordsFound: keywordsFound,
		Context:       d.extractContext(content, lower, keywordsFound),
		DetectedAt:    time.Now().UTC(),
	}
}

// extractContext returns the excerpt around the first matched keyword, for
// human review display
func (d *Detector) extractContext(content, lower string, keywords []string) string {
	for _, k := range keywords {
		idx := strings.Index(lower, k)
		if idx < 0 {
			continue
		}
		start := idx - d.contextRadius
		if start < 0 {
			start = 0
		}
		end := idx + d.contextRadius
		if end > len(content) {
			end = len(content)
		}
		return content[start:end]
	}
	return ""
}
