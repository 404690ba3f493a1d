// Package normalize provides the pure field-normalization helpers shared by
// every extractor: text cleanup, number and date extraction, and URL
// handling. Nothing here has side effects beyond logging.
package normalize

import (
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`[\s\p{Zs}]+`)
	digitsRe     = regexp.MustCompile(`\d+`)

	// Day-first numeric dates: 15/03/2026, 15-03-2026
	dmyNumericRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	// ISO dates: 2026-03-15
	isoRe = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	// Ordinal suffixes: 15th -> 15
	ordinalRe = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

	monthNames = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`
	// Day-first month-name dates embedded in prose: "15 March 2026"
	dayMonthYearRe = regexp.MustCompile(`(?i)\b\d{1,2}\s+(` + monthNames + `)\.?,?\s+\d{4}\b`)
	// Month-first month-name dates: "March 15, 2026"
	monthDayYearRe = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+\d{1,2},?\s+\d{4}\b`)
)

// CleanText decodes HTML entities, normalizes Unicode to NFC, collapses
// whitespace runs to a single space and trims the ends. Empty or absent
// input yields "". CleanText is idempotent.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)
	s = norm.NFC.String(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractNumber returns the first contiguous digit run in s as an integer,
// after stripping thousands separators. The second return is false when s
// contains no digits.
func ExtractNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	match := digitsRe.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DateParser parses permissive date strings into YYYY-MM-DD, bounded by a
// validity window on the year. It never guesses: input that does not
// resolve to a specific calendar day is rejected.
type DateParser struct {
	minYear int
	maxYear int
	logger  *slog.Logger
}

// NewDateParser creates a parser with the given year validity window
func NewDateParser(minYear, maxYear int) *DateParser {
	return &DateParser{
		minYear: minYear,
		maxYear: maxYear,
		logger:  slog.Default().With("component", "normalize"),
	}
}

// ExtractDate parses dates in day-first numeric, ISO and month-name forms,
// including dates embedded in prose and with ordinal suffixes. It returns a
// normalized YYYY-MM-DD string, or "" when no specific calendar day within
// the validity window can be resolved.
func (p *DateParser) ExtractDate(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	s = ordinalRe.ReplaceAllString(s, "$1")

	if m := dmyNumericRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return p.formatValid(year, month, day, s)
	}

	if m := isoRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return p.formatValid(year, month, day, s)
	}

	// Month-name forms are handed to dateparse, but only the matched
	// substring: feeding whole prose would let it guess a day from a bare
	// month/year mention.
	candidate := dayMonthYearRe.FindString(s)
	if candidate == "" {
		candidate = monthDayYearRe.FindString(s)
	}
	if candidate == "" {
		return ""
	}

	t, err := dateparse.ParseStrict(candidate)
	if err != nil {
		p.logger.Debug("unparseable date candidate", "input", candidate, "error", err)
		return ""
	}
	return p.formatValid(t.Year(), int(t.Month()), t.Day(), s)
}

// formatValid validates the calendar day and the year window
func (p *DateParser) formatValid(year, month, day int, input string) string {
	if year < p.minYear || year > p.maxYear {
		p.logger.Warn("date year out of range", "year", year, "input", input)
		return ""
	}
	if month < 1 || month > 12 || day < 1 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject such input
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}
	return t.Format("2006-01-02")
}

// MakeAbsoluteURL resolves a possibly-relative URL against baseURL. Empty
// input yields ""; input that cannot be resolved is logged and returned
// unchanged.
func MakeAbsoluteURL(rawURL, baseURL string) string {
	if rawURL == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		slog.Warn("unparseable base URL", "base", baseURL, "error", err)
		return rawURL
	}
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		slog.Warn("unparseable URL reference", "url", rawURL, "error", err)
		return rawURL
	}
	return base.ResolveReference(ref).String()
}

// IsValidURL reports whether s has both a scheme and a non-empty host.
// It does not attempt network validation.
func IsValidURL(s string) bool {
	if s == "" {
		return false
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}
