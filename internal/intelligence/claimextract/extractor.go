package claimextract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
)

// ─────────────────────────────────────────────────────────────────────────────
// Patterns
// ─────────────────────────────────────────────────────────────────────────────

// Claim forms label fields inconsistently, so each field carries an ordered
// list of candidate patterns: the labeled, most reliable form first, looser
// fallbacks after.  The first pattern that matches wins.
var (
	// Doctor: "Name of Doctor: Dr. Omany", "Doctor: Smith", bare "Dr. Smith".
	reDoctorLabeled = regexp.MustCompile(`(?:name of )?doctor\s*[:.]?\s*(?:dr\.?)?\s*([a-z\s]+)`)
	reDoctorBare    = regexp.MustCompile(`dr\.?\s*([a-z\s]+)`)

	// Diagnosis: "Final Diagnosis of condition treated: ...", "Diagnosis: ...".
	reDiagnosisFull = regexp.MustCompile(`(?:final )?diagnosis(?: of condition treated)?\s*[:.]?\s*([a-z0-9\s.]+)`)
	reDiagnosisBare = regexp.MustCompile(`diagnosis\s*[:.]?\s*([a-z0-9\s]+)`)

	// Cost: labeled amounts first, then any "$<number>" token anywhere.  The
	// loose fallback can capture unrelated numbers that happen to follow a
	// currency symbol (phone fragments, dates); that imprecision is accepted
	// rather than papered over with unvalidated heuristics.
	reCostTotalClaims = regexp.MustCompile(`total claims\s*[.:]?\s*\$?\s*(\d+\.?\d*)`)
	reCostLabeled     = regexp.MustCompile(`cost\s*[:.]?\s*\$?\s*(\d+\.?\d*)`)
	reCostFees        = regexp.MustCompile(`fees\s*[:.]?\s*\$?\s*(\d+\.?\d*)`)
	reCostLoose       = regexp.MustCompile(`\$\s*(\d+\.?\d*)`)
)

// Boundary labels terminate a greedy name/text capture.  A capture like
// "smith diagnosis flu cost" runs into the next field's label because the
// character classes cannot see label words; cutting at the first boundary
// label recovers the intended value.
var (
	doctorBoundaries    = []string{"total claims", "final diagnosis", "diagnosis", "cost", "fees"}
	diagnosisBoundaries = []string{"total claims", "name of doctor", "doctor", "cost", "fees", "dr"}
)

// ─────────────────────────────────────────────────────────────────────────────
// Matchers
// ─────────────────────────────────────────────────────────────────────────────

// textMatcher attempts to extract a string field from normalized text.
type textMatcher func(text string) (string, bool)

// costMatcher attempts to extract a monetary amount from normalized text.
type costMatcher func(text string) (float64, bool)

// patternMatcher builds a textMatcher from a compiled pattern and the
// boundary labels that terminate its capture.
func patternMatcher(re *regexp.Regexp, boundaries []string) textMatcher {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		value := truncateAtLabel(strings.TrimSpace(m[1]), boundaries)
		if value == "" {
			return "", false
		}
		return value, true
	}
}

// amountMatcher builds a costMatcher from a compiled pattern.  A capture that
// fails to parse as a float is treated as a non-match so the next candidate
// pattern gets its turn.
func amountMatcher(re *regexp.Regexp) costMatcher {
	return func(text string) (float64, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
}

// Fixed ordered matcher lists; first match wins.
var (
	doctorMatchers = []textMatcher{
		patternMatcher(reDoctorLabeled, doctorBoundaries),
		patternMatcher(reDoctorBare, doctorBoundaries),
	}
	diagnosisMatchers = []textMatcher{
		patternMatcher(reDiagnosisFull, diagnosisBoundaries),
		patternMatcher(reDiagnosisBare, diagnosisBoundaries),
	}
	costMatchers = []costMatcher{
		amountMatcher(reCostTotalClaims),
		amountMatcher(reCostLabeled),
		amountMatcher(reCostFees),
		amountMatcher(reCostLoose),
	}
)

// truncateAtLabel cuts value at the first whole-word occurrence of any
// boundary label and trims the result.
func truncateAtLabel(value string, boundaries []string) string {
	padded := " " + value + " "
	cut := len(padded)
	for _, label := range boundaries {
		if idx := strings.Index(padded, " "+label+" "); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	if cut == len(padded) {
		return value
	}
	return strings.TrimSpace(padded[:cut])
}

// Extract applies the ordered matcher lists to normalized text and returns
// the recovered entities.  Fields with no matching pattern stay nil.
func Extract(text string) claim.Entities {
	var entities claim.Entities

	for _, match := range doctorMatchers {
		if v, ok := match(text); ok {
			entities.Doctor = &v
			break
		}
	}

	for _, match := range diagnosisMatchers {
		if v, ok := match(text); ok {
			entities.Diagnosis = &v
			break
		}
	}

	for _, match := range costMatchers {
		if v, ok := match(text); ok {
			entities.Cost = &v
			break
		}
	}

	return entities
}
