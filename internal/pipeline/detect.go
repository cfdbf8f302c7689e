package pipeline

import "strings"

type DetectResult struct {
	IsCensus bool
	Score    float64
	Reason   string
}

var detectKeywords = []string{"census", "enrollment", "eligibility", "benefits", "employee roster", "open enrollment", "dental", "vision"}

// CensusKeywords exposes the detection vocabulary so mail connectors
// can push the same terms into provider-side search filters.
func CensusKeywords() []string {
	out := make([]string, len(detectKeywords))
	copy(out, detectKeywords)
	return out
}

// DetectCensusSubmission scores an incoming message for whether it
// carries a census. Pure keyword and shape rules; anything at or above
// the threshold goes to processing.
func DetectCensusSubmission(subject, text, html string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)
	html = strings.ToLower(html)

	score := 0.0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.2
		}
		if strings.Contains(text, kw) || strings.Contains(html, kw) {
			score += 0.1
		}
	}

	for _, name := range attachmentNames {
		ln := strings.ToLower(name)
		if strings.HasSuffix(ln, ".xlsx") || strings.HasSuffix(ln, ".xls") {
			score += 0.35
		}
		if strings.Contains(ln, "census") || strings.Contains(ln, "roster") {
			score += 0.25
		}
	}

	if strings.Contains(html, "<table") {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}

	isCensus := score >= 0.45
	reason := "rules_negative"
	if isCensus {
		reason = "rules_positive"
	}

	return DetectResult{IsCensus: isCensus, Score: score, Reason: reason}
}
