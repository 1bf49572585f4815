package intake

import (
	"strings"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

type categoryRule struct {
	category domain.Category
	keywords []string
}

// First match wins, in this order.
var categoryRules = [...]categoryRule{
	{domain.CategoryWorkplace, []string{"work", "boss", "supervisor", "colleague"}},
	{domain.CategoryOnline, []string{"online", "social media", "internet", "email"}},
	{domain.CategoryPublic, []string{"street", "public", "commute", "walking"}},
	{domain.CategoryEducational, []string{"school", "university", "professor", "teacher"}},
}

type severityRule struct {
	severity domain.Severity
	keywords []string
}

var severityRules = [...]severityRule{
	{domain.SeverityHigh, []string{"threat", "violence", "assault", "stalking"}},
	{domain.SeverityLow, []string{"uncomfortable", "inappropriate comment", "once"}},
}

type keyPointRule struct {
	point    string
	keywords []string
}

// Every matching rule contributes its point, in this order.
var keyPointRules = [...]keyPointRule{
	{"Repeated incidents over time", []string{"repeated", "multiple", "ongoing"}},
	{"Witnesses present during incidents", []string{"witness", "saw", "others"}},
	{"Previously reported to authorities/management", []string{"reported", "told", "complained"}},
	{"Evidence or documentation available", []string{"photo", "evidence", "documented"}},
	{"Significant impact on sense of safety", []string{"scared", "afraid", "unsafe"}},
}

var defaultKeyPoints = [...]string{
	"Detailed account provided",
	"Impact on wellbeing documented",
}

const summaryClosing = " The incident(s) have been documented with relevant details and context provided."

func fallbackTitle(c domain.Category) string {
	switch c {
	case domain.CategoryWorkplace:
		return "Workplace Harassment Incident"
	case domain.CategoryOnline:
		return "Online Harassment and Digital Abuse"
	case domain.CategoryPublic:
		return "Public Space Harassment"
	case domain.CategoryEducational:
		return "Academic Environment Harassment"
	default:
		return "Harassment Incident Report"
	}
}

func fallbackSummaryText(c domain.Category) string {
	switch c {
	case domain.CategoryWorkplace:
		return "Experienced inappropriate behavior in a professional setting that created a hostile work environment."
	case domain.CategoryOnline:
		return "Targeted harassment through digital platforms including inappropriate messages and online abuse."
	case domain.CategoryPublic:
		return "Encountered unwanted attention and harassment in public spaces affecting sense of safety."
	case domain.CategoryEducational:
		return "Faced inappropriate conduct in an academic setting that impacted learning environment."
	default:
		return "Experienced harassment that affected personal safety and wellbeing."
	}
}

// FallbackSummary classifies a narrative by keyword rules. It is total and
// deterministic: any input, including "", yields a valid summary.
func FallbackSummary(narrative string) domain.ReportSummary {
	content := strings.ToLower(narrative)

	category := domain.CategoryOther
	for _, r := range categoryRules {
		if containsAny(content, r.keywords) {
			category = r.category
			break
		}
	}

	severity := domain.SeverityMedium
	for _, r := range severityRules {
		if containsAny(content, r.keywords) {
			severity = r.severity
			break
		}
	}

	var keyPoints []string
	for _, r := range keyPointRules {
		if containsAny(content, r.keywords) {
			keyPoints = append(keyPoints, r.point)
		}
	}
	if len(keyPoints) == 0 {
		keyPoints = append(keyPoints, defaultKeyPoints[:]...)
	}

	return domain.ReportSummary{
		Title:     fallbackTitle(category),
		Summary:   fallbackSummaryText(category) + summaryClosing,
		Category:  category,
		Severity:  severity,
		KeyPoints: keyPoints,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
