package intake_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/haven-intake/internal/app/intake"
	"github.com/PabloGalante/haven-intake/internal/domain"
)

func TestFallbackSummaryEmptyInput(t *testing.T) {
	s := intake.FallbackSummary("")

	assert.Equal(t, domain.CategoryOther, s.Category)
	assert.Equal(t, domain.SeverityMedium, s.Severity)
	assert.Equal(t, "Harassment Incident Report", s.Title)
	assert.Equal(t, []string{"Detailed account provided", "Impact on wellbeing documented"}, s.KeyPoints)
}

func TestFallbackSummaryCategoryPriority(t *testing.T) {
	cases := []struct {
		text string
		want domain.Category
	}{
		{"My boss harassed me online", domain.CategoryWorkplace},
		{"Someone sent me messages on social media", domain.CategoryOnline},
		{"It happened on my commute", domain.CategoryPublic},
		{"A PROFESSOR at my University", domain.CategoryEducational},
		{"At a party last weekend", domain.CategoryOther},
		{"an email from a stranger while walking", domain.CategoryOnline},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, intake.FallbackSummary(tc.text).Category, tc.text)
	}
}

func TestFallbackSummarySeverityPriority(t *testing.T) {
	cases := []struct {
		text string
		want domain.Severity
	}{
		{"He made a threat and I felt uncomfortable", domain.SeverityHigh},
		{"It was stalking", domain.SeverityHigh},
		{"It made me uncomfortable", domain.SeverityLow},
		{"He made an inappropriate comment", domain.SeverityLow},
		{"He yelled at me", domain.SeverityMedium},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, intake.FallbackSummary(tc.text).Severity, tc.text)
	}
}

func TestFallbackSummaryKeyPointsInFixedOrder(t *testing.T) {
	s := intake.FallbackSummary("I was scared. Others saw it, I have a photo, it was repeated and I reported it.")

	assert.Equal(t, []string{
		"Repeated incidents over time",
		"Witnesses present during incidents",
		"Previously reported to authorities/management",
		"Evidence or documentation available",
		"Significant impact on sense of safety",
	}, s.KeyPoints)
}

func TestFallbackSummaryTitles(t *testing.T) {
	assert.Equal(t, "Workplace Harassment Incident", intake.FallbackSummary("at work").Title)
	assert.Equal(t, "Online Harassment and Digital Abuse", intake.FallbackSummary("online").Title)
	assert.Equal(t, "Public Space Harassment", intake.FallbackSummary("street").Title)
	assert.Equal(t, "Academic Environment Harassment", intake.FallbackSummary("school").Title)
}

func TestFallbackSummaryIsTotalAndValid(t *testing.T) {
	v := intake.NewValidator()
	inputs := []string{
		"",
		" ",
		"\x00\xff invalid utf8",
		"ÜNÎCÕDÉ 🚨 threat",
		"work online street school threat uncomfortable",
		string(make([]byte, 4096)),
	}
	for _, in := range inputs {
		s := intake.FallbackSummary(in)
		assert.True(t, s.Category.Valid(), "category for %q", in)
		assert.True(t, s.Severity.Valid(), "severity for %q", in)
		assert.NotEmpty(t, s.KeyPoints)
		require.NoError(t, v.Validate(s), "fallback output must satisfy the validator for %q", in)
	}
}

func TestFallbackSummaryDeterministic(t *testing.T) {
	in := "my colleague keeps sending messages, it is ongoing and I feel unsafe"
	assert.Equal(t, intake.FallbackSummary(in), intake.FallbackSummary(in))
}
