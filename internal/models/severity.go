package models

import "strings"

type Severity string

// Severity levels attached to a predicted category.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityForCategory maps a predicted threat category to a severity.
// Unknown categories are low.
func SeverityForCategory(category string) Severity {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "ransomware", "malware":
		return SeverityCritical
	case "phishing":
		return SeverityHigh
	case "ddos":
		return SeverityMedium
	default:
		return SeverityLow
	}
}
