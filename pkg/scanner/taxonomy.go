package scanner

import "strings"

// GeneralThreatKey is the catch-all signal key synthesized when the service
// classifies content as malicious without flagging any individual threat.
const GeneralThreatKey = "general"

// displayNames maps raw threat-signal keys to human-readable category names.
// The service adds new keys over time; anything unmapped falls back to a
// humanized form of the raw key so future threat types are never dropped.
var displayNames = map[string]string{
	// Prompt-side threats
	"prompt_injection": "Prompt Injection Attack",
	"injection":        "Prompt Injection Attack",
	"agent":            "AI Agent Manipulation",
	"jailbreak":        "Jailbreak Attempt",
	"malicious_code":   "Malicious Code Generation",
	"sensitive_data":   "Sensitive Data Exposure",
	"toxic_content":    "Toxic Content",
	"toxicity":         "Toxic Content",
	"bias":             "Bias Detection",
	"harmful_content":  "Harmful Content",

	// Response-side threats
	"url_cats":              "Malicious URL Detection",
	"malware":               "Malware Detection",
	"db_security":           "Database Security Threat",
	"dlp":                   "Data Loss Prevention",
	"pii":                   "Personal Identifiable Information",
	"financial_data":        "Financial Data Exposure",
	"intellectual_property": "Intellectual Property Risk",
	"code_injection":        "Code Injection",
	"resource_overload":     "Resource Overload/DoS",
	"hallucination":         "AI Hallucination",

	// Synthesized catch-all
	GeneralThreatKey: "General Security Violation",
}

// guidance maps threat keys to user-facing remediation advice. Not every
// threat type has advice; callers should skip empty entries.
var guidance = map[string]string{
	"injection":        "Rephrase without command-like language",
	"prompt_injection": "Rephrase without command-like language",
	"agent":            "Remove role-playing or identity claims",
	"toxicity":         "Use respectful, appropriate language",
	"toxic_content":    "Use respectful, appropriate language",
	"url_cats":         "Remove suspicious links",
	"dlp":              "Remove personal or confidential information",
}

// ResolveThreatName returns the display name for a raw threat-signal key.
// Unknown keys degrade to a humanized form of the key rather than being
// dropped, so unrecognized future threat types still surface to callers.
func ResolveThreatName(rawKey string) string {
	if name, ok := displayNames[rawKey]; ok {
		return name
	}
	return humanize(rawKey)
}

// ThreatGuidance returns remediation advice for a threat key, or the empty
// string when none is known.
func ThreatGuidance(rawKey string) string {
	return guidance[rawKey]
}

// NewThreatSignal builds a signal for a raw key on the given side, resolving
// the display name through the taxonomy.
func NewThreatSignal(rawKey string, side Side) ThreatSignal {
	return ThreatSignal{
		Key:         rawKey,
		DisplayName: ResolveThreatName(rawKey),
		Side:        side,
	}
}

// humanize converts a snake_case signal key to title-cased words, e.g.
// "memory_scraping" becomes "Memory Scraping".
func humanize(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
