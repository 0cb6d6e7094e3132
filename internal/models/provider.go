package models

import "encoding/json"

// RuleSpec is one provider definition of a ClearURLs rule document
type RuleSpec struct {
	URLPattern        *string  `json:"urlPattern"` // nil when absent; "" matches every URL
	CompleteProvider  bool     `json:"completeProvider"`
	Rules             []string `json:"rules"`             // query parameter names to strip
	ReferralMarketing []string `json:"referralMarketing"` // compiled, not applied
	RawRules          []string `json:"rawRules"`          // compiled, not applied
	Exceptions        []string `json:"exceptions"`
	Redirections      []string `json:"redirections"` // compiled, not invoked
	ForceRedirection  bool     `json:"forceRedirection"`
}

// ProviderEntry is a provider as it appears in the document, not yet decoded.
// Keeping the raw value lets a single malformed entry be dropped without
// rejecting the whole document.
type ProviderEntry struct {
	Name string
	Raw  json.RawMessage
}

// RuleDocument holds provider entries in document order
type RuleDocument struct {
	Providers []ProviderEntry
}
