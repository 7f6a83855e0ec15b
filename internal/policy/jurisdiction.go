// Package policy renders generation prompts for privacy-policy documents.
package policy

import "fmt"

// Jurisdiction is the legal regime a generated policy must satisfy.
type Jurisdiction string

const (
	// JurisdictionGDPR targets the EU General Data Protection Regulation.
	JurisdictionGDPR Jurisdiction = "GDPR"
	// JurisdictionNDSG targets the Swiss Bundesgesetz über den Datenschutz.
	JurisdictionNDSG Jurisdiction = "nDSG"
	// JurisdictionBoth targets a dual GDPR + nDSG policy.
	JurisdictionBoth Jurisdiction = "BOTH"
)

// ParseJurisdiction validates a wire-format jurisdiction value.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	switch Jurisdiction(s) {
	case JurisdictionGDPR, JurisdictionNDSG, JurisdictionBoth:
		return Jurisdiction(s), nil
	default:
		return "", fmt.Errorf("invalid jurisdiction %q (want GDPR, nDSG or BOTH)", s)
	}
}

// Valid reports whether j is one of the known jurisdictions.
func (j Jurisdiction) Valid() bool {
	_, err := ParseJurisdiction(string(j))
	return err == nil
}
