package policy

import (
	"strings"
	"testing"
)

func TestParseJurisdiction(t *testing.T) {
	tests := []struct {
		input   string
		want    Jurisdiction
		wantErr bool
	}{
		{"GDPR", JurisdictionGDPR, false},
		{"nDSG", JurisdictionNDSG, false},
		{"BOTH", JurisdictionBoth, false},
		{"gdpr", "", true},
		{"ndsg", "", true},
		{"both", "", true},
		{"", "", true},
		{"CCPA", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseJurisdiction(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseJurisdiction(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseJurisdiction(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseJurisdiction(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestJurisdictionValid(t *testing.T) {
	if !JurisdictionNDSG.Valid() {
		t.Error("nDSG should be valid")
	}
	if Jurisdiction("DSGVO").Valid() {
		t.Error("DSGVO should not be valid")
	}
}

func TestBuildPrompt(t *testing.T) {
	for _, j := range []Jurisdiction{JurisdictionGDPR, JurisdictionNDSG, JurisdictionBoth} {
		t.Run(string(j), func(t *testing.T) {
			prompt, err := BuildPrompt(j, "example.ch", "Example AG")
			if err != nil {
				t.Fatalf("BuildPrompt failed: %v", err)
			}
			if !strings.Contains(prompt, "example.ch") {
				t.Error("prompt should contain the domain")
			}
			if !strings.Contains(prompt, "Example AG") {
				t.Error("prompt should contain the company name")
			}
		})
	}
}

func TestBuildPromptDefaultCompany(t *testing.T) {
	prompt, err := BuildPrompt(JurisdictionGDPR, "example.com", "")
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, DefaultCompanyName) {
		t.Errorf("prompt should fall back to %q for the company name", DefaultCompanyName)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	a, err := BuildPrompt(JurisdictionBoth, "example.ch", "Example AG")
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	b, err := BuildPrompt(JurisdictionBoth, "example.ch", "Example AG")
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if a != b {
		t.Error("same inputs should render the same prompt")
	}
}

func TestBuildPromptInvalidJurisdiction(t *testing.T) {
	if _, err := BuildPrompt(Jurisdiction("CCPA"), "example.com", ""); err == nil {
		t.Error("expected error for unknown jurisdiction")
	}
}

func TestPromptsDifferByJurisdiction(t *testing.T) {
	gdpr, err := BuildPrompt(JurisdictionGDPR, "example.ch", "")
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	ndsg, err := BuildPrompt(JurisdictionNDSG, "example.ch", "")
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if gdpr == ndsg {
		t.Error("GDPR and nDSG prompts should differ")
	}
}
