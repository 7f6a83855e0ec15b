package policy

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

// SystemPrompt is sent with every generation request.
const SystemPrompt = "You are a professional privacy lawyer specializing in GDPR and Swiss nDSG compliance."

// DefaultCompanyName is used when the caller does not supply a company name.
const DefaultCompanyName = "Your Company"

//go:embed templates/gdpr.tmpl
var gdprPromptTmpl string

//go:embed templates/ndsg.tmpl
var ndsgPromptTmpl string

//go:embed templates/both.tmpl
var bothPromptTmpl string

var (
	gdprTemplate = template.Must(template.New("gdpr").Parse(gdprPromptTmpl))
	ndsgTemplate = template.Must(template.New("ndsg").Parse(ndsgPromptTmpl))
	bothTemplate = template.Must(template.New("both").Parse(bothPromptTmpl))
)

// PromptData holds the variables substituted into the prompt templates.
type PromptData struct {
	Domain  string
	Company string
}

// BuildPrompt renders the jurisdiction-specific generation prompt.
// Rendering is deterministic: the same inputs always produce the same prompt.
func BuildPrompt(j Jurisdiction, domain, companyName string) (string, error) {
	if companyName == "" {
		companyName = DefaultCompanyName
	}

	var tmpl *template.Template
	switch j {
	case JurisdictionGDPR:
		tmpl = gdprTemplate
	case JurisdictionNDSG:
		tmpl = ndsgTemplate
	case JurisdictionBoth:
		tmpl = bothTemplate
	default:
		return "", fmt.Errorf("invalid jurisdiction %q", j)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, PromptData{Domain: domain, Company: companyName}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
