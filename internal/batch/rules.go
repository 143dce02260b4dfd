package batch

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// RuleSet is the provider rule table: which providers require profile PINs
// and how CSV headers map onto canonical record fields. Loaded from HCL so
// operators can extend it without a rebuild.
type RuleSet struct {
	pinRequired map[string]bool
	aliases     map[string]string // normalized header -> canonical field
}

// Canonical record fields a CSV header can resolve to.
const (
	FieldAccount  = "account"
	FieldSecret   = "secret"
	FieldProfiles = "profiles"
	FieldPINs     = "pins"
	FieldEmail    = "email"
	FieldKey      = "key"
	FieldNote     = "note"
)

type hclRuleFile struct {
	Fields    []hclField    `hcl:"field,block"`
	Providers []hclProvider `hcl:"provider,block"`
}

type hclField struct {
	Name    string   `hcl:"name,label"`
	Aliases []string `hcl:"aliases"`
}

type hclProvider struct {
	Name        string `hcl:"name,label"`
	PINRequired bool   `hcl:"pin_required,optional"`
}

// defaultRulesHCL ships the baseline table. The pin_required providers are
// the ones whose shared accounts use parental-control profile PINs.
const defaultRulesHCL = `
field "account" {
  aliases = ["account", "email", "login", "username", "account email", "account_id"]
}

field "secret" {
  aliases = ["secret", "password", "pass", "account password"]
}

field "profiles" {
  aliases = ["profiles", "profile", "profile names", "slots"]
}

field "pins" {
  aliases = ["pins", "pin", "profile pins"]
}

field "email" {
  aliases = ["email", "recipient", "recipient email", "invite email"]
}

field "key" {
  aliases = ["key", "license", "license key", "code", "serial"]
}

field "note" {
  aliases = ["note", "notes", "comment", "remark"]
}

provider "netflix" {
  pin_required = true
}
`

// ParseRules parses an HCL rule table.
func ParseRules(src []byte, filename string) (*RuleSet, error) {
	var file hclRuleFile
	if err := hclsimple.Decode(filename, src, nil, &file); err != nil {
		if diags, ok := err.(hcl.Diagnostics); ok {
			for _, diag := range diags {
				if diag.Severity == hcl.DiagError {
					return nil, fmt.Errorf("rule file error at %s: %s", diag.Subject, diag.Detail)
				}
			}
		}
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	rs := &RuleSet{
		pinRequired: make(map[string]bool),
		aliases:     make(map[string]string),
	}
	for _, f := range file.Fields {
		for _, alias := range f.Aliases {
			rs.aliases[normalizeHeader(alias)] = f.Name
		}
		// A field name always resolves to itself.
		rs.aliases[normalizeHeader(f.Name)] = f.Name
	}
	for _, p := range file.Providers {
		rs.pinRequired[strings.ToLower(p.Name)] = p.PINRequired
	}
	return rs, nil
}

// LoadRulesFile reads and parses a rule table from disk.
func LoadRulesFile(path string) (*RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}
	return ParseRules(src, path)
}

// DefaultRules returns the built-in rule table.
func DefaultRules() *RuleSet {
	rs, err := ParseRules([]byte(defaultRulesHCL), "builtin.hcl")
	if err != nil {
		panic("built-in provider rules are invalid: " + err.Error())
	}
	return rs
}

// PINRequired reports whether the provider mandates a PIN on every profile.
func (rs *RuleSet) PINRequired(provider string) bool {
	return rs.pinRequired[strings.ToLower(strings.TrimSpace(provider))]
}

// Canonical resolves a CSV header to a canonical field name.
func (rs *RuleSet) Canonical(header string) (string, bool) {
	field, ok := rs.aliases[normalizeHeader(header)]
	return field, ok
}

// normalizeHeader folds case and separator variants ("Account Email",
// "account_email", "account-email") onto one spelling.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, h)
	return h
}
