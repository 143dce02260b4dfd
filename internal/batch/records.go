// Package batch turns vendor credential uploads (manual entries or CSV
// files) into validated, normalized credential records. Provider-specific
// rules come from an HCL rule table so new provider formats are a data
// change, not a code change.
package batch

import (
	"fmt"
	"strings"
)

// ServiceType tags the credential variant a product sells.
type ServiceType string

const (
	AccountShare ServiceType = "account_share"
	EmailInvite  ServiceType = "email_invite"
	LicenseKey   ServiceType = "license_key"
	OtherService ServiceType = "other"
)

// ValidServiceType reports whether s is a known service type.
func ValidServiceType(s string) bool {
	switch ServiceType(s) {
	case AccountShare, EmailInvite, LicenseKey, OtherService:
		return true
	}
	return false
}

// Profile is one assignable slot on a shared account.
type Profile struct {
	Name string `json:"name"`
	PIN  string `json:"pin,omitempty"`
}

// Record is one validated credential unit group. The Kind tag selects which
// fields are meaningful; validation happens once here so downstream layers
// never branch on partially-filled shapes.
type Record struct {
	Kind ServiceType `json:"kind"`

	// account_share
	Account  string    `json:"account,omitempty"`
	Secret   string    `json:"secret,omitempty"`
	Profiles []Profile `json:"profiles,omitempty"`

	// email_invite
	RecipientEmail string `json:"recipient_email,omitempty"`

	// license_key
	Key string `json:"key,omitempty"`

	Note string `json:"note,omitempty"`
}

// Units is the number of sellable units this record contributes: one per
// profile for shared accounts, one otherwise.
func (r Record) Units() int {
	if r.Kind == AccountShare {
		return len(r.Profiles)
	}
	return 1
}

// RowError records a row that failed validation, keeping the original
// content so the vendor can fix and resubmit.
type RowError struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

// validate checks a record against its kind's rules and the provider rule
// table. It returns a human-readable reason on failure.
func validate(r Record, provider string, rules *RuleSet) string {
	switch r.Kind {
	case AccountShare:
		if strings.TrimSpace(r.Account) == "" {
			return "account identifier is required"
		}
		if r.Secret == "" {
			return "account secret is required"
		}
		if len(r.Profiles) == 0 {
			return "at least one named profile is required"
		}
		pinRequired := rules.PINRequired(provider)
		for _, p := range r.Profiles {
			if strings.TrimSpace(p.Name) == "" {
				return "profile name must not be empty"
			}
			if pinRequired && strings.TrimSpace(p.PIN) == "" {
				return fmt.Sprintf("provider %q requires a PIN for profile %q", provider, p.Name)
			}
		}
	case EmailInvite:
		if !validEmail(r.RecipientEmail) {
			return "a valid recipient email address is required"
		}
	case LicenseKey:
		if strings.TrimSpace(r.Key) == "" {
			return "license key must not be empty"
		}
	case OtherService:
		if r.Secret == "" && r.Key == "" && r.Note == "" {
			return "credential content must not be empty"
		}
	default:
		return fmt.Sprintf("unknown service type %q", r.Kind)
	}
	return ""
}
