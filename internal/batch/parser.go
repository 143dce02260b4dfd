package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
)

// ManualEntry is one structured row from a manual-mode upload. Field
// relevance depends on the product's service type.
type ManualEntry struct {
	Account  string    `json:"account"`
	Secret   string    `json:"secret"`
	Profiles []Profile `json:"profiles"`
	Email    string    `json:"email"`
	Key      string    `json:"key"`
	Note     string    `json:"note"`
}

// ParseManual validates structured entries. Rows are validated
// independently: one bad row never aborts the rest.
func ParseManual(entries []ManualEntry, serviceType ServiceType, provider string, rules *RuleSet) ([]Record, []RowError) {
	var records []Record
	var rowErrs []RowError

	for i, e := range entries {
		rec := Record{
			Kind:           serviceType,
			Account:        strings.TrimSpace(e.Account),
			Secret:         e.Secret,
			Profiles:       e.Profiles,
			RecipientEmail: strings.TrimSpace(e.Email),
			Key:            strings.TrimSpace(e.Key),
			Note:           strings.TrimSpace(e.Note),
		}
		if reason := validate(rec, provider, rules); reason != "" {
			rowErrs = append(rowErrs, RowError{Line: i + 1, Raw: manualRaw(e), Reason: reason})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs
}

// ParseCSV reads a delimited file row by row, resolving headers through the
// rule table's alias map. The returned error covers structural failures
// (unreadable header, no usable columns); per-row failures land in the
// RowError slice.
func ParseCSV(r io.Reader, serviceType ServiceType, provider string, rules *RuleSet) ([]Record, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}

	columns := make(map[string]int)
	for i, h := range header {
		if field, ok := rules.Canonical(h); ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	if len(columns) == 0 {
		return nil, nil, errors.New("CSV header has no recognizable columns")
	}

	var records []Record
	var rowErrs []RowError
	line := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Raw: "", Reason: "malformed CSV row"})
			continue
		}
		if blankRow(row) {
			continue
		}

		rec := recordFromRow(row, columns, serviceType)
		if reason := validate(rec, provider, rules); reason != "" {
			rowErrs = append(rowErrs, RowError{Line: line, Raw: strings.Join(row, ","), Reason: reason})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

// recordFromRow maps resolved columns onto a tagged record. Profile names
// and PINs are pipe-separated lists paired by position; missing trailing
// PINs stay empty (validation decides whether that is acceptable).
func recordFromRow(row []string, columns map[string]int, serviceType ServiceType) Record {
	cell := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := Record{
		Kind: serviceType,
		Note: cell(FieldNote),
	}

	switch serviceType {
	case AccountShare:
		rec.Account = cell(FieldAccount)
		rec.Secret = cell(FieldSecret)
		names := splitList(cell(FieldProfiles))
		pins := splitList(cell(FieldPINs))
		for i, name := range names {
			p := Profile{Name: name}
			if i < len(pins) {
				p.PIN = pins[i]
			}
			rec.Profiles = append(rec.Profiles, p)
		}
	case EmailInvite:
		rec.RecipientEmail = cell(FieldEmail)
	case LicenseKey:
		rec.Key = cell(FieldKey)
	default:
		rec.Secret = cell(FieldSecret)
		rec.Key = cell(FieldKey)
	}
	return rec
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func manualRaw(e ManualEntry) string {
	// Reconstruct enough of the row for the error report without ever
	// echoing the secret back.
	parts := []string{}
	if e.Account != "" {
		parts = append(parts, "account="+e.Account)
	}
	if e.Email != "" {
		parts = append(parts, "email="+e.Email)
	}
	if e.Key != "" {
		parts = append(parts, "key="+e.Key)
	}
	for _, p := range e.Profiles {
		parts = append(parts, "profile="+p.Name)
	}
	return strings.Join(parts, " ")
}

func validEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
