package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSetHeaderAliases(t *testing.T) {
	rules := DefaultRules()

	cases := map[string]string{
		"Account Email":    FieldAccount,
		"account_email":    FieldAccount, // normalized to the same alias
		"LOGIN":            FieldAccount,
		"Password":         FieldSecret,
		"Profile Names":    FieldProfiles,
		"profile-names":    FieldProfiles,
		"PIN":              FieldPINs,
		"License Key":      FieldKey,
		"serial":           FieldKey,
		"Recipient Email":  FieldEmail,
		"notes":            FieldNote,
	}
	for header, want := range cases {
		got, ok := rules.Canonical(header)
		require.True(t, ok, "header %q should resolve", header)
		assert.Equal(t, want, got, "header %q", header)
	}

	_, ok := rules.Canonical("favorite color")
	assert.False(t, ok)
}

func TestRuleSetPINRequired(t *testing.T) {
	rules := DefaultRules()
	assert.True(t, rules.PINRequired("netflix"))
	assert.True(t, rules.PINRequired(" Netflix "))
	assert.False(t, rules.PINRequired("spotify"))
}

func TestParseRulesCustomProvider(t *testing.T) {
	src := `
field "account" {
  aliases = ["user"]
}

provider "disney" {
  pin_required = true
}
`
	rules, err := ParseRules([]byte(src), "custom.hcl")
	require.NoError(t, err)
	assert.True(t, rules.PINRequired("disney"))

	field, ok := rules.Canonical("user")
	require.True(t, ok)
	assert.Equal(t, FieldAccount, field)
}

func TestParseManualAccountShare(t *testing.T) {
	rules := DefaultRules()

	entries := []ManualEntry{
		{
			Account: "alice@example.com",
			Secret:  "hunter2",
			Profiles: []Profile{
				{Name: "Kids", PIN: "1111"},
				{Name: "Main", PIN: "2222"},
			},
		},
		{
			// Missing secret: rejected, does not abort the batch.
			Account:  "bob@example.com",
			Profiles: []Profile{{Name: "Main"}},
		},
	}

	records, rowErrs := ParseManual(entries, AccountShare, "spotify", rules)
	require.Len(t, records, 1)
	require.Len(t, rowErrs, 1)

	assert.Equal(t, "alice@example.com", records[0].Account)
	assert.Equal(t, 2, records[0].Units())

	assert.Equal(t, 2, rowErrs[0].Line)
	assert.Contains(t, rowErrs[0].Reason, "secret")
	// The raw echo never includes the secret value.
	assert.NotContains(t, rowErrs[0].Raw, "hunter2")
}

func TestParseManualPINRule(t *testing.T) {
	rules := DefaultRules()

	entries := []ManualEntry{
		{Account: "a@x.com", Secret: "s", Profiles: []Profile{{Name: "P1", PIN: "1234"}}},
		{Account: "b@x.com", Secret: "s", Profiles: []Profile{{Name: "P1"}}},
	}

	// netflix mandates PINs: the second entry fails, the first imports.
	records, rowErrs := ParseManual(entries, AccountShare, "netflix", rules)
	require.Len(t, records, 1)
	require.Len(t, rowErrs, 1)
	assert.Contains(t, rowErrs[0].Reason, "requires a PIN")

	// Same entries pass for a provider without the rule.
	records, rowErrs = ParseManual(entries, AccountShare, "hulu", rules)
	assert.Len(t, records, 2)
	assert.Empty(t, rowErrs)
}

func TestParseManualEmailInvite(t *testing.T) {
	rules := DefaultRules()

	entries := []ManualEntry{
		{Email: "invitee@example.com"},
		{Email: "not an email"},
		{Email: ""},
	}

	records, rowErrs := ParseManual(entries, EmailInvite, "youtube", rules)
	require.Len(t, records, 1)
	assert.Equal(t, "invitee@example.com", records[0].RecipientEmail)
	assert.Equal(t, 1, records[0].Units())
	assert.Len(t, rowErrs, 2)
}

func TestParseCSVAccountShare(t *testing.T) {
	rules := DefaultRules()

	csv := strings.Join([]string{
		"Account Email,Password,Profile Names,PINs,Notes",
		"alice@x.com,pw1,Kids|Main,1111|2222,family plan",
		",,,,",
		"bob@x.com,,Solo,3333,",
		"carol@x.com,pw3,One|Two|Three,4444|5555|6666,",
	}, "\n")

	records, rowErrs, err := ParseCSV(strings.NewReader(csv), AccountShare, "netflix", rules)
	require.NoError(t, err)

	// Blank row skipped silently; bob has no password.
	require.Len(t, records, 2)
	require.Len(t, rowErrs, 1)

	assert.Equal(t, "alice@x.com", records[0].Account)
	require.Len(t, records[0].Profiles, 2)
	assert.Equal(t, Profile{Name: "Kids", PIN: "1111"}, records[0].Profiles[0])
	assert.Equal(t, 2, records[0].Units())

	assert.Equal(t, 3, records[1].Units())

	assert.Equal(t, 4, rowErrs[0].Line)
	assert.Contains(t, rowErrs[0].Reason, "secret")
}

func TestParseCSVMissingTrailingPINs(t *testing.T) {
	rules := DefaultRules()

	csv := "account,password,profiles,pins\n" +
		"a@x.com,pw,Kids|Main,9999\n"

	// hulu does not require PINs, so a missing trailing PIN is fine.
	records, rowErrs, err := ParseCSV(strings.NewReader(csv), AccountShare, "hulu", rules)
	require.NoError(t, err)
	require.Empty(t, rowErrs)
	require.Len(t, records, 1)
	assert.Equal(t, "9999", records[0].Profiles[0].PIN)
	assert.Equal(t, "", records[0].Profiles[1].PIN)

	// netflix rejects the same row.
	records, rowErrs, err = ParseCSV(strings.NewReader(csv), AccountShare, "netflix", rules)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Len(t, rowErrs, 1)
}

func TestParseCSVLicenseKeys(t *testing.T) {
	rules := DefaultRules()

	csv := "License Key,Note\nABCD-1234,retail\n,blank key\nEFGH-5678,\n"
	records, rowErrs, err := ParseCSV(strings.NewReader(csv), LicenseKey, "msoffice", rules)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ABCD-1234", records[0].Key)
	assert.Equal(t, "retail", records[0].Note)
	assert.Len(t, rowErrs, 1)
}

func TestParseCSVNoUsableColumns(t *testing.T) {
	rules := DefaultRules()

	_, _, err := ParseCSV(strings.NewReader("foo,bar\n1,2\n"), LicenseKey, "x", rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognizable columns")
}

func TestParseCSVEmptyInput(t *testing.T) {
	rules := DefaultRules()

	_, _, err := ParseCSV(strings.NewReader(""), LicenseKey, "x", rules)
	require.Error(t, err)
}

func TestRecordUnits(t *testing.T) {
	assert.Equal(t, 0, Record{Kind: AccountShare}.Units())
	assert.Equal(t, 3, Record{Kind: AccountShare, Profiles: make([]Profile, 3)}.Units())
	assert.Equal(t, 1, Record{Kind: EmailInvite}.Units())
	assert.Equal(t, 1, Record{Kind: LicenseKey}.Units())
}

func TestValidServiceType(t *testing.T) {
	assert.True(t, ValidServiceType("account_share"))
	assert.True(t, ValidServiceType("email_invite"))
	assert.True(t, ValidServiceType("license_key"))
	assert.True(t, ValidServiceType("other"))
	assert.False(t, ValidServiceType("subscription"))
	assert.False(t, ValidServiceType(""))
}
