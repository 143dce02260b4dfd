package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Session is the CLI's persisted login state: which server we talk to, the
// bearer token from the last login, and an optional default product that
// vendor commands fall back to. It lives in one file so logging in again
// atomically replaces everything that depends on the server identity.
type Session struct {
	Server         string `json:"server"`
	Email          string `json:"email"`
	Token          string `json:"token"`
	DefaultProduct string `json:"default_product,omitempty"`
}

func sessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".vendorvault", "session.json"), nil
}

// SaveSession writes the session file with 0600 permissions; the token is a
// credential.
func SaveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal session: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("cannot write session file %s: %w", path, err)
	}
	return nil
}

// LoadSession reads the stored session and refuses to proceed without a
// token, pointing at login instead.
func LoadSession() (Session, error) {
	path, err := sessionPath()
	if err != nil {
		return Session{}, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, fmt.Errorf("not logged in. Run 'vendorvault login' first")
		}
		return Session{}, fmt.Errorf("cannot read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("corrupt session file %s: %w", path, err)
	}
	if s.Token == "" {
		return Session{}, fmt.Errorf("session has no token. Run 'vendorvault login' to re-authenticate")
	}
	return s, nil
}

// SetDefaultProduct stores the product ID that vendor commands use when no
// product argument is given.
func SetDefaultProduct(productID string) error {
	s, err := LoadSession()
	if err != nil {
		return err
	}
	s.DefaultProduct = productID
	return SaveSession(s)
}

// resolveProduct returns the explicit product argument when present, else
// the session's default product.
func resolveProduct(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	s, err := LoadSession()
	if err != nil {
		return "", err
	}
	if s.DefaultProduct == "" {
		return "", fmt.Errorf("no product given and no default set. Run 'vendorvault product use <product-id>' first")
	}
	return s.DefaultProduct, nil
}
