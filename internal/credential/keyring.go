package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "healthalerts"

	// TokenKey is the keyring item holding the backend bearer token.
	TokenKey = "api-token"

	// TokenEnv overrides the stored token when set.
	TokenEnv = "HEALTHALERTS_API_TOKEN"
)

// ErrNoToken is returned when neither the environment nor the keyring
// holds a token.
var ErrNoToken = errors.New("no API token configured")

// Vault reads and writes credentials in a keyring.
type Vault struct {
	ring   keyring.Keyring
	getenv func(string) string
}

// Open returns a Vault backed by the OS keyring, falling back to an
// encrypted file under fileDir.
func Open(fileDir string) (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("healthalerts-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewVault(ring), nil
}

// NewVault wraps an existing keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring, getenv: os.Getenv}
}

// Get retrieves a credential value by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (v *Vault) Set(key, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "Health alerts " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key.
func (v *Vault) Delete(key string) error {
	if err := v.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// ResetToken removes the stored API token. A token that is already
// absent is not an error.
func (v *Vault) ResetToken() error {
	err := v.ring.Remove(TokenKey)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("resetting API token: %w", err)
}

// Token returns the API token, preferring the environment override.
func (v *Vault) Token() (string, error) {
	if tok := strings.TrimSpace(v.getenv(TokenEnv)); tok != "" {
		return tok, nil
	}

	tok, err := v.Get(TokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if tok = strings.TrimSpace(tok); tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// SetToken stores the API token in the keyring.
func (v *Vault) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	return v.Set(TokenKey, token)
}
