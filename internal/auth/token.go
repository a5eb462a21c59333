package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	defaultSecretService = "cyclecal"
	defaultTokenUser     = "api_token"
	defaultDBKeyUser     = "db_key"
)

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

// ErrNoToken means neither CYCLECAL_API_KEY nor the keyring holds a token.
// The app then runs against its local cache only.
var ErrNoToken = errors.New("no api token configured")

// LoadToken loads the record store API token.
//
// Order of precedence:
// 1) CYCLECAL_API_KEY environment variable.
// 2) System keyring item referenced by service/account.
func LoadToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv("CYCLECAL_API_KEY")); token != "" {
		return token, nil
	}

	token, err := loadSecret(defaultTokenUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", err
	}
	if token == "" {
		return "", errors.New("api token is empty")
	}
	return token, nil
}

// SaveToken stores the API token in the system credential store.
func SaveToken(token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return errors.New("api token cannot be empty")
	}
	return saveSecret(defaultTokenUser, trimmed)
}

func DeleteToken() error {
	service, account := keyringItem(defaultTokenUser)
	if err := keyringDelete(service, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf(
			"failed to delete keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return nil
}

// LoadDBKey returns the local cache encryption key.
func LoadDBKey() (string, error) {
	return loadSecret(defaultDBKeyUser)
}

func SaveDBKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return errors.New("db key cannot be empty")
	}
	return saveSecret(defaultDBKeyUser, trimmed)
}

func loadSecret(user string) (string, error) {
	service, account := keyringItem(user)
	secret, err := keyringGet(service, account)
	if err != nil {
		return "", fmt.Errorf(
			"failed to read keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return strings.TrimSpace(secret), nil
}

func saveSecret(user, secret string) error {
	service, account := keyringItem(user)
	if err := keyringSet(service, account, secret); err != nil {
		return fmt.Errorf(
			"failed to store keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return nil
}

// keyringItem resolves the service/account pair. CYCLECAL_KEYCHAIN_ACCOUNT
// only overrides the token item; the DB key keeps its own account name.
func keyringItem(user string) (string, string) {
	service := envOrDefault("CYCLECAL_KEYCHAIN_SERVICE", defaultSecretService)
	if user == defaultTokenUser {
		return service, envOrDefault("CYCLECAL_KEYCHAIN_ACCOUNT", defaultTokenUser)
	}
	return service, user
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
