// Package credentials resolves the TipRanks account password, either from
// configuration or from the OS keyring.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const Service = "tipranks"

var ErrNoPassword = errors.New("no password configured")

// Resolve returns password if it is set, otherwise the keyring entry stored for email.
func Resolve(email, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("resolve password: %w (no email to look up)", ErrNoPassword)
	}

	pw, err := keyring.Get(Service, email)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("resolve password for %s: %w", email, ErrNoPassword)
	}
	if err != nil {
		return "", fmt.Errorf("resolve password for %s: read keyring: %w", email, err)
	}
	return pw, nil
}

func Store(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("store password: email is empty")
	}
	if password == "" {
		return fmt.Errorf("store password: password is empty")
	}
	err := keyring.Set(Service, email, password)
	if err != nil {
		return fmt.Errorf("store password for %s: %w", email, err)
	}
	return nil
}

func Forget(email string) error {
	err := keyring.Delete(Service, email)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("forget password for %s: %w", email, err)
	}
	return nil
}
