// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"encoding/json"
	"errors"
	"strings"

	"trendseed/cli/internal/keychain"

	"github.com/pterm/pterm"
)

// SaveCredentials writes the superuser credentials to the keychain.
func SaveCredentials(c Credentials) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	km, err := keychain.GetManager()
	if err != nil {
		return err
	}
	pterm.Debug.Printfln("auth.SaveCredentials: storing credentials for %s", c.Identity)
	return km.Save(keychain.KeyAdminCredentials, b)
}

// LoadCredentials reads the stored superuser credentials. Missing state yields the
// zero value and a nil error.
func LoadCredentials() (Credentials, error) {
	var c Credentials
	km, err := keychain.GetManager()
	if err != nil {
		return c, err
	}
	data, err := km.Load(keychain.KeyAdminCredentials)
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			pterm.Debug.Println("auth.LoadCredentials: nothing stored")
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	return c, nil
}

// ClearCredentials removes the stored superuser credentials.
func ClearCredentials() error {
	km, err := keychain.GetManager()
	if err != nil {
		return err
	}
	return km.Remove(keychain.KeyAdminCredentials)
}

// Resolve fills the empty parts of c from the keychain and falls back to
// DefaultIdentity. An unavailable keychain is not an error: most runs pass
// credentials through flags or the environment.
func Resolve(c Credentials) Credentials {
	if !c.Complete() {
		stored, err := LoadCredentials()
		if err != nil {
			pterm.Debug.Printfln("auth.Resolve: keychain unavailable: %v", err)
		} else {
			if c.Identity == "" {
				c.Identity = stored.Identity
			}
			if c.Password == "" && strings.EqualFold(stored.Identity, c.Identity) {
				c.Password = stored.Password
			}
		}
	}
	if c.Identity == "" {
		c.Identity = DefaultIdentity
	}
	return c
}
