// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	apperr "trendseed/cli/internal/errors"
)

var hints = map[apperr.Kind]string{
	apperr.Authentication: "Check the superuser identity and password (flags, POCKETBASE_ADMIN_* variables, or 'trendseed credentials set').",
	apperr.Schema:         "The collection could not be replaced. Nothing was imported.",
	apperr.Source:         "Check the --file path. The backend was not modified.",
	apperr.Config:         "Run 'trendseed config' to inspect the effective settings.",
	apperr.Transport:      "Is the backend running and reachable at the configured --url?",
}

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Mask(err.Error())
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// Hint returns a one-line suggestion for the error's kind, or "".
func Hint(err error) string {
	if err == nil {
		return ""
	}
	return hints[apperr.KindOf(err)]
}
