// Package utils provides request validation shared by the gateway.
package utils

import (
	"fmt"
	"regexp"
)

// Size limits for incoming requests.
const (
	// MaxJSONSize bounds a JSON payload accepted by the gateway.
	MaxJSONSize = 1 * 1024 * 1024

	// MaxToolIDLength bounds a dotted tool identifier.
	MaxToolIDLength = 128
)

// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots
// (service.tool format).
var ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateToolID checks a dotted tool identifier.
func ValidateToolID(id string) error {
	if id == "" {
		return fmt.Errorf("tool_id cannot be empty")
	}
	if len(id) > MaxToolIDLength {
		return fmt.Errorf("tool_id exceeds %d characters", MaxToolIDLength)
	}
	if !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("tool_id contains invalid characters")
	}
	return nil
}
