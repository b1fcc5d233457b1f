package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateToolID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"dotted id", "capability.grant", false},
		{"with hyphen", "scheduler.schedule-next", false},
		{"empty", "", true},
		{"spaces", "ipc send", true},
		{"slash", "ipc/send", true},
		{"too long", strings.Repeat("a", MaxToolIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToolID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
