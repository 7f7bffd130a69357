package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		in      Notification
		variant Variant
		icon    string
		role    string
		dismiss int64
	}{
		{"success", Success("Doctor Created", "Dr. Silva has been successfully registered."), VariantSuccess, "check-circle", "status", 4000},
		{"destructive", Failure("Verification Failed", "Failed to verify doctor"), VariantDestructive, "x-circle", "alert", 8000},
		{"warning", Warning("Heads up", ""), VariantWarning, "alert-triangle", "alert", 8000},
		{"info", Info("Note", ""), VariantInfo, "info", "status", 4000},
		{"default", Notification{Title: "Saved"}, VariantDefault, "", "status", 4000},
		{"unknown falls back to default", Notification{Variant: "sparkly", Title: "x"}, VariantDefault, "", "status", 4000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Render(tc.in)
			assert.Equal(t, tc.variant, got.Variant)
			assert.Equal(t, tc.icon, got.Icon)
			assert.Equal(t, tc.role, got.Role)
			assert.Equal(t, tc.dismiss, got.DismissAfterMs)
			assert.Equal(t, tc.in.Title, got.Title)
		})
	}
}
