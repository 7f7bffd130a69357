// Package notify builds the toast notifications attached to operation results.
package notify

import "time"

// Variant selects how a notification is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
	VariantWarning     Variant = "warning"
	VariantInfo        Variant = "info"
)

// Notification is what handlers attach to a response.
type Notification struct {
	Variant     Variant
	Title       string
	Description string
}

// Toast is the rendered form sent to the browser.
type Toast struct {
	Variant        Variant `json:"variant"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	Icon           string  `json:"icon,omitempty"`
	Role           string  `json:"role"`
	DismissAfterMs int64   `json:"dismissAfterMs"`
}

const (
	shortLived = 4 * time.Second
	longLived  = 8 * time.Second
)

// Render is the single place variants are turned into toasts. Unknown
// variants render as default.
func Render(n Notification) Toast {
	t := Toast{
		Variant:     n.Variant,
		Title:       n.Title,
		Description: n.Description,
		Role:        "status",
	}
	dismiss := shortLived
	switch n.Variant {
	case VariantSuccess:
		t.Icon = "check-circle"
	case VariantDestructive:
		t.Icon = "x-circle"
		t.Role = "alert"
		dismiss = longLived
	case VariantWarning:
		t.Icon = "alert-triangle"
		t.Role = "alert"
		dismiss = longLived
	case VariantInfo:
		t.Icon = "info"
	default:
		t.Variant = VariantDefault
	}
	t.DismissAfterMs = dismiss.Milliseconds()
	return t
}

func Success(title, description string) Notification {
	return Notification{Variant: VariantSuccess, Title: title, Description: description}
}

func Failure(title, description string) Notification {
	return Notification{Variant: VariantDestructive, Title: title, Description: description}
}

func Warning(title, description string) Notification {
	return Notification{Variant: VariantWarning, Title: title, Description: description}
}

func Info(title, description string) Notification {
	return Notification{Variant: VariantInfo, Title: title, Description: description}
}
