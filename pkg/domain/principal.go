package domain

import "strings"

// Principal is the authenticated admin behind a request. AccessToken is the
// backend bearer credential; it never leaves the server.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	AccessToken string `json:"-"`
}

// IsZero reports whether no admin is attached.
func (p Principal) IsZero() bool {
	return strings.TrimSpace(p.ID) == ""
}
