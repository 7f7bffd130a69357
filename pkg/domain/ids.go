package domain

import (
	"strings"

	dErrors "medix/pkg/domain-errors"
)

// DoctorID identifies a doctor record owned by the backend service.
type DoctorID string

func (id DoctorID) String() string {
	return string(id)
}

// ParseDoctorID validates an identifier taken from a URL before it is spliced
// into a backend path.
func ParseDoctorID(s string) (DoctorID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "doctor id is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeBadRequest, "doctor id is too long")
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return "", dErrors.New(dErrors.CodeBadRequest, "doctor id contains invalid characters")
		}
	}
	return DoctorID(s), nil
}
