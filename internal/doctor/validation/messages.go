package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var messages = map[string]map[string]string{
	"fullName": {
		"min": "Full name must be at least 2 characters",
		"max": "Full name must not exceed 100 characters",
	},
	"licenseId": {
		"required": "License ID is required",
		"license":  "License ID can only contain letters, numbers, and hyphens",
	},
	"contactNumber": {
		"required": "Contact number is required",
		"lkphone":  "Please enter a valid Sri Lankan phone number",
	},
	"email": {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	"yearsOfExperience": {
		"min": "Years of experience must be 0 or more",
		"max": "Please enter a valid number",
	},
	"appointmentDuration": {
		"min": "Minimum 5 minutes",
		"max": "Maximum 180 minutes",
	},
	"consultationType": {
		"oneof": "Please select a valid consultation type",
	},
	"day": {
		"required": "Day is required",
		"weekday":  "Please select a valid day",
	},
	"start": {
		"required": "Start time is required",
		"hhmm":     "Time must be in HH:MM format",
	},
	"end": {
		"required": "End time is required",
		"hhmm":     "Time must be in HH:MM format",
	},
}

func messageFor(field, tag string) string {
	if byTag, ok := messages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}
	return "Invalid value"
}

// fieldPath turns "doctorRules.workingHours[2].end" into "workingHours.2.end".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		rest = namespace
	}
	r := strings.NewReplacer("[", ".", "]", "")
	return r.Replace(rest)
}

func leafName(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	return errors.As(err, target)
}
