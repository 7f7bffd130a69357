package models

import (
	"time"
)

// Day is a day-of-week code as the backend stores it.
type Day string

const (
	Monday    Day = "MON"
	Tuesday   Day = "TUE"
	Wednesday Day = "WED"
	Thursday  Day = "THU"
	Friday    Day = "FRI"
	Saturday  Day = "SAT"
	Sunday    Day = "SUN"
)

// Days is the fixed week order used by the working-hours editor.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// IsValid reports whether d is one of the seven day codes.
func (d Day) IsValid() bool {
	for _, day := range Days {
		if d == day {
			return true
		}
	}
	return false
}

// ConsultationType is how a doctor sees patients.
type ConsultationType string

const (
	ConsultationInPerson     ConsultationType = "In-Person"
	ConsultationTelemedicine ConsultationType = "Telemedicine"
	ConsultationBoth         ConsultationType = "Both"
)

// SupportsRemote reports whether the consultation type allows remote visits.
func (c ConsultationType) SupportsRemote() bool {
	return c == ConsultationTelemedicine || c == ConsultationBoth
}

// WorkingHour is one weekly availability window.
type WorkingHour struct {
	Day   Day    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Doctor mirrors the backend doctor resource. Verify and IsActive are
// independent flags.
type Doctor struct {
	ID                  string           `json:"id"`
	FullName            string           `json:"fullName"`
	LicenseID           string           `json:"licenseId"`
	ContactNumber       string           `json:"contactNumber"`
	Email               string           `json:"email,omitempty"`
	Specialty           string           `json:"specialty,omitempty"`
	ClinicName          string           `json:"clinicName,omitempty"`
	YearsOfExperience   *int             `json:"yearsOfExperience,omitempty"`
	WorkingHours        []WorkingHour    `json:"workingHours,omitempty"`
	AppointmentDuration *int             `json:"appointmentDuration,omitempty"`
	ConsultationType    ConsultationType `json:"consultationType,omitempty"`
	ProfileImageURL     string           `json:"profileImageUrl,omitempty"`
	Verify              bool             `json:"verify"`
	IsActive            bool             `json:"isActive"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           *time.Time       `json:"updatedAt,omitempty"`
}

// IsInternationalReady is the derived badge: verified, active and offering
// remote consultation.
func (d *Doctor) IsInternationalReady() bool {
	return d.Verify && d.IsActive && d.ConsultationType.SupportsRemote()
}

// IsTelemedicineReady reports whether the doctor offers remote consultation.
func (d *Doctor) IsTelemedicineReady() bool {
	return d.ConsultationType.SupportsRemote()
}

// NeedsVerification drives the detail view's verify banner.
func (d *Doctor) NeedsVerification() bool {
	return !d.Verify
}

// CreateDoctorPayload is the validated body sent to POST /doctor.
// Optional fields are nil when absent.
type CreateDoctorPayload struct {
	FullName            string           `json:"fullName"`
	LicenseID           string           `json:"licenseId"`
	ContactNumber       string           `json:"contactNumber"`
	Email               string           `json:"email"`
	Specialty           *string          `json:"specialty,omitempty"`
	ClinicName          *string          `json:"clinicName,omitempty"`
	YearsOfExperience   *int             `json:"yearsOfExperience,omitempty"`
	WorkingHours        []WorkingHour    `json:"workingHours,omitempty"`
	AppointmentDuration *int             `json:"appointmentDuration,omitempty"`
	ConsultationType    ConsultationType `json:"consultationType,omitempty"`
}

// UpdateDoctorPayload is a partial update; nil fields are left untouched.
type UpdateDoctorPayload struct {
	FullName            *string           `json:"fullName,omitempty"`
	LicenseID           *string           `json:"licenseId,omitempty"`
	ContactNumber       *string           `json:"contactNumber,omitempty"`
	Email               *string           `json:"email,omitempty"`
	Specialty           *string           `json:"specialty,omitempty"`
	ClinicName          *string           `json:"clinicName,omitempty"`
	YearsOfExperience   *int              `json:"yearsOfExperience,omitempty"`
	WorkingHours        []WorkingHour     `json:"workingHours,omitempty"`
	AppointmentDuration *int              `json:"appointmentDuration,omitempty"`
	ConsultationType    *ConsultationType `json:"consultationType,omitempty"`
	IsActive            *bool             `json:"isActive,omitempty"`
}

// ListResponse is the backend's paginated list envelope.
type ListResponse struct {
	Data       []Doctor `json:"data"`
	Total      int      `json:"total"`
	TotalPages int      `json:"totalPages"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
}

// ListParams are the backend list query parameters.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}
