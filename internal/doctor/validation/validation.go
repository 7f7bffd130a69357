// Package validation checks and normalizes doctor payloads before they are
// sent to the backend. Failures are field-keyed messages, never fatal errors.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"medix/internal/doctor/models"
	"medix/internal/doctor/workinghours"
)

var (
	licensePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	phonePattern   = regexp.MustCompile(`^(\+94|0)?7[0-9]{8}$`)
	timePattern    = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// CountryPrefix is prepended to normalized contact numbers.
const CountryPrefix = "+94"

// FormMessage accompanies FieldErrors in 422 responses.
const FormMessage = "Please fix the errors below."

// FieldErrors maps a JSON field path to its messages.
type FieldErrors map[string][]string

// Add appends msg for field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Empty reports whether no field failed.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Int is an optional integer form field. It accepts a JSON number or a numeric
// string; null and "" mean absent.
type Int struct {
	Value   *int
	Invalid bool
}

// IntOf returns a present Int.
func IntOf(v int) Int {
	return Int{Value: &v}
}

func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = Int{}
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*i = Int{}
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*i = Int{Invalid: true}
		return nil
	}
	*i = Int{Value: &n}
	return nil
}

func (i Int) MarshalJSON() ([]byte, error) {
	if i.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*i.Value)), nil
}

// DoctorInput is the raw create form.
type DoctorInput struct {
	FullName            string               `json:"fullName"`
	LicenseID           string               `json:"licenseId"`
	ContactNumber       string               `json:"contactNumber"`
	Email               string               `json:"email"`
	Specialty           string               `json:"specialty"`
	ClinicName          string               `json:"clinicName"`
	YearsOfExperience   Int                  `json:"yearsOfExperience"`
	AppointmentDuration Int                  `json:"appointmentDuration"`
	ConsultationType    string               `json:"consultationType"`
	WorkingHours        []models.WorkingHour `json:"workingHours"`
}

// DoctorPatch is the raw partial update form. Nil fields are not validated.
type DoctorPatch struct {
	FullName            *string              `json:"fullName"`
	LicenseID           *string              `json:"licenseId"`
	ContactNumber       *string              `json:"contactNumber"`
	Email               *string              `json:"email"`
	Specialty           *string              `json:"specialty"`
	ClinicName          *string              `json:"clinicName"`
	YearsOfExperience   Int                  `json:"yearsOfExperience"`
	AppointmentDuration Int                  `json:"appointmentDuration"`
	ConsultationType    *string              `json:"consultationType"`
	WorkingHours        []models.WorkingHour `json:"workingHours"`
	IsActive            *bool                `json:"isActive"`
}

type hourRules struct {
	Day   string `json:"day" validate:"required,weekday"`
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

type doctorRules struct {
	FullName            *string     `json:"fullName" validate:"omitempty,min=2,max=100"`
	LicenseID           *string     `json:"licenseId" validate:"omitempty,license"`
	ContactNumber       *string     `json:"contactNumber" validate:"omitempty,lkphone"`
	Email               *string     `json:"email" validate:"omitempty,email"`
	YearsOfExperience   *int        `json:"yearsOfExperience" validate:"omitempty,min=0,max=70"`
	AppointmentDuration *int        `json:"appointmentDuration" validate:"omitempty,min=5,max=180"`
	ConsultationType    *string     `json:"consultationType" validate:"omitempty,oneof=In-Person Telemedicine Both"`
	WorkingHours        []hourRules `json:"workingHours" validate:"omitempty,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	mustRegister(v, "license", func(fl validator.FieldLevel) bool {
		return licensePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "lkphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool {
		return timePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "weekday", func(fl validator.FieldLevel) bool {
		return models.Day(fl.Field().String()).IsValid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// NormalizeContactNumber rewrites a local mobile number into +94 form.
// Already-prefixed numbers pass through, so the function is idempotent.
func NormalizeContactNumber(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasPrefix(v, CountryPrefix):
		return v
	case strings.HasPrefix(v, "0"):
		return CountryPrefix + v[1:]
	default:
		return CountryPrefix + v
	}
}

// IsValidContactNumber reports whether v matches the local mobile pattern.
func IsValidContactNumber(v string) bool {
	return phonePattern.MatchString(strings.TrimSpace(v))
}

// ValidateCreate checks a create form and returns the normalized payload.
// The payload is only meaningful when errs is empty.
func ValidateCreate(in DoctorInput) (models.CreateDoctorPayload, FieldErrors) {
	errs := FieldErrors{}

	fullName := strings.TrimSpace(in.FullName)
	license := strings.TrimSpace(in.LicenseID)
	phone := strings.TrimSpace(in.ContactNumber)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if fullName == "" {
		errs.Add("fullName", messageFor("fullName", "min"))
	}
	if license == "" {
		errs.Add("licenseId", messageFor("licenseId", "required"))
	}
	if phone == "" {
		errs.Add("contactNumber", messageFor("contactNumber", "required"))
	}
	if email == "" {
		errs.Add("email", messageFor("email", "required"))
	}

	rules := doctorRules{
		FullName:            nonEmpty(fullName),
		LicenseID:           nonEmpty(license),
		ContactNumber:       nonEmpty(phone),
		Email:               nonEmpty(email),
		YearsOfExperience:   in.YearsOfExperience.Value,
		AppointmentDuration: in.AppointmentDuration.Value,
		ConsultationType:    nonEmpty(strings.TrimSpace(in.ConsultationType)),
		WorkingHours:        toHourRules(in.WorkingHours),
	}
	checkInts(errs, in.YearsOfExperience, in.AppointmentDuration)
	runRules(errs, rules)
	checkHours(errs, in.WorkingHours)

	payload := models.CreateDoctorPayload{
		FullName:            fullName,
		LicenseID:           license,
		ContactNumber:       NormalizeContactNumber(phone),
		Email:               email,
		Specialty:           optional(in.Specialty),
		ClinicName:          optional(in.ClinicName),
		YearsOfExperience:   in.YearsOfExperience.Value,
		AppointmentDuration: in.AppointmentDuration.Value,
		ConsultationType:    models.ConsultationType(strings.TrimSpace(in.ConsultationType)),
		WorkingHours:        in.WorkingHours,
	}
	return payload, errs
}

// ValidateUpdate checks the fields present in a partial update.
func ValidateUpdate(in DoctorPatch) (models.UpdateDoctorPayload, FieldErrors) {
	errs := FieldErrors{}
	out := models.UpdateDoctorPayload{
		YearsOfExperience:   in.YearsOfExperience.Value,
		AppointmentDuration: in.AppointmentDuration.Value,
		WorkingHours:        in.WorkingHours,
		IsActive:            in.IsActive,
	}
	rules := doctorRules{
		YearsOfExperience:   in.YearsOfExperience.Value,
		AppointmentDuration: in.AppointmentDuration.Value,
		WorkingHours:        toHourRules(in.WorkingHours),
	}

	if in.FullName != nil {
		v := strings.TrimSpace(*in.FullName)
		if v == "" {
			errs.Add("fullName", messageFor("fullName", "min"))
		}
		rules.FullName, out.FullName = nonEmpty(v), &v
	}
	if in.LicenseID != nil {
		v := strings.TrimSpace(*in.LicenseID)
		if v == "" {
			errs.Add("licenseId", messageFor("licenseId", "required"))
		}
		rules.LicenseID, out.LicenseID = nonEmpty(v), &v
	}
	if in.ContactNumber != nil {
		v := strings.TrimSpace(*in.ContactNumber)
		if v == "" {
			errs.Add("contactNumber", messageFor("contactNumber", "required"))
		}
		normalized := NormalizeContactNumber(v)
		rules.ContactNumber, out.ContactNumber = nonEmpty(v), &normalized
	}
	if in.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*in.Email))
		if v == "" {
			errs.Add("email", messageFor("email", "required"))
		}
		rules.Email, out.Email = nonEmpty(v), &v
	}
	if in.Specialty != nil {
		v := strings.TrimSpace(*in.Specialty)
		out.Specialty = &v
	}
	if in.ClinicName != nil {
		v := strings.TrimSpace(*in.ClinicName)
		out.ClinicName = &v
	}
	if in.ConsultationType != nil {
		v := strings.TrimSpace(*in.ConsultationType)
		rules.ConsultationType = nonEmpty(v)
		if v != "" {
			ct := models.ConsultationType(v)
			out.ConsultationType = &ct
		}
	}

	checkInts(errs, in.YearsOfExperience, in.AppointmentDuration)
	runRules(errs, rules)
	checkHours(errs, in.WorkingHours)
	return out, errs
}

func runRules(errs FieldErrors, rules doctorRules) {
	err := validate.Struct(rules)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		errs.Add("form", "Please check the form and fix the errors.")
		return
	}
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		errs.Add(field, messageFor(leafName(field), fe.Tag()))
	}
}

func checkInts(errs FieldErrors, years, duration Int) {
	if years.Invalid {
		errs.Add("yearsOfExperience", "Please enter a valid number")
	}
	if duration.Invalid {
		errs.Add("appointmentDuration", "Please enter a valid number")
	}
}

// checkHours adds the cross-field rules the tag set cannot express.
func checkHours(errs FieldErrors, hours []models.WorkingHour) {
	for i, h := range hours {
		if timePattern.MatchString(h.Start) && timePattern.MatchString(h.End) && h.End <= h.Start {
			errs.Add(fmt.Sprintf("workingHours.%d.end", i), "End time must be after start time")
		}
	}

	// Unknown days are reported by the field rules.
	_, err := workinghours.New(hours)
	var dupErr *workinghours.DuplicateDayError
	if errors.As(err, &dupErr) {
		for _, c := range dupErr.Conflicts {
			errs.Add(fmt.Sprintf("workingHours.%d.day", c.Row),
				fmt.Sprintf("%s is already listed in row %d", c.Day, c.First+1))
		}
	}
}

// ValidateWorkingHour checks a single entry on its own.
func ValidateWorkingHour(h models.WorkingHour) FieldErrors {
	errs := FieldErrors{}
	runRules(errs, doctorRules{WorkingHours: toHourRules([]models.WorkingHour{h})})
	checkHours(errs, []models.WorkingHour{h})
	return errs
}

func toHourRules(hours []models.WorkingHour) []hourRules {
	if hours == nil {
		return nil
	}
	out := make([]hourRules, len(hours))
	for i, h := range hours {
		out[i] = hourRules{Day: string(h.Day), Start: h.Start, End: h.End}
	}
	return out
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optional(v string) *string {
	return nonEmpty(strings.TrimSpace(v))
}
