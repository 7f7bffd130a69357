package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medix/internal/doctor/models"
)

func validInput() DoctorInput {
	return DoctorInput{
		FullName:      "  Dr. Nimal Perera ",
		LicenseID:     " SLMC-8457 ",
		ContactNumber: "0771234567",
		Email:         " Nimal.Perera@Example.COM ",
	}
}

func TestNormalizeContactNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0771234567", "+94771234567"},
		{"771234567", "+94771234567"},
		{"+94771234567", "+94771234567"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := NormalizeContactNumber(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, NormalizeContactNumber(got), "normalization must be idempotent")
			assert.True(t, strings.HasPrefix(got, CountryPrefix))
			assert.True(t, IsValidContactNumber(got))
		})
	}
}

func TestValidateCreate(t *testing.T) {
	t.Run("valid input is trimmed and normalized", func(t *testing.T) {
		in := validInput()
		in.Specialty = "  Cardiology "
		in.ClinicName = ""
		in.YearsOfExperience = IntOf(0)
		in.ConsultationType = "Both"
		in.WorkingHours = []models.WorkingHour{{Day: models.Monday, Start: "09:00", End: "17:00"}}

		payload, errs := ValidateCreate(in)

		require.True(t, errs.Empty(), "%v", errs)
		assert.Equal(t, "Dr. Nimal Perera", payload.FullName)
		assert.Equal(t, "SLMC-8457", payload.LicenseID)
		assert.Equal(t, "+94771234567", payload.ContactNumber)
		assert.Equal(t, "nimal.perera@example.com", payload.Email)
		require.NotNil(t, payload.Specialty)
		assert.Equal(t, "Cardiology", *payload.Specialty)
		assert.Nil(t, payload.ClinicName)
		require.NotNil(t, payload.YearsOfExperience)
		assert.Equal(t, 0, *payload.YearsOfExperience)
		assert.Equal(t, models.ConsultationBoth, payload.ConsultationType)
	})

	t.Run("empty form reports every required field", func(t *testing.T) {
		_, errs := ValidateCreate(DoctorInput{})

		assert.Equal(t, []string{"Full name must be at least 2 characters"}, errs["fullName"])
		assert.Equal(t, []string{"License ID is required"}, errs["licenseId"])
		assert.Equal(t, []string{"Contact number is required"}, errs["contactNumber"])
		assert.Equal(t, []string{"Email is required"}, errs["email"])
	})

	t.Run("format and range failures", func(t *testing.T) {
		in := validInput()
		in.FullName = " A "
		in.LicenseID = "SLMC 8457"
		in.ContactNumber = "0112345678"
		in.Email = "not-an-email"
		in.YearsOfExperience = IntOf(71)
		in.AppointmentDuration = IntOf(4)
		in.ConsultationType = "Home Visit"

		_, errs := ValidateCreate(in)

		assert.Equal(t, []string{"Full name must be at least 2 characters"}, errs["fullName"])
		assert.Equal(t, []string{"License ID can only contain letters, numbers, and hyphens"}, errs["licenseId"])
		assert.Equal(t, []string{"Please enter a valid Sri Lankan phone number"}, errs["contactNumber"])
		assert.Equal(t, []string{"Please enter a valid email address"}, errs["email"])
		assert.Equal(t, []string{"Please enter a valid number"}, errs["yearsOfExperience"])
		assert.Equal(t, []string{"Minimum 5 minutes"}, errs["appointmentDuration"])
		assert.Equal(t, []string{"Please select a valid consultation type"}, errs["consultationType"])
	})

	t.Run("full name longer than 100 characters", func(t *testing.T) {
		in := validInput()
		in.FullName = strings.Repeat("a", 101)

		_, errs := ValidateCreate(in)
		assert.Equal(t, []string{"Full name must not exceed 100 characters"}, errs["fullName"])
	})

	t.Run("appointment duration bounds are inclusive", func(t *testing.T) {
		for _, v := range []int{5, 180} {
			in := validInput()
			in.AppointmentDuration = IntOf(v)
			_, errs := ValidateCreate(in)
			assert.True(t, errs.Empty(), "duration %d: %v", v, errs)
		}
		in := validInput()
		in.AppointmentDuration = IntOf(181)
		_, errs := ValidateCreate(in)
		assert.Equal(t, []string{"Maximum 180 minutes"}, errs["appointmentDuration"])
	})

	t.Run("working hour end must be after start", func(t *testing.T) {
		in := validInput()
		in.WorkingHours = []models.WorkingHour{
			{Day: models.Monday, Start: "09:00", End: "09:00"},
			{Day: models.Tuesday, Start: "9am", End: "17:00"},
		}

		_, errs := ValidateCreate(in)

		assert.Equal(t, []string{"End time must be after start time"}, errs["workingHours.0.end"])
		assert.Equal(t, []string{"Time must be in HH:MM format"}, errs["workingHours.1.start"])
	})

	t.Run("duplicate day is reported on the later row", func(t *testing.T) {
		in := validInput()
		in.WorkingHours = []models.WorkingHour{
			{Day: models.Monday, Start: "09:00", End: "12:00"},
			{Day: models.Monday, Start: "13:00", End: "17:00"},
		}

		_, errs := ValidateCreate(in)

		assert.Equal(t, []string{"MON is already listed in row 1"}, errs["workingHours.1.day"])
		assert.NotContains(t, errs, "workingHours.0.day")
	})

	t.Run("every repeated row is reported", func(t *testing.T) {
		in := validInput()
		in.WorkingHours = []models.WorkingHour{
			{Day: models.Monday, Start: "09:00", End: "12:00"},
			{Day: models.Tuesday, Start: "09:00", End: "12:00"},
			{Day: models.Monday, Start: "13:00", End: "17:00"},
			{Day: models.Tuesday, Start: "13:00", End: "17:00"},
		}

		_, errs := ValidateCreate(in)

		assert.Contains(t, errs, "workingHours.2.day")
		assert.Equal(t, []string{"TUE is already listed in row 2"}, errs["workingHours.3.day"])
	})
}

func TestValidateWorkingHour(t *testing.T) {
	assert.False(t, ValidateWorkingHour(models.WorkingHour{Day: models.Monday, Start: "09:00", End: "09:00"}).Empty())
	assert.True(t, ValidateWorkingHour(models.WorkingHour{Day: models.Monday, Start: "09:00", End: "17:00"}).Empty())
	assert.Contains(t, ValidateWorkingHour(models.WorkingHour{Day: "FUN", Start: "09:00", End: "17:00"}), "workingHours.0.day")
}

func TestValidateUpdate(t *testing.T) {
	t.Run("only present fields are checked", func(t *testing.T) {
		phone := "771234567"
		active := false

		out, errs := ValidateUpdate(DoctorPatch{ContactNumber: &phone, IsActive: &active})

		require.True(t, errs.Empty(), "%v", errs)
		require.NotNil(t, out.ContactNumber)
		assert.Equal(t, "+94771234567", *out.ContactNumber)
		assert.Nil(t, out.FullName)
		require.NotNil(t, out.IsActive)
		assert.False(t, *out.IsActive)
	})

	t.Run("present but blank required field fails", func(t *testing.T) {
		blank := "   "
		_, errs := ValidateUpdate(DoctorPatch{Email: &blank})
		assert.Equal(t, []string{"Email is required"}, errs["email"])
	})
}

func TestInt_UnmarshalJSON(t *testing.T) {
	var in struct {
		A Int `json:"a"`
		B Int `json:"b"`
		C Int `json:"c"`
		D Int `json:"d"`
		E Int `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"7","c":"","d":null,"e":"ten"}`), &in))

	require.NotNil(t, in.A.Value)
	assert.Equal(t, 12, *in.A.Value)
	require.NotNil(t, in.B.Value)
	assert.Equal(t, 7, *in.B.Value)
	assert.Nil(t, in.C.Value)
	assert.Nil(t, in.D.Value)
	assert.True(t, in.E.Invalid)

	_, errs := ValidateCreate(DoctorInput{YearsOfExperience: in.E})
	assert.Contains(t, errs["yearsOfExperience"], "Please enter a valid number")
}
