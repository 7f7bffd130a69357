package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoctor_IsInternationalReady(t *testing.T) {
	d := Doctor{Verify: true, IsActive: true, ConsultationType: ConsultationBoth}
	assert.True(t, d.IsInternationalReady())

	inactive := d
	inactive.IsActive = false
	assert.False(t, inactive.IsInternationalReady())

	unverified := d
	unverified.Verify = false
	assert.False(t, unverified.IsInternationalReady())

	inPerson := d
	inPerson.ConsultationType = ConsultationInPerson
	assert.False(t, inPerson.IsInternationalReady())
	assert.False(t, inPerson.IsTelemedicineReady())

	tele := Doctor{ConsultationType: ConsultationTelemedicine}
	assert.True(t, tele.IsTelemedicineReady())
	assert.False(t, tele.IsInternationalReady())
	assert.True(t, tele.NeedsVerification())
}

func TestDay_IsValid(t *testing.T) {
	for _, d := range Days {
		assert.True(t, d.IsValid(), d)
	}
	assert.False(t, Day("mon").IsValid())
	assert.False(t, Day("").IsValid())
}
