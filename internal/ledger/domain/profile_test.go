package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfile_Validate(t *testing.T) {
	assert.NoError(t, billProfile().Validate())
	assert.NoError(t, policyProfile().Validate())

	p := billProfile()
	p.Namespace = ""
	assert.Error(t, p.Validate())

	p = billProfile()
	p.Noun = ""
	assert.Error(t, p.Validate())

	p = billProfile()
	p.ErrorStyle = "explode"
	assert.Error(t, p.Validate())

	p = billProfile()
	p.CancelMode = "archive"
	assert.Error(t, p.Validate())
}

func TestProfile_Naming(t *testing.T) {
	p := policyProfile()

	assert.Equal(t, "Policy", p.Title())
	assert.Equal(t, "insurance.schedule.missed", p.RoutingKey(AggregateSchedule, EventMissed))
	assert.Equal(t, "insurance.obligation", p.AggregateType(AggregateObligation))
	assert.Equal(t, "", Profile{}.Title())
}
