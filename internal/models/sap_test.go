package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSAPStatusPassingAlwaysResets(t *testing.T) {
	statuses := []SAPStatus{
		SAPStatusSatisfactory,
		SAPStatusWarning,
		SAPStatusProbation,
		SAPStatusSuspension,
		SAPStatusAppealApproved,
		SAPStatus("LEGACY_VALUE"),
	}
	for _, prev := range statuses {
		next, planRequired := NextSAPStatus(prev, true)
		assert.Equal(t, SAPStatusSatisfactory, next, "from %s", prev)
		assert.False(t, planRequired, "from %s", prev)
	}
}

func TestNextSAPStatusFailingEscalation(t *testing.T) {
	cases := []struct {
		prev         SAPStatus
		want         SAPStatus
		planRequired bool
	}{
		{SAPStatusSatisfactory, SAPStatusWarning, false},
		{SAPStatusWarning, SAPStatusProbation, true},
		{SAPStatusProbation, SAPStatusSuspension, false},
		{SAPStatusAppealApproved, SAPStatusSuspension, false},
		{SAPStatusSuspension, SAPStatusSuspension, false},
		{SAPStatus("LEGACY_VALUE"), SAPStatusSuspension, false},
	}
	for _, tc := range cases {
		next, planRequired := NextSAPStatus(tc.prev, false)
		assert.Equal(t, tc.want, next, "from %s", tc.prev)
		assert.Equal(t, tc.planRequired, planRequired, "from %s", tc.prev)
	}
}

func TestSAPStatusValid(t *testing.T) {
	assert.True(t, SAPStatusSatisfactory.Valid())
	assert.True(t, SAPStatusAppealApproved.Valid())
	assert.False(t, SAPStatus("").Valid())
	assert.False(t, SAPStatus("ENROLLED").Valid())
}

func TestStudentSAPStatusOrDefault(t *testing.T) {
	student := &Student{}
	require.Equal(t, SAPStatusSatisfactory, student.SAPStatusOrDefault())

	empty := SAPStatus("")
	student.CurrentSAPStatus = &empty
	require.Equal(t, SAPStatusSatisfactory, student.SAPStatusOrDefault())

	probation := SAPStatusProbation
	student.CurrentSAPStatus = &probation
	require.Equal(t, SAPStatusProbation, student.SAPStatusOrDefault())
}
