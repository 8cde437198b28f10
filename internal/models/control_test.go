package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func checks(statuses ...ComplianceStatus) ComplianceChecks {
	list := make(ComplianceChecks, 0, len(statuses))
	for _, status := range statuses {
		list = append(list, ComplianceCheck{
			ID:     uuid.New(),
			Item:   "item",
			Status: status,
		})
	}
	return list
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		checks   ComplianceChecks
		expected ControlStatus
	}{
		{
			name:     "all pending stays in progress",
			checks:   checks(CompliancePending, CompliancePending),
			expected: ControlStatusInProgress,
		},
		{
			name:     "partially resolved stays in progress",
			checks:   checks(ComplianceCompliant, CompliancePending, ComplianceNonCompliant),
			expected: ControlStatusInProgress,
		},
		{
			name:     "single pending among resolved stays in progress",
			checks:   checks(ComplianceCompliant, ComplianceCompliant, CompliancePending),
			expected: ControlStatusInProgress,
		},
		{
			name:     "all compliant completes",
			checks:   checks(ComplianceCompliant, ComplianceCompliant),
			expected: ControlStatusCompleted,
		},
		{
			name:     "one non-compliant parks at compliance check",
			checks:   checks(ComplianceCompliant, ComplianceNonCompliant),
			expected: ControlStatusComplianceCheck,
		},
		{
			name:     "all non-compliant parks at compliance check",
			checks:   checks(ComplianceNonCompliant, ComplianceNonCompliant),
			expected: ControlStatusComplianceCheck,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.checks.DeriveStatus())
		})
	}
}

func TestComplianceChecksCounters(t *testing.T) {
	list := checks(CompliancePending, ComplianceCompliant, ComplianceNonCompliant, ComplianceNonCompliant)

	assert.Equal(t, 1, list.PendingCount())
	assert.Equal(t, 2, list.NonCompliantCount())
	assert.False(t, list.AllResolved())

	resolved := checks(ComplianceCompliant, ComplianceNonCompliant)
	assert.True(t, resolved.AllResolved())
}

func TestControlStatusTerminal(t *testing.T) {
	assert.True(t, ControlStatusCompleted.Terminal())
	assert.True(t, ControlStatusFineIssued.Terminal())
	assert.False(t, ControlStatusInitiated.Terminal())
	assert.False(t, ControlStatusCertificateGenerated.Terminal())
}

func TestActionHistoryAppendDoesNotMutate(t *testing.T) {
	userID := uuid.New()

	first := ActionHistories{}.Append("Contrôle initié", userID, "Officier", nil)
	assert.Len(t, first, 1)

	second := first.Append("Vérifications mises à jour", userID, "Officier", map[string]interface{}{
		"non_compliant_count": 1,
	})
	assert.Len(t, second, 2)

	// The earlier slice keeps its original contents.
	assert.Len(t, first, 1)
	assert.Equal(t, "Contrôle initié", first[0].Action)
	assert.Equal(t, "Contrôle initié", second[0].Action)
	assert.Equal(t, "Vérifications mises à jour", second[1].Action)
	assert.False(t, second[1].Timestamp.Before(second[0].Timestamp))
}
