// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApprovalStatusReviewed(t *testing.T) {
	tests := []struct {
		status ApprovalStatus
		want   bool
	}{
		{StatusAutoApproved, false},
		{StatusNeedsReview, false},
		{StatusRejected, true},
		{StatusManuallyApproved, true},
		{ApprovalStatus(""), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Reviewed(), "Reviewed(%q)", tt.status)
	}
}

func TestIntervalMean(t *testing.T) {
	s := DecisionScore{ConfidenceInterval: [2]float64{96, 100}}
	assert.InDelta(t, 0.98, s.IntervalMean(), 1e-9)
}
