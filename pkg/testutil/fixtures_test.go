package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"profilegate/internal/progressive"
	dErrors "profilegate/pkg/domain-errors"
)

func TestLoginBuilder(t *testing.T) {
	ic := NewLogin().
		ForUser(TestIDs.UserID2).
		WithName("Ada", "").
		WithLegal(progressive.BundleEUV1).
		Build()

	assert.Equal(t, TestIDs.UserID2, ic.UserID)
	assert.True(t, ic.App.IsEnabled())
	assert.True(t, ic.Profile.Has(progressive.FieldFirstName))
	assert.Nil(t, ic.Profile.LastName)
	assert.True(t, ic.Consents.Legal.SatisfiedFor(progressive.BundleEUV1))
	assert.False(t, ic.Consents.Legal.SatisfiedFor(progressive.BundleGlobalV1))

	assert.False(t, NewLogin().Disabled().Build().App.IsEnabled())
}

func TestRunConcurrentCategorizes(t *testing.T) {
	result := RunConcurrent(8, func(idx int) error {
		switch idx % 4 {
		case 0:
			return nil
		case 1:
			return dErrors.New(dErrors.CodeValidation, "bad")
		case 2:
			return dErrors.New(dErrors.CodeTimeout, "slow")
		default:
			return errors.New("boom")
		}
	})

	assert.Equal(t, int32(2), result.Successes)
	assert.Equal(t, int32(2), result.Rejected)
	assert.Equal(t, int32(2), result.Timeouts)
	assert.Equal(t, int32(2), result.Errors)
	assert.Equal(t, int32(8), result.Total())
}
