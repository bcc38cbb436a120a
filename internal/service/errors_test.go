package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{ErrInvalidStyle, ErrEmptyImage, ErrTooManyTaskIDs, ErrAssetNotFound}
	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		op       string
		err      error
		expected string
	}{
		{
			name:     "with underlying error",
			service:  "task",
			op:       "create",
			err:      errors.New("database connection failed"),
			expected: "task service create operation failed: database connection failed",
		},
		{
			name:     "without underlying error",
			service:  "task",
			op:       "get_statuses",
			expected: "task service get_statuses operation failed",
		},
		{
			name:     "with sentinel error",
			service:  "task",
			op:       "get_asset",
			err:      ErrAssetNotFound,
			expected: "task service get_asset operation failed: asset not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewServiceError(tt.service, tt.op, tt.err).Error())
		})
	}
}

func TestServiceError_ErrorsIsAs(t *testing.T) {
	underlying := errors.New("database connection failed")
	inner := NewServiceError("task", "create", underlying)
	outer := NewServiceError("api", "wrap", inner)

	assert.True(t, errors.Is(outer, underlying))
	assert.False(t, errors.Is(outer, errors.New("database connection failed")))

	var serviceErr *ServiceError
	assert.True(t, errors.As(outer, &serviceErr))
	assert.Equal(t, "api", serviceErr.Service)

	assert.True(t, errors.As(outer.Err, &serviceErr))
	assert.Equal(t, "create", serviceErr.Op)
}
