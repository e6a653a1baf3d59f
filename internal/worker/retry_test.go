package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDelayGrowsExponentially(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 8*time.Second, policy.NextDelay(4))
}

func TestNextDelayClampsToMax(t *testing.T) {
	policy := RetryPolicy{
		InitialDelay:  time.Second,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 10,
	}

	assert.Equal(t, 5*time.Second, policy.NextDelay(3))
	assert.Equal(t, 5*time.Second, policy.NextDelay(100))
}

func TestNextDelayZeroValuePolicy(t *testing.T) {
	var policy RetryPolicy

	// Нулевая политика не должна давать нулевую задержку
	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Positive(t, policy.NextDelay(0))
}

func TestDefaultRetryPolicy(t *testing.T) {
	assert.Equal(t, 5, DefaultRetryPolicy.MaxRetries)
	assert.Equal(t, 2*time.Second, DefaultRetryPolicy.NextDelay(1))
	assert.Equal(t, time.Minute, DefaultRetryPolicy.NextDelay(10))
}
