// SPDX-License-Identifier: MIT

package txn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDelayDoubles(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
}

func TestPolicyDelayCapped(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 5 * time.Second}
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4))
	assert.Equal(t, 5*time.Second, p.Delay(9))
}

func TestPolicyNormalize(t *testing.T) {
	p := Policy{}.normalize()
	assert.Equal(t, DefaultPolicy(), p)

	p = Policy{MaxAttempts: 5}.normalize()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, p.BaseDelay)
}
