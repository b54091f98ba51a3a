package stockrequest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Table(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusShipped, StatusReceived}
	legal := map[[2]Status]bool{
		{StatusPending, StatusApproved}:  true,
		{StatusPending, StatusRejected}:  true,
		{StatusApproved, StatusShipped}:  true,
		{StatusShipped, StatusReceived}:  true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusReceived.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, Status("bogus").Terminal())
	assert.False(t, Status("bogus").Valid())
}
