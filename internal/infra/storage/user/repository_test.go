package user

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

func TestFallbackUsername(t *testing.T) {
	assert.Equal(t, "alice", fallbackUsername(&domain.User{ID: 2, Username: " alice "}))
	assert.Equal(t, "user_42", fallbackUsername(&domain.User{ID: 42}))
	assert.Equal(t, "user_42", fallbackUsername(&domain.User{ID: 42, Username: "   "}))
}
