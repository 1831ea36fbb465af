package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{Validation("bad"), CodeValidation, http.StatusBadRequest},
		{NotFound("missing"), CodeNotFound, http.StatusNotFound},
		{Forbidden("nope"), CodeForbidden, http.StatusForbidden},
		{WeekLocked(), CodeLocked, http.StatusBadRequest},
		{Duplicate("dup"), CodeDuplicate, http.StatusConflict},
		{errors.New("boom"), CodeInternal, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("x")), CodeNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, CodeOf(tc.err))
		assert.Equal(t, tc.status, Status(tc.err))
	}
}

func TestIsMatchesOnCode(t *testing.T) {
	assert.True(t, errors.Is(WeekLocked(), ErrWeekLocked))
	assert.True(t, errors.Is(fmt.Errorf("x: %w", Duplicate("again")), ErrDuplicate))
	assert.False(t, errors.Is(NotFound("x"), ErrForbidden))
}
