package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesClonedKinds(t *testing.T) {
	err := fmt.Errorf("enroll: %w", Clone(ErrNoVacancy, "turma lotada"))

	assert.True(t, stderrors.Is(err, ErrNoVacancy))
	assert.False(t, stderrors.Is(err, ErrAlreadyEnrolled))
	assert.Equal(t, "NO_VACANCY", FromError(err).Code)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(stderrors.New("boom"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestStorageKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Storage(cause, "failed to write classes")

	assert.True(t, stderrors.Is(err, ErrStorage))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "failed to write classes: disk full", err.Error())
}
