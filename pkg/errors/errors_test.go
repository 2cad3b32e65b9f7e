package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	CourseIDs []string `validate:"required,min=1"`
	Max       int      `validate:"max=50"`
}

func TestCloneMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("save: %w", Clone(ErrConflict, "sessions a1 and b1 overlap"))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "sessions a1 and b1 overlap", FromError(err).Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestValidationListsFields(t *testing.T) {
	err := validator.New().Struct(sampleRequest{Max: 99})
	require.Error(t, err)

	appErr := Validation(err, "invalid generation payload")
	assert.ErrorIs(t, appErr, ErrValidation)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.ElementsMatch(t, []FieldIssue{
		{Field: "CourseIDs", Rule: "required"},
		{Field: "Max", Rule: "max", Param: "50"},
	}, appErr.Details)

	plain := Validation(errors.New("unexpected EOF"), "invalid payload")
	assert.Empty(t, plain.Details)
}
