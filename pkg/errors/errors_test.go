package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorPreservesTypedError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", ErrNotFound)

	appErr := FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestFromErrorCancellationWinsOverWrappedCode(t *testing.T) {
	// cancellation stays visible even after a service has wrapped the
	// repo error into an INTERNAL-coded Error
	err := Wrap(context.Canceled, ErrInternal.Code, ErrInternal.Status, "register signup")

	appErr := FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CANCELLED", appErr.Code)
	assert.Equal(t, StatusClientClosedRequest, appErr.Status)
}

func TestFromErrorDeadlineExceeded(t *testing.T) {
	err := fmt.Errorf("query: %w", context.DeadlineExceeded)

	appErr := FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CANCELLED", appErr.Code)
}

func TestFromErrorUnknownIsInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, "INTERNAL", appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestFromErrorNil(t *testing.T) {
	assert.Nil(t, FromError(nil))
}
