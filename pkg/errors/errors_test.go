package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	t.Run("known code", func(t *testing.T) {
		meta := MetadataFor(CodeNotFound)
		assert.Equal(t, http.StatusNotFound, meta.HTTPStatus)
		assert.False(t, meta.Retryable)
	})

	t.Run("payment declined maps to 402", func(t *testing.T) {
		meta := MetadataFor(CodePaymentDeclined)
		assert.Equal(t, http.StatusPaymentRequired, meta.HTTPStatus)
		assert.True(t, meta.Retryable)
	})

	t.Run("unknown code falls back to internal", func(t *testing.T) {
		meta := MetadataFor(Code("NOPE"))
		assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
	})
}

func TestErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("db timeout")
	err := Wrap(CodeDependency, cause, "query failed")

	require.NotNil(t, err)
	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "query failed", err.Message())
	assert.True(t, stdErrors.Is(err, cause))
}

func TestAs(t *testing.T) {
	t.Run("typed error in chain", func(t *testing.T) {
		inner := New(CodeConflict, "version mismatch")
		wrapped := fmt.Errorf("cart update: %w", inner)

		typed := As(wrapped)
		require.NotNil(t, typed)
		assert.Equal(t, CodeConflict, typed.Code())
	})

	t.Run("plain error yields nil", func(t *testing.T) {
		assert.Nil(t, As(fmt.Errorf("plain")))
	})

	t.Run("nil yields nil", func(t *testing.T) {
		assert.Nil(t, As(nil))
	})
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad payload").WithDetails(map[string]string{"quantity": "must be at least 1"})
	details, ok := err.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at least 1", details["quantity"])
}

func TestDump(t *testing.T) {
	inner := New(CodeStateConflict, "order already completed")
	wrapped := fmt.Errorf("update status: %w", inner)

	dump := Dump(wrapped)
	assert.Equal(t, CodeStateConflict, dump.Code)
	assert.Contains(t, dump.TopMessage, "update status")
	assert.GreaterOrEqual(t, len(dump.Chain), 2)
}
