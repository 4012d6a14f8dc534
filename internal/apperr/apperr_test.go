package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusByKind(t *testing.T) {
	cases := map[Kind]int{
		KindMissingField:       http.StatusBadRequest,
		KindDuplicateIdentity:  http.StatusConflict,
		KindInvalidCredentials: http.StatusUnauthorized,
		KindExpiredToken:       http.StatusUnauthorized,
		KindForbidden:          http.StatusForbidden,
		KindNotFound:           http.StatusNotFound,
		KindMethodNotAllowed:   http.StatusMethodNotAllowed,
		KindStoreUnavailable:   http.StatusInternalServerError,
		Kind("UNKNOWN"):        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, New(kind, "x").Status(), string(kind))
	}
}

func TestFromWrapsUnclassified(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := From(cause)
	require.NotNil(t, e)
	assert.Equal(t, KindStoreUnavailable, e.Kind)
	assert.Equal(t, "internal server error", e.Message)
	assert.False(t, e.ClientFault())
	assert.ErrorIs(t, e, cause)
	assert.Nil(t, From(nil))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("register: %w", NotFound("account"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindValidation))
	assert.Equal(t, KindStoreUnavailable, KindOf(errors.New("boom")))
}

func TestMissingFieldsDetails(t *testing.T) {
	e := MissingFields("firstName", "address")
	assert.Equal(t, KindMissingField, e.Kind)
	assert.Equal(t, []string{"firstName", "address"}, e.Details["fields"])
	assert.True(t, e.ClientFault())
}
