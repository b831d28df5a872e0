// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("load lead: %w", NotFoundError("lead", int64(7)))

	assert.True(t, errors.Is(err, ErrNotFound))
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "lead 7 not found", appErr.Message)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestHandleErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"app error", ForbiddenError("nope"), http.StatusForbidden, CodeForbidden},
		{"bare sentinel", fmt.Errorf("x: %w", ErrInvalidInput), http.StatusBadRequest, CodeValidation},
		{"wrapped not found", fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.code, rec.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.body, resp.Error.Code)
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	type req struct {
		FullName string `validate:"required"`
		Order    string `validate:"oneof=asc desc"`
	}

	err := validator.New().Struct(req{Order: "up"})
	assert.Equal(t,
		"full_name is required; order must be one of: asc desc",
		FormatValidationError(err))
	assert.Equal(t, "invalid request", FormatValidationError(errors.New("x")))
}

func TestPostgresErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, IsDuplicateKeyError(dup))
	assert.False(t, IsForeignKeyError(dup))
	assert.True(t, IsForeignKeyError(fk))
	assert.False(t, IsDuplicateKeyError(errors.New("23505")))
}

func TestPaginatedMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2}, 2, 2, 5)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 5, resp.Meta.Total)
}
