package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/validation"
)

type bookRequest struct {
	Title      string `json:"title" validate:"required,max=500"`
	AuthorName string `json:"author_name" validate:"required"`
	TotalPages int    `json:"total_pages" validate:"gte=1"`
	CoverURL   string `json:"cover_url,omitempty" validate:"omitempty,url"`
	Internal   string `json:"-" validate:"max=3"`
}

func validBook() bookRequest {
	return bookRequest{Title: "Kindred", AuthorName: "Octavia E. Butler", TotalPages: 264}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(validBook()))

	withCover := validBook()
	withCover.CoverURL = "https://covers.example.com/kindred.jpg"
	assert.NoError(t, v.Validate(withCover))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(*bookRequest)
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing title",
			mutate:    func(r *bookRequest) { r.Title = "" },
			wantField: "title",
			wantMsg:   "is required",
		},
		{
			name:      "title too long",
			mutate:    func(r *bookRequest) { r.Title = strings.Repeat("a", 501) },
			wantField: "title",
			wantMsg:   "must not exceed 500 characters",
		},
		{
			name:      "zero pages",
			mutate:    func(r *bookRequest) { r.TotalPages = 0 },
			wantField: "total_pages",
			wantMsg:   "must be greater than or equal to 1",
		},
		{
			name:      "bad cover url",
			mutate:    func(r *bookRequest) { r.CoverURL = "not a url" },
			wantField: "cover_url",
			wantMsg:   "must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBook()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_ReportsEveryFieldSorted(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookRequest{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "invalid author_name, title, total_pages", domainErr.Message)
	assert.NotContains(t, err.Error(), "AuthorName")
}
