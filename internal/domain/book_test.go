package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "9780134685991", NormalizeISBN("978-0-13-468599-1"))
	assert.Equal(t, "080442957X", NormalizeISBN(" 0-8044-2957-x "))
	assert.Equal(t, "", NormalizeISBN(""))
}

func TestStatusCounts_Add(t *testing.T) {
	var c StatusCounts
	for _, s := range []ReadingStatus{StatusReading, StatusCompleted, StatusCompleted, StatusNotStarted} {
		c.Add(s)
	}
	assert.Equal(t, StatusCounts{Total: 4, Completed: 2, Reading: 1, NotStarted: 1}, c)
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada", (&User{Name: "Ada", Email: "ada@example.com"}).DisplayName())
	assert.Equal(t, "ada", (&User{Email: "ada@example.com"}).DisplayName())
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}
