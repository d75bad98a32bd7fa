package phi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSensitive(t *testing.T) {
	c := NewClassifier()

	t.Run("contact fields are sensitive", func(t *testing.T) {
		assert.True(t, c.IsSensitive(map[string]any{"name": "John", "email": "j@x.com"}))
	})

	t.Run("case insensitive key match", func(t *testing.T) {
		assert.True(t, c.IsSensitive(map[string]any{"Email": "j@x.com"}))
		assert.True(t, c.IsSensitive(map[string]any{"SSN": "123-45-6789"}))
	})

	t.Run("catalog fields are not sensitive", func(t *testing.T) {
		assert.False(t, c.IsSensitive(map[string]any{"price": 100, "duration": "1 day"}))
	})

	t.Run("empty record is not sensitive", func(t *testing.T) {
		assert.False(t, c.IsSensitive(map[string]any{}))
	})
}

func TestProjectForRole(t *testing.T) {
	c := NewClassifier()
	fields := []string{"name", "email", "phone", "ssn", "medical_condition"}

	t.Run("staff excluded from medical fields", func(t *testing.T) {
		got := c.ProjectForRole(fields, "staff")
		assert.Equal(t, []string{"name", "email", "phone"}, got)
	})

	t.Run("physician sees medical condition but not ssn", func(t *testing.T) {
		got := c.ProjectForRole(fields, "physician")
		assert.Contains(t, got, "medical_condition")
		assert.NotContains(t, got, "ssn")
	})

	t.Run("admin wildcard returns fields unchanged", func(t *testing.T) {
		assert.Equal(t, fields, c.ProjectForRole(fields, "admin"))
	})

	t.Run("unknown role denied by default", func(t *testing.T) {
		assert.Empty(t, c.ProjectForRole(fields, "intern"))
	})
}

func TestRedactForLogging(t *testing.T) {
	c := NewClassifier()

	record := map[string]any{"name": "John", "price": 100}
	redacted := c.RedactForLogging(record)

	require.Equal(t, RedactionMarker, redacted["name"])
	require.Equal(t, 100, redacted["price"])

	// Shallow copy: the input record is untouched.
	require.Equal(t, "John", record["name"])
}
