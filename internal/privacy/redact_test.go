package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedactor_Invalid(t *testing.T) {
	_, err := NewRedactor([]string{`[invalid`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[invalid")
}

func TestNewRedactor_Empty(t *testing.T) {
	r, err := NewRedactor(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "unchanged", r.Apply("unchanged"))
}

func TestRedactor_Apply(t *testing.T) {
	r, err := NewRedactor([]string{`(?i)token`, `(?i)secret`})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	assert.Equal(t, "My API [REDACTED] is [REDACTED]", r.Apply("My API Token is secret"))
	assert.Equal(t, "[REDACTED] [REDACTED]", r.Apply("token TOKEN"))
	assert.Equal(t, "nothing to redact here", r.Apply("nothing to redact here"))
}

func TestRedactor_Nil(t *testing.T) {
	var r *Redactor
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "same", r.Apply("same"))
}
