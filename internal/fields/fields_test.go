package fields

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.False(t, c.IsGenderShared("F1"))
	assert.True(t, c.IsGenderShared("F4"))
	assert.False(t, c.IsGenderShared("unknown"))

	f, ok := c.Get("F2")
	require.True(t, ok)
	assert.Equal(t, "Mathematics teacher", f.Title)
}

func TestParse(t *testing.T) {
	t.Run("custom catalog", func(t *testing.T) {
		c, err := Parse(strings.NewReader("fields:\n  - code: X9\n    title: Nurse\n    gender_shared: true\n"))
		require.NoError(t, err)
		assert.True(t, c.IsGenderShared("X9"))
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := Parse(strings.NewReader("fields:\n  - code: A\n  - code: A\n"))
		assert.Error(t, err)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := Parse(strings.NewReader("fields:\n  - title: Nameless\n"))
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse(strings.NewReader("fields:\n  - code: A\n    shared: true\n"))
		assert.Error(t, err)
	})
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.IsGenderShared("F6"))
}
