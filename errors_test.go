package commitsplit_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/commitsplit"
	"github.com/stretchr/testify/assert"
)

func TestNewParseError(t *testing.T) {
	t.Parallel()

	t.Run("short fragment is kept", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("bad hunk")
		err := commitsplit.NewParseError("@@ -x @@", cause)
		assert.Equal(t, "@@ -x @@", err.Fragment)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("long fragment is shortened", func(t *testing.T) {
		t.Parallel()

		err := commitsplit.NewParseError(strings.Repeat("a", 300), nil)
		assert.Equal(t, strings.Repeat("a", 120)+"...", err.Fragment)
	})

	t.Run("multi-byte fragment keeps whole runes", func(t *testing.T) {
		t.Parallel()

		// One byte of padding puts the limit inside a two-byte rune.
		err := commitsplit.NewParseError("+"+strings.Repeat("é", 100), nil)
		assert.True(t, utf8.ValidString(err.Fragment))
		assert.True(t, strings.HasSuffix(err.Fragment, "é..."))
		assert.LessOrEqual(t, len(err.Fragment), 123)
	})
}
