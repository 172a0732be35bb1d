package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	data := map[string]any{"Requested": 2050, "Limit": 2000}

	assert.Equal(t, "This change would create 2050 variants, the limit is 2000",
		Translate("en-US", "too_many_combinations", data))
	assert.Equal(t, "Perubahan ini akan membuat 2050 varian, batasnya 2000",
		Translate("id", "too_many_combinations", data))
	// unsupported languages fall back to English
	assert.Equal(t, "Seller identity is missing", Translate("fr", "unauthenticated", nil))
	assert.Equal(t, "no_such_message", Translate("en", "no_such_message", nil))
}
