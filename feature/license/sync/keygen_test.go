package sync_test

import (
	"regexp"
	"strings"
	"testing"

	"license-manager/feature/license/sync"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	t.Run("AppID Identifier", func(t *testing.T) {
		key := sync.GenerateKey("X9", 42)
		assert.Regexp(t, regexp.MustCompile(`^EXT-X9-[A-Z0-9]{3}$`), key)
	})

	t.Run("CountID Fallback", func(t *testing.T) {
		key := sync.GenerateKey("  ", 42)
		assert.Regexp(t, regexp.MustCompile(`^EXT-C42-[A-Z0-9]{3}$`), key)
	})

	t.Run("Timestamp Last Resort", func(t *testing.T) {
		key := sync.GenerateKey("", 0)
		assert.Regexp(t, regexp.MustCompile(`^EXT-\d{6}-[A-Z0-9]{3}$`), key)
	})

	t.Run("Suffix Varies", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 50; i++ {
			seen[sync.GenerateKey("x", 0)] = struct{}{}
		}
		// 36^3 suffixes make 50 straight collisions vanishingly unlikely.
		assert.Greater(t, len(seen), 1)
		for key := range seen {
			assert.True(t, strings.HasPrefix(key, "EXT-x-"))
		}
	})
}
