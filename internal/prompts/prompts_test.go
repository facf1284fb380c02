package prompts_test

import (
	"testing"

	"ai-image-enhancer/internal/prompts"

	"github.com/stretchr/testify/assert"
)

func TestForLevel_KnownLevelsAreDistinct(t *testing.T) {
	seen := map[string]int{}
	for level := prompts.MinLevel; level <= prompts.MaxLevel; level++ {
		p := prompts.ForLevel(level)
		assert.NotEmpty(t, p)
		_, dup := seen[p]
		assert.False(t, dup, "level %d reuses another level's prompt", level)
		seen[p] = level
		assert.True(t, prompts.Known(level))
	}
	assert.Contains(t, prompts.ForLevel(1), "Subtly enhance")
	assert.Contains(t, prompts.ForLevel(5), "fantastical or surreal")
}

func TestForLevel_FallsBackToLevelThree(t *testing.T) {
	for _, level := range []int{-1, 0, 6, 42} {
		assert.Equal(t, prompts.ForLevel(3), prompts.ForLevel(level), "level %d", level)
		assert.False(t, prompts.Known(level))
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "subtle touch-up", prompts.Name(1))
	assert.Equal(t, "creative filter", prompts.Name(9))
}
