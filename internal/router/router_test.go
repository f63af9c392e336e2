package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	r := New([]string{"Bloomberg", "WSJ"})

	assert.Equal(t, BehaviorDigest, r.Resolve("Bloomberg"))
	assert.Equal(t, BehaviorDigest, r.Resolve("WSJ"))
	assert.Equal(t, BehaviorSingle, r.Resolve("Random Newsletter"))
}

func TestResolveSuffixedTagsAreNeverReEnriched(t *testing.T) {
	t.Parallel()

	r := New([]string{"Bloomberg"})

	assert.Equal(t, BehaviorSkip, r.Resolve("Bloomberg-digest"))
	assert.Equal(t, BehaviorSkip, r.Resolve("Unknown-digest"))
}
