package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemGUID(t *testing.T) {
	guid := ItemGUID("Example Blog", "https://blog.example.com/post", "A Post")

	assert.Equal(t, guid, ItemGUID("Example Blog", "https://blog.example.com/post", "A Post"),
		"same inputs always derive the same identity")
	assert.NotEqual(t, guid, ItemGUID("Example Blog", "https://blog.example.com/post", "Another Post"))
	assert.NotEqual(t, guid, ItemGUID("Other Blog", "https://blog.example.com/post", "A Post"))

	// field boundaries matter: shifting a character between fields changes identity
	assert.NotEqual(t, ItemGUID("a", "bc", "d"), ItemGUID("ab", "c", "d"))
}

func TestNewSubscriptionGUID(t *testing.T) {
	assert.NotEqual(t, NewSubscriptionGUID(), NewSubscriptionGUID())
}

func TestResolverResult(t *testing.T) {
	ok := NewResolverSuccess("discovery", "https://example.com/feed.xml")
	assert.True(t, ok.OK())
	assert.Equal(t, "https://example.com/feed.xml", ok.FeedURL)

	bad := NewResolverError("discovery", "no feed link found")
	assert.False(t, bad.OK())
	assert.Equal(t, "no feed link found", bad.Err)
}
