package db

import (
	"fmt"
	"strings"
)

var (
	adjectives = []string{"bright", "calm", "cool", "dark", "fast", "happy", "kind", "lucky", "quick", "shiny"}
	nouns      = []string{"cat", "dog", "fox", "lion", "panda", "tiger", "wolf", "zebra", "whale", "koala"}

	// slugSegments gives the length of each dash separated part of a list slug, e.g. abc-defg-hij.
	slugSegments = [3]int{3, 4, 3}
)

const slugCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// newUsername returns a readable name like "calm-fox-42". It may collide; callers check.
func (d *Database) newUsername() string {
	d.randMu.Lock()
	defer d.randMu.Unlock()

	return fmt.Sprintf("%s-%s-%d",
		adjectives[d.rand.Intn(len(adjectives))],
		nouns[d.rand.Intn(len(nouns))],
		d.rand.Intn(100))
}

// newSlug returns a share code like "k3x-9qpa-2mz". It may collide; callers check.
func (d *Database) newSlug() string {
	d.randMu.Lock()
	defer d.randMu.Unlock()

	var b strings.Builder

	for i, length := range slugSegments {
		if i > 0 {
			b.WriteByte('-')
		}

		for j := 0; j < length; j++ {
			b.WriteByte(slugCharset[d.rand.Intn(len(slugCharset))])
		}
	}

	return b.String()
}
