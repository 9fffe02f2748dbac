package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var pdfKeyPattern = regexp.MustCompile(`^job-pdfs/\d+-[0-9a-f]{8}\.pdf$`)

func TestKeyGenerator_NewPDFKey(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		key := NewKeyGenerator("job-pdfs").NewPDFKey()
		assert.Regexp(t, pdfKeyPattern, key)
	})

	t.Run("deterministic parts", func(t *testing.T) {
		g := KeyGenerator{
			Prefix: "job-pdfs",
			Now:    func() time.Time { return time.UnixMilli(1718000000123) },
			Suffix: func() string { return "a1b2c3d4" },
		}
		assert.Equal(t, "job-pdfs/1718000000123-a1b2c3d4.pdf", g.NewPDFKey())
	})

	t.Run("unique for identical uploads", func(t *testing.T) {
		g := NewKeyGenerator("job-pdfs")
		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			key := g.NewPDFKey()
			assert.False(t, seen[key], "duplicate key %s", key)
			seen[key] = true
		}
	})

	t.Run("empty prefix", func(t *testing.T) {
		key := NewKeyGenerator("").NewPDFKey()
		assert.Regexp(t, `^\d+-[0-9a-f]{8}\.pdf$`, key)
	})
}

func TestKeyGenerator_HasPrefix(t *testing.T) {
	g := NewKeyGenerator("job-pdfs")

	assert.True(t, g.HasPrefix("job-pdfs/1718000000123-a1b2c3d4.pdf"))
	assert.False(t, g.HasPrefix("job-pdfs-old/1718000000123-a1b2c3d4.pdf"))
	assert.False(t, g.HasPrefix("job-pdfs/notes.txt"))
	assert.False(t, g.HasPrefix("images/logo.pdf"))
}
