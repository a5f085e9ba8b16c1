package chunking

import (
	"strings"
	"testing"

	"github.com/poiesic/critique/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w"
	}
	return strings.Join(parts, " ")
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		want    int
		lastLen int
	}{
		{"empty", "", 10, 0, 0},
		{"whitespace only", "  \n\t ", 10, 0, 0},
		{"shorter than size", words(3), 10, 1, 3},
		{"exact multiple", words(20), 10, 2, 10},
		{"remainder", words(25), 10, 3, 5},
		{"default size", words(301), 0, 3, 1},
		{"negative size", words(150), -1, 1, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.size)
			require.NotNil(t, got)
			require.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Len(t, strings.Fields(got[len(got)-1]), tt.lastLen)
			}
		})
	}
}

func TestSplit_Reassembles(t *testing.T) {
	text := "The quick  brown\tfox\njumps over the lazy dog and keeps running far away"
	for size := 1; size <= 8; size++ {
		chunks := Split(text, size)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(strings.Fields(c)), size)
		}
		assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")),
			"size %d", size)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := words(400)
	assert.Equal(t, Split(text, 7), Split(text, 7))
}

func TestChunker_Chunks(t *testing.T) {
	c := &Chunker{Size: 2, SourcePrefix: "jd"}
	got := c.Chunks("one two three")
	assert.Equal(t, []core.Chunk{
		{Content: "one two", SourceID: "jd_0"},
		{Content: "three", SourceID: "jd_1"},
	}, got)

	var zero Chunker
	got = zero.Chunks("alpha")
	require.Len(t, got, 1)
	assert.Equal(t, "chunk_0", got[0].SourceID)
}

func TestContents(t *testing.T) {
	chunks := New(1).Chunks("a b")
	assert.Equal(t, []string{"a", "b"}, Contents(chunks))
	assert.Empty(t, Contents(nil))
}
