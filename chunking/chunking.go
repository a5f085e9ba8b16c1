package chunking

import (
	"fmt"
	"strings"

	"github.com/poiesic/critique/core"
)

// DefaultChunkSize is the maximum number of words per chunk when no size is given.
const DefaultChunkSize = 150

// DefaultSourcePrefix prefixes the positional source id of each chunk.
const DefaultSourcePrefix = "chunk"

// Split groups the whitespace-delimited words of text into chunks of at most
// size words. Words are joined with single spaces; the last chunk may be
// shorter. Blank input yields an empty slice. A non-positive size falls back to
// DefaultChunkSize.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// Chunker splits documents into sourced chunks.
// The zero value uses DefaultChunkSize and DefaultSourcePrefix.
type Chunker struct {
	Size         int
	SourcePrefix string
}

// New returns a Chunker with the given size and the default source prefix.
func New(size int) *Chunker {
	return &Chunker{Size: size, SourcePrefix: DefaultSourcePrefix}
}

// Chunks splits text and tags each piece with "<prefix>_<index>".
func (c *Chunker) Chunks(text string) []core.Chunk {
	prefix := c.SourcePrefix
	if prefix == "" {
		prefix = DefaultSourcePrefix
	}
	parts := Split(text, c.Size)
	chunks := make([]core.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = core.Chunk{Content: p, SourceID: fmt.Sprintf("%s_%d", prefix, i)}
	}
	return chunks
}

// Contents returns the text of each chunk in order.
func Contents(chunks []core.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}
