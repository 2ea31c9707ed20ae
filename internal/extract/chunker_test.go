package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChunker_RejectsBadParams(t *testing.T) {
	_, err := NewChunker(0, 0)
	require.Error(t, err)
	_, err = NewChunker(100, 100)
	require.Error(t, err)
	_, err = NewChunker(100, -1)
	require.Error(t, err)
	_, err = NewChunker(100, 99)
	require.NoError(t, err)
}

func TestChunkerSplit_WindowCount(t *testing.T) {
	chunker, err := NewChunker(1000, 200)
	require.NoError(t, err)

	chunks := chunker.Split(strings.Repeat("a", 2500))
	require.Len(t, chunks, 4)
	require.Len(t, chunks[0], 1000)
	require.Len(t, chunks[1], 1000)
	require.Len(t, chunks[2], 900)
	require.Len(t, chunks[3], 100)
}

func TestChunkerSplit_Overlap(t *testing.T) {
	chunker, err := NewChunker(10, 3)
	require.NoError(t, err)

	chunks := chunker.Split("abcdefghijklmnop")
	require.Len(t, chunks, 3)
	require.Equal(t, "abcdefghij", chunks[0])
	require.Equal(t, "hijklmnop", chunks[1])
	require.Equal(t, "op", chunks[2])
	// consecutive windows share the overlap suffix/prefix
	require.Equal(t, chunks[0][7:], chunks[1][:3])
}

func TestChunkerSplit_ShortInput(t *testing.T) {
	chunker, err := NewChunker(1000, 200)
	require.NoError(t, err)

	chunks := chunker.Split("hello")
	require.Len(t, chunks, 1)
	require.Equal(t, "hello", chunks[0])
	require.Empty(t, chunker.Split(""))
}

func TestChunkerSplit_CountsRunesNotBytes(t *testing.T) {
	chunker, err := NewChunker(4, 1)
	require.NoError(t, err)

	chunks := chunker.Split("日本語テキスト")
	require.Len(t, chunks, 3)
	require.Equal(t, "日本語テ", chunks[0])
	require.Equal(t, "テキスト", chunks[1])
	require.Equal(t, "ト", chunks[2])
}
