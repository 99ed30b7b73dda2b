package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New_InvalidSettings(t *testing.T) {
	var cases = []struct {
		size    int
		overlap int
	}{
		{size: 0, overlap: 0},
		{size: -1, overlap: 0},
		{size: 10, overlap: -1},
		{size: 10, overlap: 10},
		{size: 10, overlap: 20},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			_, err := New(c.size, c.overlap)
			assert.Error(t, err)
		})
	}
}

func Test_Split_Empty(t *testing.T) {
	s, err := New(DefaultSize, DefaultOverlap)
	require.NoError(t, err)

	for _, in := range []string{"", "   ", "\n\n\t\n"} {
		chunks, err := s.Split(in)
		require.NoError(t, err)
		assert.Nil(t, chunks)
	}
}

func Test_Split_ShortText(t *testing.T) {
	s, err := New(DefaultSize, DefaultOverlap)
	require.NoError(t, err)

	chunks, err := s.Split("  The invoice total is 420 EUR.  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"The invoice total is 420 EUR."}, chunks)
}

func Test_Split_LongText(t *testing.T) {
	s, err := New(100, 20)
	require.NoError(t, err)

	var words []string
	for i := 0; i < 200; i++ {
		words = append(words, fmt.Sprintf("word%03d", i))
	}
	text := strings.Join(words, " ")

	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	joined := strings.Join(chunks, " ")
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
	}
	for _, w := range words {
		assert.Contains(t, joined, w)
	}
}

func Test_Split_Paragraphs(t *testing.T) {
	s, err := New(40, 0)
	require.NoError(t, err)

	chunks, err := s.Split("first paragraph here\n\nsecond paragraph here\n\nthird one")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0], "first paragraph here")
	assert.Contains(t, chunks[len(chunks)-1], "third one")
}

func Test_Accessors(t *testing.T) {
	s, err := New(300, 30)
	require.NoError(t, err)
	assert.Equal(t, 300, s.Size())
	assert.Equal(t, 30, s.Overlap())
}
