package textsplit

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unbrokenText generates n characters with no separator of any kind.
func unbrokenText(n int) string {
	var b strings.Builder
	b.Grow(n)
	state := 7
	for i := 0; i < n; i++ {
		state = (state*31 + 17) % 26
		b.WriteByte(byte('a' + state))
	}
	return b.String()
}

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := NewSplitter(size, overlap)
	require.NoError(t, err)
	return s
}

func TestNewSplitter_Validation(t *testing.T) {
	_, err := NewSplitter(0, 0)
	assert.Error(t, err)

	_, err = NewSplitter(100, -1)
	assert.Error(t, err)

	_, err = NewSplitter(100, 100)
	assert.Error(t, err, "overlap must be strictly smaller than size")

	_, err = NewSplitter(800, 150)
	assert.NoError(t, err)
}

func TestSplit_EmptyText(t *testing.T) {
	s := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap)
	assert.Empty(t, s.Split(""))
}

func TestSplit_NoiseOnly(t *testing.T) {
	s := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap)
	assert.Empty(t, s.Split("   short note   "), "trimmed pieces at or below the threshold are discarded")
}

func TestSplit_SingleChunk(t *testing.T) {
	s := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap)
	text := "This circular informs all staff that the annual safety audit begins next Monday morning."

	chunks := s.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_UnbrokenInput(t *testing.T) {
	// 2000 characters with no natural separators: windows of 800 advancing by
	// 650 give exactly three chunks.
	s := mustSplitter(t, 800, 150)
	text := unbrokenText(2000)

	chunks := s.Split(text)

	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 800, "chunk %d exceeds size", i)
	}
	assert.Equal(t, chunks[0][650:], chunks[1][:150], "adjacent chunks share the overlap region")
	assert.Equal(t, chunks[1][650:], chunks[2][:150])
}

func TestSplit_UnbrokenMultiByteInput(t *testing.T) {
	// 1000 three-byte runes with no natural separators: windows must cut on
	// rune boundaries, never mid-rune, so every chunk stays valid UTF-8.
	s := mustSplitter(t, 800, 150)
	text := strings.Repeat("あ", 1000)

	chunks := s.Split(text)

	require.Len(t, chunks, 2, "windows of 800 runes advancing by 650 give two chunks")
	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 800, "chunk %d exceeds size", i)
	}
	assert.Equal(t, 800, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 350, utf8.RuneCountInString(chunks[1]))
	assert.Equal(t, text, chunks[0]+string([]rune(chunks[1])[150:]),
		"dropping the overlap reassembles the original text")
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s := mustSplitter(t, 800, 150)
	para1 := strings.Repeat("First paragraph sentence about tender conditions. ", 10)
	para2 := strings.Repeat("Second paragraph sentence about payment schedules. ", 10)
	text := strings.TrimSpace(para1) + "\n\n" + strings.TrimSpace(para2)

	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 800, "chunk %d exceeds size", i)
	}
	assert.True(t, strings.HasPrefix(chunks[0], "First paragraph"),
		"first chunk starts at the original text start")
	found := false
	for _, chunk := range chunks {
		if strings.HasPrefix(chunk, "Second paragraph") {
			found = true
		}
	}
	assert.True(t, found, "some chunk starts cleanly at the paragraph break")
}

func TestSplit_SizeBoundHolds(t *testing.T) {
	s := mustSplitter(t, 200, 40)
	text := strings.Repeat("Clause on inspection duties and certification requirements. ", 40)

	chunks := s.Split(text)

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 200, "chunk %d exceeds size", i)
		assert.Greater(t, len(strings.TrimSpace(chunk)), MinChunkChars)
	}
}

func TestSplit_DropsShortTrailingPiece(t *testing.T) {
	s := mustSplitter(t, 100, 0)
	long1 := strings.Repeat("a", 80)
	long2 := strings.Repeat("b", 97)
	text := long1 + "\n\n" + long2 + "\n\nok bye"

	chunks := s.Split(text)

	require.Len(t, chunks, 2, "the sub-threshold trailing paragraph is dropped")
	assert.Contains(t, chunks[0], long1)
	assert.Contains(t, chunks[1], long2)
}

func TestSplit_Deterministic(t *testing.T) {
	s := mustSplitter(t, 300, 60)
	text := strings.Repeat("Deterministic output matters for stable chunk identifiers downstream. ", 20)

	first := s.Split(text)
	second := s.Split(text)

	assert.Equal(t, first, second)
}
