package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvarghese/legaldoc-ai/internal/extract"
	"github.com/mvarghese/legaldoc-ai/internal/storage"
	"github.com/mvarghese/legaldoc-ai/internal/textsplit"
)

// fakeUpserter records what was stored and echoes back the metadata IDs.
type fakeUpserter struct {
	chunks    []string
	metadatas []storage.ChunkMetadata
	namespace string
	calls     int
	err       error
}

func (f *fakeUpserter) Upsert(_ context.Context, chunks []string, metadatas []storage.ChunkMetadata, namespace string, _ int) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.chunks = chunks
	f.metadatas = metadatas
	f.namespace = namespace
	ids := make([]string, len(chunks))
	for i, m := range metadatas {
		ids[i] = m.ChunkID
	}
	return ids, nil
}

func newTestPipeline(t *testing.T, store *fakeUpserter) *Pipeline {
	t.Helper()
	splitter, err := textsplit.NewSplitter(textsplit.DefaultChunkSize, textsplit.DefaultChunkOverlap)
	require.NoError(t, err)
	return NewPipeline(splitter, store, nil)
}

func paragraph(topic string) string {
	return strings.Repeat("This paragraph describes "+topic+" in enough detail to matter. ", 12)
}

func TestIngestText_StoresAllChunks(t *testing.T) {
	store := &fakeUpserter{}
	p := newTestPipeline(t, store)

	text := paragraph("rolling stock maintenance") + "\n\n" +
		paragraph("station access rules") + "\n\n" +
		paragraph("vendor payment terms")

	result, err := p.IngestText(context.Background(), text, "circular.pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, "circular.pdf", result.Source)
	assert.Equal(t, len(store.chunks), result.ChunkCount)
	assert.Equal(t, result.ConversationID, store.namespace, "all chunks share one namespace")

	require.Len(t, store.metadatas, len(store.chunks), "metadata aligns positionally with chunks")
	for i, m := range store.metadatas {
		assert.Equal(t, "circular.pdf", m.Source)
		assert.Equal(t, m.ChunkID, result.ChunkIDs[i], "identifiers returned in chunk order")
	}
}

func TestIngestText_DiscardsNoiseChunks(t *testing.T) {
	store := &fakeUpserter{}
	p := newTestPipeline(t, store)

	// Three informative paragraphs and one sub-threshold fragment.
	text := paragraph("signal failures") + "\n\n" +
		paragraph("escalator outages") + "\n\n" +
		paragraph("platform announcements") + "\n\nNoted."

	result, err := p.IngestText(context.Background(), text, "memo.txt")
	require.NoError(t, err)

	for _, chunk := range store.chunks {
		assert.Greater(t, len(strings.TrimSpace(chunk)), textsplit.MinChunkChars)
	}
	assert.Equal(t, len(store.chunks), result.ChunkCount)
}

func TestIngestText_EmptyDocument(t *testing.T) {
	store := &fakeUpserter{}
	p := newTestPipeline(t, store)

	_, err := p.IngestText(context.Background(), "   too short   ", "empty.txt")

	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Zero(t, store.calls, "no partial ingestion for an empty document")
}

func TestIngestFile_UnsupportedExtension(t *testing.T) {
	store := &fakeUpserter{}
	p := newTestPipeline(t, store)

	path := filepath.Join(t.TempDir(), "slides.pptx")
	require.NoError(t, os.WriteFile(path, []byte("irrelevant"), 0o644))

	_, err := p.IngestFile(context.Background(), path)

	assert.ErrorIs(t, err, extract.ErrUnsupportedType)
	assert.Zero(t, store.calls, "validation happens before any chunking or storage")
}

func TestIngestFile_Txt(t *testing.T) {
	store := &fakeUpserter{}
	p := newTestPipeline(t, store)

	path := filepath.Join(t.TempDir(), "notice.txt")
	require.NoError(t, os.WriteFile(path, []byte(paragraph("working hours")), 0o644))

	result, err := p.IngestFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "notice.txt", result.Source)
	assert.Greater(t, result.ChunkCount, 0)
}

func TestIngestInto_ReusesNamespace(t *testing.T) {
	store := &fakeUpserter{}
	p := newTestPipeline(t, store)

	result, err := p.IngestInto(context.Background(), paragraph("tender evaluation"), "tender.md", "existing-ns")
	require.NoError(t, err)

	assert.Equal(t, "existing-ns", result.ConversationID)
	assert.Equal(t, "existing-ns", store.namespace)
}

func TestIngestText_StoreFailurePropagates(t *testing.T) {
	store := &fakeUpserter{err: errors.New("index write failed")}
	p := newTestPipeline(t, store)

	_, err := p.IngestText(context.Background(), paragraph("anything"), "doc.txt")
	assert.Error(t, err)
}
