package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vocabulary = []string{"process", "thread", "deadlock", "sql", "tree"}

// wordEmbedder embeds a text as counts over a tiny vocabulary.
type wordEmbedder struct {
	calls int
	err   error
}

func (w *wordEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		vec := make([]float32, len(vocabulary))
		lower := strings.ToLower(in)
		for j, word := range vocabulary {
			vec[j] = float32(strings.Count(lower, word))
		}
		out[i] = vec
	}
	return out, nil
}

func TestRetrieveEmptyIndexSkipsEmbedder(t *testing.T) {
	emb := &wordEmbedder{}
	ix := NewIndex(emb, Options{})

	got, err := ix.Retrieve(context.Background(), "what is a process")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, emb.calls)
}

func TestRetrieveRanksByCosine(t *testing.T) {
	emb := &wordEmbedder{}
	ix := NewIndex(emb, Options{TopK: 2})

	require.NoError(t, ix.Add(context.Background(), "notes.txt", []string{
		"SQL joins and sql indexes",
		"A process owns threads; a thread is scheduled",
		"Deadlock needs four conditions",
		"Process scheduling picks the next process",
	}))
	assert.Equal(t, 4, ix.Len())

	got, err := ix.Retrieve(context.Background(), "process")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Process scheduling picks the next process", got[0])
	assert.Equal(t, "A process owns threads; a thread is scheduled", got[1])
}

func TestRetrieveCapsAtCorpusSize(t *testing.T) {
	ix := NewIndex(&wordEmbedder{}, Options{})
	require.NoError(t, ix.Add(context.Background(), "a", []string{"tree", "sql"}))

	got, err := ix.Retrieve(context.Background(), "tree")
	require.NoError(t, err)
	assert.Equal(t, []string{"tree", "sql"}, got)
}

func TestEmbedderFailure(t *testing.T) {
	emb := &wordEmbedder{}
	ix := NewIndex(emb, Options{})
	require.NoError(t, ix.Add(context.Background(), "a", []string{"tree"}))

	emb.err = errors.New("model not loaded")
	_, err := ix.Retrieve(context.Background(), "tree")
	assert.ErrorIs(t, err, emb.err)

	err = ix.Add(context.Background(), "b", []string{"sql"})
	assert.ErrorIs(t, err, emb.err)
	assert.Equal(t, 1, ix.Len())
}

func TestChunk(t *testing.T) {
	text := "First paragraph.\r\n\r\nSecond paragraph.\n\n\n\nThird one here."

	assert.Equal(t, []string{"First paragraph.\n\nSecond paragraph.\n\nThird one here."}, Chunk(text, 200))
	assert.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third one here."}, Chunk(text, 20))
	assert.Empty(t, Chunk("  \n\n  ", 10))
}

func TestChunkSplitsLongParagraphs(t *testing.T) {
	long := strings.Repeat("word ", 100)
	chunks := Chunk(long, 42)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 42)
		assert.NotEmpty(t, c)
	}
	assert.Equal(t, strings.Fields(long), strings.Fields(strings.Join(chunks, " ")))

	// No whitespace to break on.
	chunks = Chunk(strings.Repeat("é", 25), 10)
	assert.Equal(t, []string{strings.Repeat("é", 10), strings.Repeat("é", 10), strings.Repeat("é", 5)}, chunks)
}

func TestIngestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "os.txt"), []byte("process\n\nthread"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db.MD"), []byte("sql"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slides.pptx"), []byte("PK"), 0o600))

	ix := NewIndex(&wordEmbedder{}, Options{ChunkSize: 8})
	n, err := ix.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, ix.Len())

	n, err = ix.IngestDir(context.Background(), filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSupportedAndReadText(t *testing.T) {
	assert.True(t, Supported("notes.TXT"))
	assert.True(t, Supported("readme.md"))
	assert.True(t, Supported("lecture.PDF"))
	assert.False(t, Supported("slides.pptx"))
	assert.False(t, Supported("noext"))

	text, err := ReadText(strings.NewReader("ok\xffdone"))
	require.NoError(t, err)
	assert.Equal(t, "okdone", text)
}

func TestIngestFileRejectsUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slides.pptx")
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0o600))

	emb := &wordEmbedder{}
	_, err := NewIndex(emb, Options{}).IngestFile(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Zero(t, emb.calls)
}

func TestReadPDF(t *testing.T) {
	text, err := ReadPDF(filepath.Join("testdata", "notes.pdf"))
	require.NoError(t, err)

	pages := strings.Split(text, "\n\n")
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0], "Deadlock needs four conditions")
	assert.Contains(t, pages[1], "A process owns threads")
}

func TestIngestFilePDF(t *testing.T) {
	ix := NewIndex(&wordEmbedder{}, Options{TopK: 1})
	n, err := ix.IngestFile(context.Background(), filepath.Join("testdata", "notes.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := ix.Retrieve(context.Background(), "deadlock")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Deadlock needs four conditions")
}

func TestReadPDFRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nnot really a pdf"), 0o600))

	emb := &wordEmbedder{}
	_, err := NewIndex(emb, Options{}).IngestFile(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.Zero(t, emb.calls)
}
