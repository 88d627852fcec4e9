package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedType is returned for uploads that are neither text nor PDF.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrUnreadable is returned when a PDF cannot be parsed.
	ErrUnreadable = errors.New("unreadable document")
)

const pdfExtension = ".pdf"

var extensions = map[string]bool{".txt": true, ".md": true, pdfExtension: true}

// Supported reports whether name has an ingestible extension.
func Supported(name string) bool {
	return extensions[strings.ToLower(filepath.Ext(name))]
}

// ReadText reads r as text, dropping invalid UTF-8.
func ReadText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), ""), nil
}

// ReadPDF extracts the text of every page of the PDF at path. Pages are
// separated by a blank line so chunking keeps them apart.
func ReadPDF(path string) (text string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%s: %w: %v", filepath.Base(path), ErrUnreadable, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", filepath.Base(path), ErrUnreadable, err)
	}
	defer f.Close()

	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("%s page %d: %w: %w", filepath.Base(path), i, ErrUnreadable, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	return strings.ToValidUTF8(strings.Join(pages, "\n\n"), ""), nil
}

// IngestDir ingests every supported file directly under dir. A missing
// directory is not an error.
func (ix *Index) IngestDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		n, err := ix.IngestFile(ctx, path)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// IngestFile ingests one text or PDF file, using its base name as the source.
func (ix *Index) IngestFile(ctx context.Context, path string) (int, error) {
	if !Supported(path) {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedType)
	}
	text, err := readFile(path)
	if err != nil {
		return 0, err
	}
	return ix.Ingest(ctx, filepath.Base(path), text)
}

func readFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), pdfExtension) {
		return ReadPDF(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	text, err := ReadText(f)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return text, nil
}

// Chunk splits text into paragraph-aligned pieces of at most size runes.
// Paragraphs longer than size are cut at the last whitespace that fits.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		chunks []string
		cur    []rune
	)
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}

	for _, para := range strings.Split(text, "\n\n") {
		p := []rune(strings.TrimSpace(para))
		if len(p) == 0 {
			continue
		}
		if len(cur) > 0 && len(cur)+2+len(p) > size {
			flush()
		}
		for len(p) > size {
			cut := splitPoint(p, size)
			cur = append(cur, p[:cut]...)
			flush()
			p = []rune(strings.TrimLeftFunc(string(p[cut:]), unicode.IsSpace))
		}
		if len(p) == 0 {
			continue
		}
		if len(cur) > 0 {
			cur = append(cur, '\n', '\n')
		}
		cur = append(cur, p...)
	}
	flush()
	return chunks
}

func splitPoint(p []rune, size int) int {
	for i := size; i > size/2; i-- {
		if unicode.IsSpace(p[i]) {
			return i
		}
	}
	return size
}
