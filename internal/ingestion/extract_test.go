package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SingleParagraphRoundTrip(t *testing.T) {
	const paragraph = "Jane Doe Senior Backend Engineer"

	tests := []struct {
		name   string
		format Format
		data   []byte
	}{
		{name: "pdf", format: FormatPDF, data: buildPDF(paragraph)},
		{name: "docx", format: FormatDOCX, data: buildDOCX(t, paragraph)},
		{name: "doc", format: FormatDOC, data: buildDOC(t, wordDocFixture{text: paragraph + "\r", compressed: true})},
		{name: "txt", format: FormatTXT, data: []byte(paragraph + "\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract(context.Background(), tt.data, tt.format)
			require.NoError(t, err)
			assert.Contains(t, text, paragraph)
		})
	}
}

func TestExtract_InvalidBytesAreUnreadable(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   []byte
	}{
		{name: "pdf without header", format: FormatPDF, data: []byte("this is not a pdf")},
		{name: "pdf with header only", format: FormatPDF, data: []byte("%PDF-1.4\ngarbage")},
		{name: "docx not a zip", format: FormatDOCX, data: []byte("plain text")},
		{name: "docx without document part", format: FormatDOCX, data: zipWithoutDocument(t)},
		{name: "doc not a compound file", format: FormatDOC, data: []byte("plain text pretending to be a doc")},
		{name: "txt invalid utf8", format: FormatTXT, data: []byte{'o', 'k', 0xff, 0xfe, 0xfd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract(context.Background(), tt.data, tt.format)
			require.Error(t, err)
			assert.Empty(t, text)

			var unreadable *UnreadableDocumentError
			require.ErrorAs(t, err, &unreadable)
			assert.Equal(t, tt.format, unreadable.Format)
		})
	}
}

func TestExtract_PDFPagesInOrder(t *testing.T) {
	data := buildPDF("First page text", "", "Third page text")

	text, err := Extract(context.Background(), data, FormatPDF)
	require.NoError(t, err)

	first := strings.Index(text, "First page text")
	third := strings.Index(text, "Third page text")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, third, 0)
	assert.Less(t, first, third)
}

func TestExtract_DOCXParagraphsOnePerLine(t *testing.T) {
	data := buildDOCX(t, "Jane Doe", "Senior Backend Engineer", "Email: jane@x.com")

	text, err := Extract(context.Background(), data, FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Backend Engineer\nEmail: jane@x.com", text)
}

func TestExtract_DOCXRunsTabsAndFallback(t *testing.T) {
	body := `<w:p><w:r><w:t>Acme</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> 2019 - Present</w:t></w:r></w:p>` +
		`<w:p><w:r><mc:AlternateContent><mc:Choice Requires="wps"><w:t>Choice</w:t></mc:Choice>` +
		`<mc:Fallback><w:p><w:r><w:t>Duplicate</w:t></w:r></w:p></mc:Fallback></mc:AlternateContent></w:r></w:p>`

	text, err := Extract(context.Background(), buildDOCXRaw(t, body), FormatDOCX)
	require.NoError(t, err)
	assert.Contains(t, text, "Acme\t 2019 - Present")
	assert.Contains(t, text, "Choice")
	assert.NotContains(t, text, "Duplicate")
}

func TestExtract_DOCAcceptsMisnamedDOCX(t *testing.T) {
	data := buildDOCX(t, "Jane Doe", "Staff Engineer")

	text, err := Extract(context.Background(), data, FormatDOC)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nStaff Engineer", text)
}

func TestExtract_DOCParagraphMarks(t *testing.T) {
	data := buildDOC(t, wordDocFixture{text: "Jane Doe\rSenior Engineer\r", compressed: true})

	text, err := Extract(context.Background(), data, FormatDOC)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Engineer", text)
}

func TestExtract_TXTStripsBOMAndNormalizes(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Jane Doe\r\nEngineer  \r\n")...)

	text, err := Extract(context.Background(), data, FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nEngineer", text)
}

func TestExtract_UnknownFormat(t *testing.T) {
	_, err := Extract(context.Background(), []byte("x"), Format("rtf"))
	var unsupported *UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupported)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads supported file", func(t *testing.T) {
		path := filepath.Join(dir, "cv.TXT")
		require.NoError(t, os.WriteFile(path, []byte("Jane Doe"), 0644))

		doc, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, FormatTXT, doc.Format)

		text, err := Extract(context.Background(), doc.Data, doc.Format)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", text)
	})

	t.Run("rejects extension before reading", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(dir, "missing.rtf"))
		var unsupported *UnsupportedFormatError
		assert.ErrorAs(t, err, &unsupported)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(dir, "missing.pdf"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func zipWithoutDocument(t *testing.T) []byte {
	t.Helper()
	data := buildDOCX(t, "x")
	// Same-length rename keeps the archive offsets valid.
	return []byte(strings.Replace(string(data), "word/document.xml", "word/documenx.xml", -1))
}
