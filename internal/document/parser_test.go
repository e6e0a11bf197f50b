package document

import (
	"os"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func createTempFile(t *testing.T, content []byte, ext string) string {
	tmpFile, err := os.CreateTemp("", "docppt-test-*"+ext)
	require.NoError(t, err, "Failed to create temp file")

	_, err = tmpFile.Write(content)
	require.NoError(t, err, "Failed to write temp file")
	tmpFile.Close()

	t.Cleanup(func() { os.Remove(tmpFile.Name()) })
	return tmpFile.Name()
}

func createTempPDF(t *testing.T, text string) string {
	tmpFile, err := os.CreateTemp("", "docppt-test-*.pdf")
	require.NoError(t, err, "Failed to create temp PDF file")
	defer tmpFile.Close()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, text, "", "", false)
	require.NoError(t, pdf.Output(tmpFile), "Failed to write PDF")

	t.Cleanup(func() { os.Remove(tmpFile.Name()) })
	return tmpFile.Name()
}

// TestPlainTextParser 测试纯文本解析与编码回退
func TestPlainTextParser(t *testing.T) {
	parser := NewPlainTextParser()

	t.Run("utf8", func(t *testing.T) {
		file := createTempFile(t, []byte("Hello, this is a plain text file.\nSecond line."), ".txt")

		text, err := parser.Parse(file)
		require.NoError(t, err)
		assert.Contains(t, text, "plain text file")
	})

	t.Run("utf8 with bom", func(t *testing.T) {
		content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("bom content")...)
		file := createTempFile(t, content, ".txt")

		text, err := parser.Parse(file)
		require.NoError(t, err)
		assert.Equal(t, "bom content", text)
	})

	t.Run("utf16 little endian", func(t *testing.T) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		content, err := enc.Bytes([]byte("utf16 content 文本"))
		require.NoError(t, err)
		file := createTempFile(t, content, ".txt")

		text, err := parser.Parse(file)
		require.NoError(t, err)
		assert.Contains(t, text, "utf16 content")
	})

	t.Run("arbitrary bytes never fail", func(t *testing.T) {
		file := createTempFile(t, []byte{0xFF, 0xFE, 0x00, 0xD8, 0x41, 0x42}, ".txt")

		_, err := parser.Parse(file)
		assert.NoError(t, err)
	})
}

// TestMarkdownParser 测试Markdown解析
func TestMarkdownParser(t *testing.T) {
	content := "# Title\n\nThis is a **markdown** file.\n\n- Item 1\n- Item 2"
	file := createTempFile(t, []byte(content), ".md")

	parser := NewMarkdownParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Contains(t, text, "markdown file")
	assert.Contains(t, text, "Item 1")
}

// TestPDFParser 测试PDF解析
func TestPDFParser(t *testing.T) {
	file := createTempPDF(t, "This is a PDF test.\nSecond line.")

	parser := NewPDFParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Contains(t, text, "PDF test")
}

// TestParserFactory 测试解析器工厂的类型分发
func TestParserFactory(t *testing.T) {
	cases := []struct {
		filename string
		wantErr  bool
	}{
		{"doc.pdf", false},
		{"doc.docx", false},
		{"doc.md", false},
		{"doc.markdown", false},
		{"doc.txt", false},
		{"doc.TXT", false},
		{"doc.exe", true},
		{"doc", true},
	}

	for _, tc := range cases {
		t.Run(tc.filename, func(t *testing.T) {
			p, err := ParserFactory(tc.filename)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, p)
			}
		})
	}
}

// TestIsSupportedFileType 测试扩展名检查
func TestIsSupportedFileType(t *testing.T) {
	assert.True(t, IsSupportedFileType("a.pdf"))
	assert.True(t, IsSupportedFileType("a.docx"))
	assert.False(t, IsSupportedFileType("a.pptx"))
}
