package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// PlainTextParser 纯文本解析器
// 按优先级尝试多种编码解码，最后退化为有损解码而不是报错
type PlainTextParser struct{}

// NewPlainTextParser 创建一个新的纯文本解析器
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// Parse 解析纯文本文件
func (p *PlainTextParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open text file: %v", err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader 从Reader解析纯文本内容
func (p *PlainTextParser) ParseReader(r io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %v", err)
	}

	return decodeText(content), nil
}

// decodeText 按优先级解码字节序列
// UTF-16 BOM优先识别（纯ASCII的UTF-16字节序列也是合法UTF-8，不能先按UTF-8判断）；
// 然后尝试UTF-8；再尝试无BOM的UTF-16；Latin-1兜底（对任意字节都有效）
func decodeText(content []byte) string {
	hasUTF16BOM := len(content) >= 2 &&
		((content[0] == 0xFF && content[1] == 0xFE) || (content[0] == 0xFE && content[1] == 0xFF))
	if hasUTF16BOM {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if decoded, err := dec.Bytes(content); err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}

	if utf8.Valid(content) {
		return stripUTF8BOM(content)
	}

	decoders := []encoding.Encoding{
		unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
		unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	}
	for _, enc := range decoders {
		decoded, err := enc.NewDecoder().Bytes(content)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}

	// Latin-1对任何字节序列都能解码，等价于有损兜底
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(decoded)
}

// stripUTF8BOM 去掉UTF-8 BOM前缀
func stripUTF8BOM(content []byte) string {
	return string(bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF}))
}
