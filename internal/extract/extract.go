// Package extract converts uploaded document files into raw text.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ErrUnsupportedType is returned for file extensions outside the supported
// set, before any chunking is attempted.
var ErrUnsupportedType = errors.New("unsupported file type")

// SupportedExtensions lists the file types the assistant can ingest.
var SupportedExtensions = []string{".pdf", ".txt", ".docx", ".md"}

// Supported reports whether the file's extension is ingestible.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// FromFile extracts the raw text of a document file, dispatching on its
// extension.
func FromFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	case ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return FromMarkdown(data)
	case ".pdf":
		return fromPDF(path)
	case ".docx":
		return fromDOCX(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

// FromMarkdown strips markdown syntax by walking the goldmark AST and
// collecting text segments, with blank lines between block elements.
func FromMarkdown(source []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(source))

	var buf bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
		case *ast.FencedCodeBlock:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			for i := 0; i < node.Lines().Len(); i++ {
				line := node.Lines().At(i)
				buf.Write(line.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walk markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// fromPDF extracts the plain text of every page.
func fromPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// fromDOCX reads word/document.xml out of the archive and joins the text runs
// of each paragraph with newlines, mirroring how the paragraphs appear in the
// document.
func fromDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx %s: %w", path, err)
	}
	defer archive.Close()

	var document io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document, err = file.Open()
			if err != nil {
				return "", fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("docx %s has no word/document.xml", path)
	}
	defer document.Close()

	var buf bytes.Buffer
	decoder := xml.NewDecoder(document)
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
