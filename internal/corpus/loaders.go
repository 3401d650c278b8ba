package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Loader turns the raw bytes of a file into plain text.
type Loader interface {
	Load(ctx context.Context, path string, raw []byte) (string, error)
}

// TextLoader returns the file content as is.
type TextLoader struct{}

func (TextLoader) Load(_ context.Context, _ string, raw []byte) (string, error) {
	return string(bytes.ToValidUTF8(raw, []byte("�"))), nil
}

// MarkdownLoader strips markdown syntax and keeps the readable text.
type MarkdownLoader struct{}

func (MarkdownLoader) Load(_ context.Context, _ string, raw []byte) (string, error) {
	return markdownText(raw), nil
}

func markdownText(src []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var b strings.Builder
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				newline()
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			newline()
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFLoader extracts text with poppler's pdftotext.
type PDFLoader struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// NewPDFLoader creates a PDFLoader. A nil runner executes pdftotext directly.
func NewPDFLoader(runner CommandRunner) *PDFLoader {
	if runner == nil {
		runner = execRunner{}
	}
	return &PDFLoader{runner: runner, lookPath: exec.LookPath}
}

func (l *PDFLoader) Load(ctx context.Context, path string, _ []byte) (string, error) {
	if _, err := l.lookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("%w (%s)", ErrPDFToolNotFound, InstallInstructions())
	}
	out, err := l.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// InstallInstructions explains how to get pdftotext.
func InstallInstructions() string {
	return "install poppler: brew install poppler (macOS) or apt install poppler-utils (Debian/Ubuntu)"
}
