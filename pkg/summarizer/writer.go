package summarizer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Writer writes formatted summaries.
type Writer struct {
	formatter Formatter
}

// NewWriter creates a new Writer with the given Formatter.
func NewWriter(formatter Formatter) *Writer {
	return &Writer{
		formatter: formatter,
	}
}

// Write formats the summary and writes it to path, creating parent
// directories as needed.
func (w *Writer) Write(path string, summary *Summary) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(w.formatter.Format(summary)), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// WriteTo formats the summary onto out.
func (w *Writer) WriteTo(out io.Writer, summary *Summary) error {
	_, err := io.WriteString(out, w.formatter.Format(summary))
	return err
}
