package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"issuegrid/internal/fileutil"
	"issuegrid/internal/issues"
	"issuegrid/internal/logging"
	"issuegrid/internal/organize"
	"issuegrid/internal/textutil"
)

// File records one written markdown file.
type File struct {
	Path   string
	Number int
	Result fileutil.WriteResult
}

// Exporter writes rendered issues below a directory.
type Exporter struct {
	renderer *Renderer
	logger   *slog.Logger
}

// New constructs an exporter.
func New(logger *slog.Logger) (*Exporter, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{renderer: renderer, logger: logging.NewComponentLogger(logger, "export")}, nil
}

// ExportIssues writes one file per issue into dir, creating dir if needed.
func (e *Exporter) ExportIssues(dir string, list []issues.IssueWithComments) ([]File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	files := make([]File, 0, len(list))
	for _, issue := range list {
		file, err := e.write(dir, issue)
		if err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}

// ExportTree writes every leaf bin of root into its own directory below dir.
// Directory names follow the bin path; threads supplies comments by issue
// number and may be nil. Issues placed in several bins are written once per bin.
func (e *Exporter) ExportTree(dir string, root *organize.Node[issues.Issue], threads map[int][]issues.Comment) ([]File, error) {
	var files []File
	var walkErr error
	root.Walk(func(path []string, node *organize.Node[issues.Issue]) bool {
		if !node.IsLeaf() {
			return true
		}
		binDir := filepath.Join(append([]string{dir}, binDirNames(path)...)...)
		list := make([]issues.IssueWithComments, 0, len(node.Items))
		for _, issue := range node.Items {
			list = append(list, issues.IssueWithComments{Issue: issue, Thread: threads[issue.Number]})
		}
		written, err := e.ExportIssues(binDir, list)
		files = append(files, written...)
		if err != nil {
			walkErr = err
			return false
		}
		return true
	})
	return files, walkErr
}

func (e *Exporter) write(dir string, issue issues.IssueWithComments) (File, error) {
	content, err := e.renderer.Render(issue)
	if err != nil {
		return File{}, err
	}
	path := filepath.Join(dir, FileName(issue.Issue))
	result, err := fileutil.WriteFileAtomic(path, []byte(content), 0o644)
	if err != nil {
		return File{}, fmt.Errorf("write %s: %w", path, err)
	}
	e.logger.Debug("issue exported",
		logging.Int("number", issue.Number),
		logging.String("path", path),
		logging.String("result", result.String()),
	)
	return File{Path: path, Number: issue.Number, Result: result}, nil
}

func binDirNames(path []string) []string {
	names := make([]string, 0, len(path))
	for _, name := range path {
		clean := textutil.SanitizeFileName(name)
		if clean == "" {
			clean = "_"
		}
		names = append(names, clean)
	}
	return names
}
