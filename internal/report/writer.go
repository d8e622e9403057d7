package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

// stampLayout names artifacts by generation time, second resolution.
const stampLayout = "20060102T150405Z"

// Artifacts lists the files one Emit call produced.
type Artifacts struct {
	JSONPath string
	HTMLPath string
}

// Writer emits report artifacts under one output directory.
type Writer struct {
	dir string
}

// NewWriter builds a writer rooted at dir (default "output").
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "output"
	}
	return &Writer{dir: dir}
}

// Emit writes the JSON and HTML artifacts named by the report's generation
// stamp. Existing files are never overwritten: a stamp collision takes the
// next free numeric suffix, and the HTML artifact reuses whatever name the
// JSON landed on so the pair stays matched.
func (w *Writer) Emit(rep *model.Report) (Artifacts, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Artifacts{}, eris.Wrap(err, "report: create output dir")
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return Artifacts{}, eris.Wrap(err, "report: marshal json")
	}
	page, err := renderHTML(rep)
	if err != nil {
		return Artifacts{}, err
	}

	base := "report_" + rep.GeneratedAt.UTC().Format(stampLayout)
	jsonPath, err := w.createNew(base, ".json", data)
	if err != nil {
		return Artifacts{}, err
	}
	htmlBase := strings.TrimSuffix(filepath.Base(jsonPath), ".json")
	htmlPath, err := w.createNew(htmlBase, ".html", page)
	if err != nil {
		return Artifacts{}, err
	}

	zap.L().Info("report: artifacts written",
		zap.String("json", jsonPath),
		zap.String("html", htmlPath),
	)
	return Artifacts{JSONPath: jsonPath, HTMLPath: htmlPath}, nil
}

// createNew writes data to the first free name derived from base, refusing
// to overwrite existing files.
func (w *Writer) createNew(base, ext string, data []byte) (string, error) {
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		path := filepath.Join(w.dir, name+ext)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", eris.Wrapf(err, "report: create %s", path)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", eris.Wrapf(err, "report: write %s", path)
		}
		if err := f.Close(); err != nil {
			return "", eris.Wrapf(err, "report: close %s", path)
		}
		return path, nil
	}
	return "", eris.Errorf("report: no free name for %s%s", base, ext)
}
