package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bashkirian/repair-order-pipeline/internal/logging"
	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

const xmlSuffix = ".xml"

// Document is the full text of one XML file.
type Document struct {
	Name    string
	Content string
}

// ReadDir reads every regular .xml file in dir, in file name order.
func ReadDir(ctx context.Context, dir string) ([]Document, error) {
	log := logging.FromContext(ctx)
	log.Infow("Reading files", "dir", dir)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory %q does not exist: %w", dir, models.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory: %w", dir, models.ErrNotFound)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), xmlSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		log.Debugw("Reading xml data", "path", path)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		docs = append(docs, Document{Name: name, Content: string(b)})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no XML files found in directory %q: %w", dir, models.ErrNotFound)
	}
	return docs, nil
}
