package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/fsutil"
	"github.com/vk/blockgraph/internal/schema"
)

// ErrNoDocuments is returned when the given paths hold no documents.
var ErrNoDocuments = errors.New("no graph documents found")

// Validate statically checks every document found under paths. Directories
// are searched recursively. Nothing is built, so no references are contacted.
// All failing documents are reported together.
func (a *App) Validate(ctx context.Context, paths ...string) error {
	ctx = a.context(ctx)
	files, err := fsutil.Expand(paths, document.IsDocument)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return ErrNoDocuments
	}

	var errs []error
	for _, path := range files {
		if err := validateFile(path); err != nil {
			a.logger.Debug("Document invalid.", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		a.logger.Info("✅ Document valid.", "path", path)
	}
	return errors.Join(errs...)
}

func validateFile(path string) error {
	src, err := document.LoadFile(path)
	if err != nil {
		return err
	}
	if err := schema.Validate(src.Raw); err != nil {
		return err
	}
	_, err = src.Decode()
	return err
}
