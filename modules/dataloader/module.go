// Package dataloader provides the "data_loader" node type, which turns files
// and HTTP responses into documents.
package dataloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/registry"
)

// Loader kinds.
const (
	KindFile = "simple_file_loader"
	KindAPI  = "simple_api_loader"
	KindPDF  = "pdf_loader"
)

// InputFilePath is the argument file loaders read the path from.
const InputFilePath = "file_path"

// DefaultTimeout bounds API loader requests.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBodyBytes caps the response body the API loader reads.
const DefaultMaxBodyBytes = 32 << 20

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client is used by the API loader. Nil means a client with DefaultTimeout.
	Client *http.Client
	// MaxBodyBytes caps API responses. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Register registers the data_loader node strategy.
func (m *Module) Register(r *registry.Registry) {
	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	limit := m.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	r.RegisterNode(nodetype.DataLoader, registry.NodeStrategyFunc(
		func(ctx context.Context, def document.NodeDef, baseDir string, res registry.Resources) (*node.Runnable, error) {
			return node.BuildFunction(ctx, def, baseDir, res, &loaderNode{client: client, maxBody: limit})
		}))
}

type loaderNode struct {
	client  *http.Client
	maxBody int64
	kind    string
	baseDir string
	apiURL  string
}

func (n *loaderNode) ParseConfig(def document.NodeDef, baseDir string) error {
	n.kind = def.Config.String("loader_kind")
	n.baseDir = baseDir
	switch n.kind {
	case "":
		return fmt.Errorf("config.loader_kind is required")
	case KindFile, KindPDF:
	case KindAPI:
		n.apiURL = def.Config.Param().String("api_url")
		if n.apiURL == "" {
			return fmt.Errorf("param.api_url is required for %s", KindAPI)
		}
	default:
		return fmt.Errorf("unsupported loader_kind %q", n.kind)
	}
	return nil
}

func (n *loaderNode) ImportTargetFunction(context.Context, node.Resources) error {
	return nil
}

func (n *loaderNode) CallTargetFunction(ctx context.Context, inputs map[string]any) (any, error) {
	var (
		docs []schema.Document
		err  error
	)
	switch n.kind {
	case KindAPI:
		docs, err = n.loadAPI(ctx)
	default:
		var path string
		path, err = n.filePath(inputs)
		if err != nil {
			return nil, err
		}
		if n.kind == KindPDF {
			docs, err = loadPDF(ctx, path)
		} else {
			docs, err = loadText(ctx, path)
		}
	}
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Documents loaded.", "kind", n.kind, "count", len(docs))
	return docs, nil
}

func (n *loaderNode) filePath(inputs map[string]any) (string, error) {
	path, _ := inputs[InputFilePath].(string)
	if path == "" {
		return "", fmt.Errorf("missing %q in inputs", InputFilePath)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(n.baseDir, path)
	}
	return path, nil
}

func loadText(ctx context.Context, path string) ([]schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	defer f.Close()

	loader := documentloaders.NewText(f)
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return withMetadata(docs, "source", path), nil
}

func loadPDF(ctx context.Context, path string) ([]schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	loader := documentloaders.NewPDF(f, info.Size())
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load PDF %s: %w", path, err)
	}
	return withMetadata(docs, "source", path), nil
}

func (n *loaderNode) loadAPI(ctx context.Context) ([]schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid api_url: %w", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s failed: %w", n.apiURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s returned status %d", n.apiURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, n.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", n.apiURL, err)
	}
	if int64(len(body)) > n.maxBody {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", n.apiURL, n.maxBody)
	}
	return []schema.Document{{PageContent: string(body), Metadata: map[string]any{"url": n.apiURL}}}, nil
}

func withMetadata(docs []schema.Document, key string, value any) []schema.Document {
	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]any{}
		}
		docs[i].Metadata[key] = value
	}
	return docs
}
