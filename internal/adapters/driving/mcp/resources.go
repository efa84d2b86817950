package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-kb/internal/app"
)

const (
	// uriScheme is the custom URI scheme for sercha-kb resources.
	uriScheme = "sercha-kb://"

	mimeJSON = "application/json"
	mimeText = "text/plain"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Effective pipeline settings with secrets redacted",
		MIMEType:    mimeJSON,
	}, s.handleSettingsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "variants",
		Name:        "variants",
		Description: "Named chunking variants accepted by the tools",
		MIMEType:    mimeJSON,
	}, s.handleVariantsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Files in the documents directory that ingestion accepts",
		MIMEType:    mimeJSON,
	}, s.handleDocumentsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "result",
		Name:        "result",
		Description: "The answer and elapsed time saved by the last run",
		MIMEType:    mimeText,
	}, s.handleResultResource)
}

type settingsView struct {
	DocsDir    string   `json:"docs_dir"`
	Extensions []string `json:"extensions"`
	Chunking   struct {
		Size    int    `json:"size"`
		Overlap int    `json:"overlap"`
		Unit    string `json:"unit"`
	} `json:"chunking"`
	Extraction struct {
		Strategy string `json:"strategy"`
		Endpoint string `json:"endpoint,omitempty"`
		APIKey   string `json:"api_key,omitempty"`
	} `json:"extraction"`
	Embedding struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
		BaseURL  string `json:"base_url,omitempty"`
		APIKey   string `json:"api_key,omitempty"`
	} `json:"embedding"`
	LLM struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
		BaseURL  string `json:"base_url,omitempty"`
		APIKey   string `json:"api_key,omitempty"`
	} `json:"llm"`
	Index struct {
		Backend string `json:"backend"`
		Policy  string `json:"policy"`
	} `json:"index"`
	TopK       int    `json:"top_k"`
	OutputPath string `json:"output_path"`
}

// redacted hides a secret while still showing whether it is set.
func redacted(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// handleSettingsResource returns the settings the tools run with.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	cfg := s.ports.Settings

	var view settingsView
	view.DocsDir = cfg.DocsDir
	view.Extensions = cfg.Ingest.Extensions
	view.Chunking.Size = cfg.Chunking.Size
	view.Chunking.Overlap = cfg.Chunking.Overlap
	view.Chunking.Unit = string(cfg.Chunking.Unit)
	view.Extraction.Strategy = string(cfg.Extraction.Strategy)
	view.Extraction.Endpoint = cfg.Extraction.Endpoint
	view.Extraction.APIKey = redacted(cfg.Extraction.APIKey)
	view.Embedding.Provider = string(cfg.Embedding.Provider)
	view.Embedding.Model = cfg.Embedding.Model
	view.Embedding.BaseURL = cfg.Embedding.BaseURL
	view.Embedding.APIKey = redacted(cfg.Embedding.APIKey)
	view.LLM.Provider = string(cfg.LLM.Provider)
	view.LLM.Model = cfg.LLM.Model
	view.LLM.BaseURL = cfg.LLM.BaseURL
	view.LLM.APIKey = redacted(cfg.LLM.APIKey)
	view.Index.Backend = string(cfg.Index.Backend)
	view.Index.Policy = string(cfg.Index.Policy)
	view.TopK = cfg.Retrieval.TopK
	view.OutputPath = cfg.Output.Path

	return jsonResult(req.Params.URI, view)
}

// handleVariantsResource lists the chunking variants.
func (s *Server) handleVariantsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResult(req.Params.URI, app.Variants())
}

// handleDocumentsResource lists the files ingestion would pick up.
func (s *Server) handleDocumentsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type documentInfo struct {
		Path string `json:"path"`
		Size int64  `json:"size"`
	}

	cfg := s.ports.Settings
	docs := []documentInfo{}
	err := filepath.WalkDir(cfg.DocsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != cfg.DocsDir && !cfg.Ingest.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !cfg.Ingest.Accepts(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		docs = append(docs, documentInfo{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	return jsonResult(req.Params.URI, docs)
}

// handleResultResource returns the artifact written by the last run.
func (s *Server) handleResultResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := os.ReadFile(s.ports.Settings.Output.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: mimeText,
			Text:     string(data),
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}
