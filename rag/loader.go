// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DefaultExtensions are the file types loaders pick up when none are given.
var DefaultExtensions = []string{".md", ".txt", ".pdf", ".html", ".htm", ".json"}

// Document is a source file reduced to text.
type Document struct {
	// ID is derived from Source so that re-ingesting a file overwrites its
	// earlier chunks.
	ID     string
	Title  string
	Source string
	Text   string
}

// NewDocument builds a document for text read from source.
func NewDocument(source, text string) Document {
	return Document{ID: documentID(source), Title: titleOf(source, text), Source: source, Text: text}
}

func documentID(source string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()
}

// titleOf returns the first Markdown heading, else the file name.
func titleOf(source, text string) string {
	for _, line := range strings.SplitN(text, "\n", 20) {
		if h, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(h)
		}
	}
	base := path.Base(source)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Loader produces documents to ingest.
type Loader interface {
	Load(ctx context.Context) ([]Document, error)
}

func wanted(exts []string, name string) bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(name)))
}

// DirLoader reads every matching file under Root.
type DirLoader struct {
	Root       string
	Extensions []string
}

func (l DirLoader) Load(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !wanted(l.Extensions, p) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(l.Root, p)
		if err != nil {
			rel = p
		}
		doc, ok, err := toDocument(ctx, filepath.ToSlash(rel), data)
		if err != nil {
			return err
		}
		if ok {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.Root, err)
	}
	return docs, nil
}

func toDocument(ctx context.Context, source string, data []byte) (Document, bool, error) {
	text, err := ExtractText(data, source)
	if err != nil {
		return Document{}, false, fmt.Errorf("%s: %w", source, err)
	}
	if strings.TrimSpace(text) == "" {
		slog.WarnContext(ctx, "skipping document without text", "source", source)
		return Document{}, false, nil
	}
	return NewDocument(source, text), true, nil
}

func readAll(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}
