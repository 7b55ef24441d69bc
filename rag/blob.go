// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// NewBlobClient connects to Blob Storage with a connection string when one
// is given, otherwise to accountURL with cred. A nil cred expects a SAS
// token in accountURL.
func NewBlobClient(accountURL, connectionString string, cred azcore.TokenCredential, opts *azblob.ClientOptions) (*azblob.Client, error) {
	switch {
	case connectionString != "":
		return azblob.NewClientFromConnectionString(connectionString, opts)
	case accountURL == "":
		return nil, errors.New("blob storage needs an account URL or a connection string")
	case cred != nil:
		return azblob.NewClient(accountURL, cred, opts)
	default:
		return azblob.NewClientWithNoCredential(accountURL, opts)
	}
}

// BlobLoader reads every matching blob in a container.
type BlobLoader struct {
	Client     *azblob.Client
	Container  string
	Prefix     string
	Extensions []string
}

func (l BlobLoader) Load(ctx context.Context) ([]Document, error) {
	var opts *azblob.ListBlobsFlatOptions
	if l.Prefix != "" {
		opts = &azblob.ListBlobsFlatOptions{Prefix: to.Ptr(l.Prefix)}
	}
	pager := l.Client.NewListBlobsFlatPager(l.Container, opts)

	var docs []Document
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list container %s: %w", l.Container, err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil || !wanted(l.Extensions, *item.Name) {
				continue
			}
			resp, err := l.Client.DownloadStream(ctx, l.Container, *item.Name, nil)
			if err != nil {
				return nil, fmt.Errorf("download %s: %w", *item.Name, err)
			}
			data, err := readAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", *item.Name, err)
			}
			doc, ok, err := toDocument(ctx, *item.Name, data)
			if err != nil {
				return nil, err
			}
			if ok {
				docs = append(docs, doc)
			}
		}
	}
	slog.DebugContext(ctx, "loaded blobs", "container", l.Container, "documents", len(docs))
	return docs, nil
}

// BlobSink stores run artifacts such as transcripts and diagrams.
type BlobSink struct {
	Client    *azblob.Client
	Container string
}

// EnsureContainer creates the container if it does not exist.
func (s BlobSink) EnsureContainer(ctx context.Context) error {
	_, err := s.Client.CreateContainer(ctx, s.Container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", s.Container, err)
	}
	return nil
}

// Upload writes data to name, replacing any existing blob, and returns the
// blob URL.
func (s BlobSink) Upload(ctx context.Context, name string, data []byte) (string, error) {
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	_, err := s.Client.UploadBuffer(ctx, s.Container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(ct)},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return strings.TrimSuffix(s.Client.URL(), "/") + "/" + s.Container + "/" + name, nil
}
