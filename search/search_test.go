// Copyright (c) Microsoft. All rights reserved.

package search_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/search"
)

func newClient(t *testing.T, h http.HandlerFunc) *search.Client {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("api-key"))
		assert.Equal(t, search.DefaultAPIVersion, r.URL.Query().Get("api-version"))
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := search.NewClient(srv.URL, "docs", search.Auth{APIKey: "key"},
		&search.ClientOptions{Transport: srv.Client(), MaxRetries: -1})
	require.NoError(t, err)
	return c
}

func TestRAGIndex(t *testing.T) {
	idx := search.RAGIndex("docs", 1536)

	key := idx.Field("id")
	require.NotNil(t, key)
	assert.True(t, key.Key)

	vec := idx.Field("content_vector")
	require.NotNil(t, vec)
	assert.Equal(t, search.TypeSingleVector, vec.Type)
	assert.Equal(t, 1536, vec.Dimensions)
	assert.Equal(t, idx.VectorSearch.Profiles[0].Name, vec.VectorProfile)
	assert.Equal(t, "cosine", idx.VectorSearch.Algorithms[0].HNSWParameters.Metric)
	assert.Equal(t, search.SemanticConfig, idx.Semantic.Configurations[0].Name)
	assert.Nil(t, idx.Field("missing"))
}

func TestCreateOrUpdateIndex(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/indexes/docs", r.URL.Path)
		var idx search.Index
		require.NoError(t, json.NewDecoder(r.Body).Decode(&idx))
		idx.ETag = `"0x1"`
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(idx)
	})

	idx, err := c.CreateOrUpdateIndex(context.Background(), search.RAGIndex("docs", 3))
	require.NoError(t, err)
	assert.Equal(t, `"0x1"`, idx.ETag)
	assert.Len(t, idx.Fields, 6)

	_, err = c.CreateOrUpdateIndex(context.Background(), search.RAGIndex("other", 3))
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestDeleteIndex_MissingIsFine(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":"","message":"No index with the name 'docs' was found"}}`)
	})
	assert.NoError(t, c.DeleteIndex(context.Background()))
}

func TestUploadDocuments_Batches(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/docs/docs/index", r.URL.Path)
		calls.Add(1)
		var body struct {
			Value []map[string]any `json:"value"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.LessOrEqual(t, len(body.Value), search.MaxBatchSize)

		type result struct {
			Key          string `json:"key"`
			Status       bool   `json:"status"`
			ErrorMessage string `json:"errorMessage,omitempty"`
		}
		var out []result
		status := http.StatusOK
		for _, d := range body.Value {
			assert.Equal(t, "mergeOrUpload", d["@search.action"])
			key := d["id"].(string)
			if key == "doc-7" {
				out = append(out, result{Key: key, ErrorMessage: "content too large"})
				status = http.StatusMultiStatus
				continue
			}
			out = append(out, result{Key: key, Status: true})
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"value": out})
	})

	docs := make([]search.Document, 1500)
	for i := range docs {
		docs[i] = search.Document{ID: fmt.Sprintf("doc-%d", i), Content: "text", ChunkIndex: i}
	}
	stored, err := c.UploadDocuments(context.Background(), docs)
	assert.Equal(t, 1499, stored)
	assert.EqualValues(t, 2, calls.Load())

	var ie *search.IndexingError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, map[string]string{"doc-7": "content too large"}, ie.Failed)
	assert.ErrorIs(t, err, af.ErrService)
}

func TestUploadDocuments_InvalidKey(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.UploadDocuments(context.Background(), []search.Document{{ID: "a/b.md"}})
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestSearch_Modes(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/docs/docs/search", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		io.WriteString(w, `{"value":[
			{"@search.score":0.03,"@search.rerankerScore":2.5,"id":"a-0","content":"Zava sells tents.","source":"a.md",
			 "@search.captions":[{"text":"Zava sells tents."}]},
			{"@search.score":0.02,"id":"b-1","content":"Returns within 30 days.","source":"b.md","chunk_index":1}
		]}`)
	})
	ctx := context.Background()

	res, err := c.Search(ctx, search.Query{Text: "tents", Top: 2, Filter: "source eq 'a.md'", Select: []string{"id", "content"}})
	require.NoError(t, err)
	last := <-bodies
	require.Len(t, res, 2)
	assert.Equal(t, "a-0", res[0].ID)
	assert.Equal(t, 1, res[1].ChunkIndex)
	assert.Equal(t, "tents", last["search"])
	assert.Equal(t, "id,content", last["select"])
	assert.Equal(t, "source eq 'a.md'", last["filter"])
	assert.Nil(t, last["vectorQueries"])

	_, err = c.Search(ctx, search.Query{Mode: search.ModeVector, Vector: []float32{0.1, 0.2}})
	require.NoError(t, err)
	last = <-bodies
	assert.Nil(t, last["search"])
	vq := last["vectorQueries"].([]any)[0].(map[string]any)
	assert.Equal(t, "content_vector", vq["fields"])
	assert.EqualValues(t, 5, vq["k"])

	res, err = c.Search(ctx, search.Query{Text: "tents", Vector: []float32{0.1}, Semantic: true})
	require.NoError(t, err)
	last = <-bodies
	assert.Equal(t, "tents", last["search"])
	assert.NotNil(t, last["vectorQueries"])
	assert.Equal(t, "semantic", last["queryType"])
	assert.Equal(t, search.SemanticConfig, last["semanticConfiguration"])
	assert.Equal(t, 2.5, res[0].RerankerScore)
	assert.Equal(t, []string{"Zava sells tents."}, res[0].Captions)
}

func TestSearch_InvalidQueries(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ctx := context.Background()
	for name, q := range map[string]search.Query{
		"keyword without text":  {Mode: search.ModeKeyword},
		"vector without vector": {Mode: search.ModeVector},
		"hybrid without vector": {Mode: search.ModeHybrid, Text: "x"},
		"semantic vector only":  {Mode: search.ModeVector, Vector: []float32{1}, Semantic: true},
		"unknown mode":          {Mode: "fuzzy", Text: "x"},
	} {
		_, err := c.Search(ctx, q)
		assert.ErrorIs(t, err, af.ErrInvalidRequest, name)
	}
}

func TestCount(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/docs/docs/$count", r.URL.Path)
		io.WriteString(w, "\ufeff42")
	})
	n, err := c.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}

func TestKeys(t *testing.T) {
	assert.True(t, search.IsValidKey("handbook_md-3"))
	assert.True(t, search.IsValidKey("aGVsbG8="))
	assert.False(t, search.IsValidKey(""))
	assert.False(t, search.IsValidKey("docs/handbook.md"))

	assert.Equal(t, "docs-handbook-md-3", search.SanitizeKey("docs/handbook.md#3"))
	assert.Equal(t, "doc", search.SanitizeKey("///"))
	assert.True(t, search.IsValidKey(search.SanitizeKey("ünïcode päth.txt")))
}
