// Copyright (c) Microsoft. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Mode selects how a query is matched.
type Mode string

const (
	ModeKeyword Mode = "keyword"
	ModeVector  Mode = "vector"
	// ModeHybrid combines keyword and vector scores with reciprocal rank
	// fusion.
	ModeHybrid Mode = "hybrid"
)

// Query describes a search. Text is required for keyword and hybrid modes
// and Vector for vector and hybrid modes.
type Query struct {
	Mode   Mode
	Text   string
	Vector []float32
	Top    int
	Filter string
	Select []string
	// Semantic reranks results with the index's semantic configuration and
	// returns captions.
	Semantic bool
}

// Result is one hit.
type Result struct {
	Document
	Score         float64
	RerankerScore float64
	Captions      []string
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

type searchRequest struct {
	Search        string        `json:"search,omitempty"`
	VectorQueries []vectorQuery `json:"vectorQueries,omitempty"`
	Top           int           `json:"top,omitempty"`
	Filter        string        `json:"filter,omitempty"`
	Select        string        `json:"select,omitempty"`
	QueryType     string        `json:"queryType,omitempty"`
	SemanticConf  string        `json:"semanticConfiguration,omitempty"`
	Captions      string        `json:"captions,omitempty"`
}

type searchHit struct {
	Document
	Score         float64 `json:"@search.score"`
	RerankerScore float64 `json:"@search.rerankerScore"`
	Captions      []struct {
		Text string `json:"text"`
	} `json:"@search.captions"`
}

func (q *Query) request() (*searchRequest, error) {
	mode := q.Mode
	if mode == "" {
		mode = ModeKeyword
		if len(q.Vector) > 0 {
			mode = ModeHybrid
		}
	}
	top := q.Top
	if top <= 0 {
		top = 5
	}
	req := &searchRequest{Top: top, Filter: q.Filter, Select: strings.Join(q.Select, ",")}
	switch mode {
	case ModeKeyword, ModeHybrid:
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("%w: %s search needs query text", af.ErrInvalidRequest, mode)
		}
		req.Search = q.Text
	case ModeVector:
	default:
		return nil, fmt.Errorf("%w: unknown search mode %q", af.ErrInvalidRequest, mode)
	}
	if mode == ModeVector || mode == ModeHybrid {
		if len(q.Vector) == 0 {
			return nil, fmt.Errorf("%w: %s search needs a query vector", af.ErrInvalidRequest, mode)
		}
		req.VectorQueries = []vectorQuery{{Kind: "vector", Vector: q.Vector, Fields: "content_vector", K: top}}
	}
	if q.Semantic {
		if req.Search == "" {
			return nil, fmt.Errorf("%w: semantic ranking needs query text", af.ErrInvalidRequest)
		}
		req.QueryType = "semantic"
		req.SemanticConf = SemanticConfig
		req.Captions = "extractive"
	}
	return req, nil
}

// Search runs q and returns hits in service order.
func (c *Client) Search(ctx context.Context, q Query) ([]Result, error) {
	req, err := q.request()
	if err != nil {
		return nil, err
	}
	var resp struct {
		Value []searchHit `json:"value"`
	}
	if err := c.rest.Do(ctx, http.MethodPost, c.indexPath()+"/docs/search", nil, req, &resp); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(resp.Value))
	for _, h := range resp.Value {
		r := Result{Document: h.Document, Score: h.Score, RerankerScore: h.RerankerScore}
		for _, c := range h.Captions {
			r.Captions = append(r.Captions, c.Text)
		}
		results = append(results, r)
	}
	return results, nil
}
