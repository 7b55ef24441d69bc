// Copyright (c) Microsoft. All rights reserved.

// Package search is a small Azure AI Search client covering what a RAG
// sample needs: one index schema with a vector field, batch indexing, and
// keyword, vector, hybrid and semantic queries.
package search
