// Copyright (c) Microsoft. All rights reserved.

// Package rag implements retrieval-augmented generation over Azure AI
// Search: documents are loaded from disk or Blob Storage, reduced to text,
// split into overlapping chunks, embedded with Azure OpenAI and indexed.
// Questions are answered from the retrieved chunks, either directly with
// [Pipeline.Answer] or by attaching a [SearchContextProvider] to an agent.
package rag
