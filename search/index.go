// Copyright (c) Microsoft. All rights reserved.

package search

// Field types used by the RAG schema.
const (
	TypeString       = "Edm.String"
	TypeInt32        = "Edm.Int32"
	TypeSingleVector = "Collection(Edm.Single)"
)

const (
	vectorProfile   = "vector-profile"
	vectorAlgorithm = "hnsw"
	// SemanticConfig is the semantic configuration name created by RAGIndex.
	SemanticConfig = "default"
)

// Index is an index definition.
type Index struct {
	Name         string            `json:"name"`
	Fields       []Field           `json:"fields"`
	VectorSearch *VectorSearch     `json:"vectorSearch,omitempty"`
	Semantic     *SemanticSettings `json:"semantic,omitempty"`
	ETag         string            `json:"@odata.etag,omitempty"`
}

type Field struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Key           bool   `json:"key,omitempty"`
	Searchable    *bool  `json:"searchable,omitempty"`
	Filterable    *bool  `json:"filterable,omitempty"`
	Sortable      *bool  `json:"sortable,omitempty"`
	Facetable     *bool  `json:"facetable,omitempty"`
	Retrievable   *bool  `json:"retrievable,omitempty"`
	Analyzer      string `json:"analyzer,omitempty"`
	Dimensions    int    `json:"dimensions,omitempty"`
	VectorProfile string `json:"vectorSearchProfile,omitempty"`
}

type VectorSearch struct {
	Algorithms []VectorAlgorithm `json:"algorithms"`
	Profiles   []VectorProfile   `json:"profiles"`
}

type VectorAlgorithm struct {
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	HNSWParameters *HNSWParameters `json:"hnswParameters,omitempty"`
}

type HNSWParameters struct {
	M              int    `json:"m"`
	EfConstruction int    `json:"efConstruction"`
	EfSearch       int    `json:"efSearch"`
	Metric         string `json:"metric"`
}

type VectorProfile struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

type SemanticSettings struct {
	DefaultConfiguration string                  `json:"defaultConfiguration,omitempty"`
	Configurations       []SemanticConfiguration `json:"configurations"`
}

type SemanticConfiguration struct {
	Name              string            `json:"name"`
	PrioritizedFields PrioritizedFields `json:"prioritizedFields"`
}

type PrioritizedFields struct {
	TitleField     *FieldRef  `json:"titleField,omitempty"`
	ContentFields  []FieldRef `json:"prioritizedContentFields"`
	KeywordsFields []FieldRef `json:"prioritizedKeywordsFields,omitempty"`
}

type FieldRef struct {
	FieldName string `json:"fieldName"`
}

func flag(b bool) *bool { return &b }

// RAGIndex returns the schema [Document] is stored in: a key, searchable
// content and title, filterable source, the chunk position and a
// dims-dimensional vector searched with HNSW over cosine distance.
func RAGIndex(name string, dims int) *Index {
	return &Index{
		Name: name,
		Fields: []Field{
			{Name: "id", Type: TypeString, Key: true, Filterable: flag(true)},
			{Name: "content", Type: TypeString, Searchable: flag(true), Analyzer: "en.microsoft"},
			{Name: "title", Type: TypeString, Searchable: flag(true)},
			{Name: "source", Type: TypeString, Filterable: flag(true), Facetable: flag(true)},
			{Name: "chunk_index", Type: TypeInt32, Filterable: flag(true), Sortable: flag(true)},
			{Name: "content_vector", Type: TypeSingleVector, Searchable: flag(true), Retrievable: flag(false),
				Dimensions: dims, VectorProfile: vectorProfile},
		},
		VectorSearch: &VectorSearch{
			Algorithms: []VectorAlgorithm{{
				Name:           vectorAlgorithm,
				Kind:           "hnsw",
				HNSWParameters: &HNSWParameters{M: 4, EfConstruction: 400, EfSearch: 500, Metric: "cosine"},
			}},
			Profiles: []VectorProfile{{Name: vectorProfile, Algorithm: vectorAlgorithm}},
		},
		Semantic: &SemanticSettings{
			DefaultConfiguration: SemanticConfig,
			Configurations: []SemanticConfiguration{{
				Name: SemanticConfig,
				PrioritizedFields: PrioritizedFields{
					TitleField:    &FieldRef{FieldName: "title"},
					ContentFields: []FieldRef{{FieldName: "content"}},
				},
			}},
		},
	}
}

// Field returns the named field, or nil.
func (idx *Index) Field(name string) *Field {
	for i := range idx.Fields {
		if idx.Fields[i].Name == name {
			return &idx.Fields[i]
		}
	}
	return nil
}
