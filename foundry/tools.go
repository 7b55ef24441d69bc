// Copyright (c) Microsoft. All rights reserved.

package foundry

import (
	"encoding/json"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Tool type names understood by the Agents service.
const (
	ToolTypeFunction          = "function"
	ToolTypeFileSearch        = "file_search"
	ToolTypeCodeInterpreter   = "code_interpreter"
	ToolTypeBingGrounding     = "bing_grounding"
	ToolTypeBrowserAutomation = "browser_automation"
	ToolTypeConnectedAgent    = "connected_agent"
	ToolTypeAzureAISearch     = "azure_ai_search"
)

// ToolDefinition is one entry of an agent's tools list. Only the field
// matching Type is set.
type ToolDefinition struct {
	Type              string                 `json:"type"`
	Function          *FunctionDefinition    `json:"function,omitempty"`
	FileSearch        *FileSearchOptions     `json:"file_search,omitempty"`
	BingGrounding     *BingGroundingOptions  `json:"bing_grounding,omitempty"`
	BrowserAutomation *BrowserAutomationOpts `json:"browser_automation,omitempty"`
	ConnectedAgent    *ConnectedAgentOptions `json:"connected_agent,omitempty"`
}

type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type FileSearchOptions struct {
	MaxNumResults int `json:"max_num_results,omitempty"`
}

type BingGroundingOptions struct {
	SearchConfigurations []BingSearchConfiguration `json:"search_configurations"`
}

type BingSearchConfiguration struct {
	ConnectionID string `json:"connection_id"`
	Count        int    `json:"count,omitempty"`
	Market       string `json:"market,omitempty"`
	Freshness    string `json:"freshness,omitempty"`
}

type BrowserAutomationOpts struct {
	Connection struct {
		ID string `json:"id"`
	} `json:"connection"`
}

type ConnectedAgentOptions struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolResources hands files, vector stores and indexes to the built-in
// tools.
type ToolResources struct {
	CodeInterpreter *CodeInterpreterResource `json:"code_interpreter,omitempty"`
	FileSearch      *FileSearchResource      `json:"file_search,omitempty"`
	AzureAISearch   *AzureAISearchResource   `json:"azure_ai_search,omitempty"`
}

type CodeInterpreterResource struct {
	FileIDs []string `json:"file_ids"`
}

type FileSearchResource struct {
	VectorStoreIDs []string `json:"vector_store_ids"`
}

type AzureAISearchResource struct {
	Indexes []AISearchIndex `json:"indexes"`
}

// AISearchQueryType selects how the azure_ai_search tool queries an index.
type AISearchQueryType string

const (
	AISearchSimple             AISearchQueryType = "simple"
	AISearchSemantic           AISearchQueryType = "semantic"
	AISearchVector             AISearchQueryType = "vector"
	AISearchVectorSimpleHybrid AISearchQueryType = "vector_simple_hybrid"
)

type AISearchIndex struct {
	ConnectionID string            `json:"index_connection_id"`
	IndexName    string            `json:"index_name"`
	QueryType    AISearchQueryType `json:"query_type,omitempty"`
	TopK         int               `json:"top_k,omitempty"`
	Filter       string            `json:"filter,omitempty"`
}

// FunctionToolDef declares a local tool to the service. Calls to it come
// back as requires_action and are resolved by [Client.RunAndWait].
func FunctionToolDef(t af.Tool) ToolDefinition {
	return ToolDefinition{Type: ToolTypeFunction, Function: &FunctionDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}}
}

// FunctionToolDefs declares every tool in ts.
func FunctionToolDefs(ts *af.ToolSet) []ToolDefinition {
	var defs []ToolDefinition
	for _, t := range ts.Tools() {
		defs = append(defs, FunctionToolDef(t))
	}
	return defs
}

// FileSearchTool searches the vector stores in the agent's tool resources.
// maxResults of 0 keeps the service default.
func FileSearchTool(maxResults int) ToolDefinition {
	def := ToolDefinition{Type: ToolTypeFileSearch}
	if maxResults > 0 {
		def.FileSearch = &FileSearchOptions{MaxNumResults: maxResults}
	}
	return def
}

func CodeInterpreterTool() ToolDefinition {
	return ToolDefinition{Type: ToolTypeCodeInterpreter}
}

// BingGroundingTool grounds replies in web results through a Bing
// connection of the project.
func BingGroundingTool(connectionID string) ToolDefinition {
	return ToolDefinition{Type: ToolTypeBingGrounding, BingGrounding: &BingGroundingOptions{
		SearchConfigurations: []BingSearchConfiguration{{ConnectionID: connectionID}},
	}}
}

// BrowserAutomationTool drives a Playwright workspace connection.
func BrowserAutomationTool(connectionID string) ToolDefinition {
	opts := &BrowserAutomationOpts{}
	opts.Connection.ID = connectionID
	return ToolDefinition{Type: ToolTypeBrowserAutomation, BrowserAutomation: opts}
}

// ConnectedAgentTool exposes another agent as a tool. The service routes
// calls to it; the client never sees them.
func ConnectedAgentTool(agentID, name, description string) ToolDefinition {
	return ToolDefinition{Type: ToolTypeConnectedAgent, ConnectedAgent: &ConnectedAgentOptions{
		ID:          agentID,
		Name:        name,
		Description: description,
	}}
}

// AzureAISearchTool queries an Azure AI Search index through a project
// connection. The returned resources must be set on the agent.
func AzureAISearchTool(connectionID, index string, queryType AISearchQueryType, topK int) (ToolDefinition, *ToolResources) {
	return ToolDefinition{Type: ToolTypeAzureAISearch}, &ToolResources{
		AzureAISearch: &AzureAISearchResource{Indexes: []AISearchIndex{{
			ConnectionID: connectionID,
			IndexName:    index,
			QueryType:    queryType,
			TopK:         topK,
		}}},
	}
}

// MergeResources combines tool resources, concatenating ID lists.
func MergeResources(rs ...*ToolResources) *ToolResources {
	var out *ToolResources
	for _, r := range rs {
		if r == nil {
			continue
		}
		if out == nil {
			out = &ToolResources{}
		}
		if r.CodeInterpreter != nil {
			if out.CodeInterpreter == nil {
				out.CodeInterpreter = &CodeInterpreterResource{}
			}
			out.CodeInterpreter.FileIDs = append(out.CodeInterpreter.FileIDs, r.CodeInterpreter.FileIDs...)
		}
		if r.FileSearch != nil {
			if out.FileSearch == nil {
				out.FileSearch = &FileSearchResource{}
			}
			out.FileSearch.VectorStoreIDs = append(out.FileSearch.VectorStoreIDs, r.FileSearch.VectorStoreIDs...)
		}
		if r.AzureAISearch != nil {
			if out.AzureAISearch == nil {
				out.AzureAISearch = &AzureAISearchResource{}
			}
			out.AzureAISearch.Indexes = append(out.AzureAISearch.Indexes, r.AzureAISearch.Indexes...)
		}
	}
	return out
}
