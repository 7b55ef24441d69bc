// Copyright (c) Microsoft. All rights reserved.

package foundry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Definition describes an agent in a YAML file:
//
//	agents:
//	  - name: triage
//	    model: gpt-4o
//	    instructions: |
//	      Classify the incident.
//	    temperature: 0.2
//	    tools:
//	      - type: function
//	        name: get_metrics
//	      - type: connected_agent
//	        agent: remediation
//	        description: Proposes a fix
type Definition struct {
	Name         string            `yaml:"name"`
	Model        string            `yaml:"model"`
	Description  string            `yaml:"description"`
	Instructions string            `yaml:"instructions"`
	Temperature  *float64          `yaml:"temperature"`
	TopP         *float64          `yaml:"top_p"`
	Metadata     map[string]string `yaml:"metadata"`
	Tools        []ToolSpec        `yaml:"tools"`
}

// ToolSpec names a tool in a [Definition]. Connection and resource IDs are
// not stored in the file; they come from [ToolBindings].
type ToolSpec struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`        // function
	Agent       string `yaml:"agent"`       // connected_agent: definition name
	Description string `yaml:"description"` // connected_agent
	MaxResults  int    `yaml:"max_results"` // file_search
	Index       string `yaml:"index"`       // azure_ai_search
	QueryType   string `yaml:"query_type"`  // azure_ai_search
	TopK        int    `yaml:"top_k"`       // azure_ai_search
}

// ToolBindings supplies the environment-specific values a definition's
// tools need.
type ToolBindings struct {
	Functions           *af.ToolSet
	BingConnectionID    string
	BrowserConnectionID string
	SearchConnectionID  string
	VectorStoreIDs      []string
	CodeFileIDs         []string
	// AgentIDs maps definition names to created agent IDs for
	// connected_agent tools.
	AgentIDs map[string]string
}

type definitionFile struct {
	Agents []Definition `yaml:"agents"`
}

// LoadDefinitions reads agent definitions from a YAML file.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDefinitions(data)
}

// ParseDefinitions decodes YAML agent definitions.
func ParseDefinitions(data []byte) ([]Definition, error) {
	var f definitionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse agent definitions: %w", err)
	}
	seen := map[string]bool{}
	for i, d := range f.Agents {
		if d.Name == "" {
			return nil, fmt.Errorf("agent definition %d: name is required", i)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("agent definition %q: duplicate name", d.Name)
		}
		seen[d.Name] = true
	}
	return f.Agents, nil
}

// Request builds the create request, resolving tools through b.
func (d *Definition) Request(b ToolBindings) (*CreateAgentRequest, error) {
	req := &CreateAgentRequest{
		Model:        d.Model,
		Name:         d.Name,
		Description:  d.Description,
		Instructions: d.Instructions,
		Temperature:  d.Temperature,
		TopP:         d.TopP,
		Metadata:     d.Metadata,
	}
	var resources []*ToolResources
	for _, spec := range d.Tools {
		def, res, err := spec.resolve(b)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", d.Name, err)
		}
		req.Tools = append(req.Tools, def)
		resources = append(resources, res)
	}
	req.ToolResources = MergeResources(resources...)
	return req, nil
}

// DependsOn lists the definitions this one connects to.
func (d *Definition) DependsOn() []string {
	var out []string
	for _, t := range d.Tools {
		if t.Type == ToolTypeConnectedAgent {
			out = append(out, t.Agent)
		}
	}
	return out
}

func (s ToolSpec) resolve(b ToolBindings) (ToolDefinition, *ToolResources, error) {
	missing := func(what string) error {
		return fmt.Errorf("tool %s needs %s", s.Type, what)
	}
	switch s.Type {
	case ToolTypeFunction:
		t, ok := b.Functions.Lookup(s.Name)
		if !ok {
			return ToolDefinition{}, nil, fmt.Errorf("%w: %s", af.ErrUnknownTool, s.Name)
		}
		return FunctionToolDef(t), nil, nil
	case ToolTypeCodeInterpreter:
		var res *ToolResources
		if len(b.CodeFileIDs) > 0 {
			res = &ToolResources{CodeInterpreter: &CodeInterpreterResource{FileIDs: b.CodeFileIDs}}
		}
		return CodeInterpreterTool(), res, nil
	case ToolTypeFileSearch:
		if len(b.VectorStoreIDs) == 0 {
			return ToolDefinition{}, nil, missing("a vector store")
		}
		return FileSearchTool(s.MaxResults), &ToolResources{FileSearch: &FileSearchResource{VectorStoreIDs: b.VectorStoreIDs}}, nil
	case ToolTypeBingGrounding:
		if b.BingConnectionID == "" {
			return ToolDefinition{}, nil, missing("a Bing connection")
		}
		return BingGroundingTool(b.BingConnectionID), nil, nil
	case ToolTypeBrowserAutomation:
		if b.BrowserConnectionID == "" {
			return ToolDefinition{}, nil, missing("a browser automation connection")
		}
		return BrowserAutomationTool(b.BrowserConnectionID), nil, nil
	case ToolTypeConnectedAgent:
		id := b.AgentIDs[s.Agent]
		if id == "" {
			return ToolDefinition{}, nil, missing("the ID of agent " + s.Agent)
		}
		return ConnectedAgentTool(id, s.Agent, s.Description), nil, nil
	case ToolTypeAzureAISearch:
		if b.SearchConnectionID == "" || s.Index == "" {
			return ToolDefinition{}, nil, missing("a search connection and index")
		}
		qt := AISearchQueryType(s.QueryType)
		if qt == "" {
			qt = AISearchSimple
		}
		def, res := AzureAISearchTool(b.SearchConnectionID, s.Index, qt, s.TopK)
		return def, res, nil
	}
	return ToolDefinition{}, nil, fmt.Errorf("unknown tool type %q", s.Type)
}

// CreationOrder sorts definitions so every connected agent is created
// before the agents that reference it.
func CreationOrder(defs []Definition) ([]Definition, error) {
	byName := make(map[string]*Definition, len(defs))
	for i := range defs {
		byName[defs[i].Name] = &defs[i]
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	var out []Definition
	var visit func(name string) error
	visit = func(name string) error {
		d, ok := byName[name]
		if !ok {
			return fmt.Errorf("connected agent %q is not defined", name)
		}
		switch state[name] {
		case visiting:
			return fmt.Errorf("agent %q is part of a connection cycle", name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, dep := range d.DependsOn() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		out = append(out, *d)
		return nil
	}
	for _, d := range defs {
		if err := visit(d.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}
