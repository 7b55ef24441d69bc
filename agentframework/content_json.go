// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Transcript wire format. Each content item carries a $type discriminator
// matching its [ContentType].

type messageJSON struct {
	Role       Role              `json:"role"`
	AuthorName string            `json:"authorName,omitempty"`
	MessageID  string            `json:"messageId,omitempty"`
	Contents   []json.RawMessage `json:"contents"`
}

type contentJSON struct {
	Type      ContentType     `json:"$type"`
	Text      string          `json:"text,omitempty"`
	CallID    string          `json:"callId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Marker    string          `json:"marker,omitempty"`
	URL       string          `json:"url,omitempty"`
	Title     string          `json:"title,omitempty"`
	FileID    string          `json:"fileId,omitempty"`
	Filename  string          `json:"filename,omitempty"`
	Quote     string          `json:"quote,omitempty"`
	Message   string          `json:"message,omitempty"`
	Code      string          `json:"code,omitempty"`
}

// MarshalContentJSON encodes one content item.
func MarshalContentJSON(c Content) ([]byte, error) {
	w := contentJSON{Type: c.Type()}
	switch v := c.(type) {
	case *TextContent:
		w.Text = v.Text
	case *FunctionCallContent:
		w.CallID, w.Name = v.CallID, v.Name
		if json.Valid([]byte(v.Arguments)) {
			w.Arguments = json.RawMessage(v.Arguments)
		} else if v.Arguments != "" {
			b, _ := json.Marshal(v.Arguments)
			w.Arguments = b
		}
	case *FunctionResultContent:
		w.CallID = v.CallID
		b, err := json.Marshal(v.Result)
		if err != nil {
			b, _ = json.Marshal(FormatResult(v.Result))
		}
		w.Result = b
	case *CitationContent:
		w.Marker, w.URL, w.Title, w.FileID, w.Quote = v.Marker, v.URL, v.Title, v.FileID, v.Quote
	case *HostedFileContent:
		w.FileID, w.Filename = v.FileID, v.Filename
	case *ErrorContent:
		w.Message, w.Code = v.Message, v.Code
	default:
		return nil, fmt.Errorf("unsupported content type %T", c)
	}
	return json.Marshal(w)
}

// UnmarshalContentJSON decodes one content item.
func UnmarshalContentJSON(data []byte) (Content, error) {
	var w contentJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case ContentTypeText:
		return &TextContent{Text: w.Text}, nil
	case ContentTypeFunctionCall:
		var args string
		if len(w.Arguments) > 0 && json.Unmarshal(w.Arguments, &args) != nil {
			var buf bytes.Buffer
			if err := json.Compact(&buf, w.Arguments); err != nil {
				return nil, err
			}
			args = buf.String()
		}
		return &FunctionCallContent{CallID: w.CallID, Name: w.Name, Arguments: args}, nil
	case ContentTypeFunctionResult:
		var result any
		if len(w.Result) > 0 {
			if err := json.Unmarshal(w.Result, &result); err != nil {
				return nil, err
			}
		}
		return &FunctionResultContent{CallID: w.CallID, Result: result}, nil
	case ContentTypeCitation:
		return &CitationContent{Marker: w.Marker, URL: w.URL, Title: w.Title, FileID: w.FileID, Quote: w.Quote}, nil
	case ContentTypeHostedFile:
		return &HostedFileContent{FileID: w.FileID, Filename: w.Filename}, nil
	case ContentTypeError:
		return &ErrorContent{Message: w.Message, Code: w.Code}, nil
	}
	return nil, fmt.Errorf("unknown content $type %q", w.Type)
}

// MarshalMessages encodes a transcript as an indented JSON array.
func MarshalMessages(msgs []Message) ([]byte, error) {
	out := make([]messageJSON, 0, len(msgs))
	for _, m := range msgs {
		mj := messageJSON{Role: m.Role, AuthorName: m.AuthorName, MessageID: m.MessageID, Contents: []json.RawMessage{}}
		for _, c := range m.Contents {
			b, err := MarshalContentJSON(c)
			if err != nil {
				return nil, err
			}
			mj.Contents = append(mj.Contents, b)
		}
		out = append(out, mj)
	}
	return json.MarshalIndent(out, "", "  ")
}

// UnmarshalMessages decodes a transcript written by [MarshalMessages].
func UnmarshalMessages(data []byte) ([]Message, error) {
	var in []messageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(in))
	for i, mj := range in {
		m := Message{Role: mj.Role, AuthorName: mj.AuthorName, MessageID: mj.MessageID}
		for _, raw := range mj.Contents {
			c, err := UnmarshalContentJSON(raw)
			if err != nil {
				return nil, fmt.Errorf("message %d: %w", i, err)
			}
			m.Contents = append(m.Contents, c)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
