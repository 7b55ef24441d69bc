// Copyright (c) Microsoft. All rights reserved.

package agentframework

// ContentType identifies the kind of a [Content] item.
type ContentType string

const (
	ContentTypeText           ContentType = "text"
	ContentTypeFunctionCall   ContentType = "functionCall"
	ContentTypeFunctionResult ContentType = "functionResult"
	ContentTypeCitation       ContentType = "citation"
	ContentTypeHostedFile     ContentType = "hostedFile"
	ContentTypeError          ContentType = "error"
)

// Content is one part of a [Message]. The set of implementations is closed;
// inspect values with a type switch.
type Content interface {
	Type() ContentType
	sealed()
}

type sealedContent struct{}

func (sealedContent) sealed() {}

// Contents is an ordered list of message parts.
type Contents []Content

// TextContent is plain model or user text.
type TextContent struct {
	sealedContent
	Text string
}

func (*TextContent) Type() ContentType { return ContentTypeText }

// FunctionCallContent is a tool call requested by the model. Arguments is
// the raw JSON argument object.
type FunctionCallContent struct {
	sealedContent
	CallID    string
	Name      string
	Arguments string
}

func (*FunctionCallContent) Type() ContentType { return ContentTypeFunctionCall }

// FunctionResultContent carries the output of a tool call back to the model.
type FunctionResultContent struct {
	sealedContent
	CallID string
	Result any
}

func (*FunctionResultContent) Type() ContentType { return ContentTypeFunctionResult }

// CitationContent is a grounding reference attached to a reply, such as a
// Bing url_citation or a file_search file_citation.
type CitationContent struct {
	sealedContent
	Marker string // text span in the reply, e.g. "【3:0†source】"
	URL    string
	Title  string
	FileID string
	Quote  string
}

func (*CitationContent) Type() ContentType { return ContentTypeCitation }

// HostedFileContent references a file produced or stored by the service,
// for example a chart written by the code interpreter.
type HostedFileContent struct {
	sealedContent
	FileID   string
	Filename string
}

func (*HostedFileContent) Type() ContentType { return ContentTypeHostedFile }

// ErrorContent reports a failure as message content.
type ErrorContent struct {
	sealedContent
	Message string
	Code    string
}

func (*ErrorContent) Type() ContentType { return ContentTypeError }

// OfType returns the items whose type is t, preserving order.
func (cs Contents) OfType(t ContentType) Contents {
	var out Contents
	for _, c := range cs {
		if c.Type() == t {
			out = append(out, c)
		}
	}
	return out
}
