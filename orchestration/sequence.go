// Copyright (c) Microsoft. All rights reserved.

package orchestration

import (
	"io"
	"strings"
	"sync"
	"unicode"
)

// MaxLabelRunes bounds message text in a diagram.
const MaxLabelRunes = 120

// SequenceLogger records the messages exchanged during an orchestration and
// renders them as a Mermaid sequence diagram. It is safe for concurrent use.
type SequenceLogger struct {
	mu           sync.Mutex
	participants []string
	ids          map[string]string
	lines        []string
}

func NewSequenceLogger() *SequenceLogger {
	return &SequenceLogger{ids: map[string]string{}}
}

// Request records from sending msg to to.
func (l *SequenceLogger) Request(from, to, msg string) { l.arrow(from, "->>", to, msg) }

// Reply records from answering to with msg.
func (l *SequenceLogger) Reply(from, to, msg string) { l.arrow(from, "-->>", to, msg) }

// Note records a note over participant.
func (l *SequenceLogger) Note(participant, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, "Note over "+l.id(participant)+": "+label(msg))
}

func (l *SequenceLogger) arrow(from, arrow, to, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, b := l.id(from), l.id(to)
	l.lines = append(l.lines, a+arrow+b+": "+label(msg))
}

// id declares name on first use. Caller holds mu.
func (l *SequenceLogger) id(name string) string {
	if id, ok := l.ids[name]; ok {
		return id
	}
	id := participantID(name)
	for taken := true; taken; {
		taken = false
		for _, v := range l.ids {
			if v == id {
				id += "_"
				taken = true
				break
			}
		}
	}
	l.ids[name] = id
	decl := "participant " + id
	if id != name {
		decl += " as " + label(name)
	}
	l.participants = append(l.participants, decl)
	return id
}

func participantID(name string) string {
	id := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return r
		}
		return '_'
	}, name)
	if id == "" {
		return "_"
	}
	return id
}

// label flattens msg to one line, truncates it and escapes the characters
// Mermaid treats specially.
func label(msg string) string {
	msg = strings.Join(strings.Fields(msg), " ")
	if r := []rune(msg); len(r) > MaxLabelRunes {
		msg = string(r[:MaxLabelRunes-1]) + "…"
	}
	return labelEscaper.Replace(msg)
}

var labelEscaper = strings.NewReplacer("#", "#35;", ";", "#59;")

// Len reports the number of recorded events.
func (l *SequenceLogger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// String renders the diagram source.
func (l *SequenceLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var b strings.Builder
	b.WriteString("sequenceDiagram\n")
	for _, p := range l.participants {
		b.WriteString("    " + p + "\n")
	}
	for _, line := range l.lines {
		b.WriteString("    " + line + "\n")
	}
	return b.String()
}

// Markdown renders the diagram inside a mermaid code fence.
func (l *SequenceLogger) Markdown() string {
	return "```mermaid\n" + l.String() + "```\n"
}

// WriteTo writes the Markdown form to w.
func (l *SequenceLogger) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, l.Markdown())
	return int64(n), err
}
