// Package message models incoming chat messages independently of the
// transport library and recovers compile requests from them.
package message

import (
	"fmt"
	"strings"
	"unicode"
)

// SpanKind classifies an annotated range of a chat message.
type SpanKind int

const (
	SpanOther SpanKind = iota
	SpanCode  // inline code entity
	SpanPre   // preformatted block entity
)

// Span is one annotated range of a message, reduced to what extraction
// needs: its kind and the literal text it covers.
type Span struct {
	Kind SpanKind
	Text string
}

// Incoming is a chat message as seen by the dispatcher.
type Incoming struct {
	ChatID int64
	Text   string
	Spans  []Span
}

// CompileRequest is the payload of a well-formed compile message.
type CompileRequest struct {
	CompilerID string
	Code       string
}

// FormatError reports a malformed compile message. Its Reason is sent back
// to the user verbatim.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return e.Reason }

// ExtractCompileRequest pulls the single code block and the compiler id out
// of a compile message. The message must carry exactly one code or pre span.
// The compiler id is the second whitespace-separated token of the message
// text once the code block's text is removed; the first token is the command
// itself and anything past the second token is ignored.
func ExtractCompileRequest(msg Incoming) (CompileRequest, error) {
	var code []string
	for _, s := range msg.Spans {
		if s.Kind == SpanCode || s.Kind == SpanPre {
			code = append(code, s.Text)
		}
	}
	if len(code) != 1 {
		return CompileRequest{}, &FormatError{
			Reason: fmt.Sprintf("Invalid format. Expected exactly one code block, got %d.", len(code)),
		}
	}

	remainder := strings.ReplaceAll(msg.Text, code[0], "")
	tokens := strings.Fields(remainder)
	if len(tokens) < 2 {
		return CompileRequest{}, &FormatError{Reason: "Invalid format. Expected compile command."}
	}

	return CompileRequest{CompilerID: tokens[1], Code: code[0]}, nil
}

// SplitArg splits a command argument on its first whitespace run into a
// primary token and the residual text. The residual keeps any internal
// whitespace of its own. Leading and trailing whitespace is trimmed first.
func SplitArg(arg string) (primary, residual string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", ""
	}
	i := strings.IndexFunc(arg, unicode.IsSpace)
	if i < 0 {
		return arg, ""
	}
	return arg[:i], strings.TrimLeftFunc(arg[i:], unicode.IsSpace)
}
