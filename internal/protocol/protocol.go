// Package protocol implements the Tool's plain-text wire grammar.
//
// Wire format (one request per connection):
//
//	COMMAND[ SPACE ARG]* DELIM
//
// Arguments are written verbatim. Only curve payloads and by-name lookups are
// wrapped in double quotes; callers apply Quote where the grammar needs it.
// Responses carry no length prefix and no formal grammar, so decoding is
// shape-specific (see decode.go).
package protocol

import (
	"strconv"
	"strings"

	gserrors "github.com/codewiresh/gsapi/internal/errors"
)

// DefaultDelimiter terminates every request (carriage return, decimal 13).
const DefaultDelimiter = "\r"

const (
	argSeparator = ' '
	quoteChar    = '"'
)

// Request is one command with its positional argument tokens.
type Request struct {
	Command string
	Args    []string
}

// Encode renders r as wire text terminated by delimiter.
func (r Request) Encode(delimiter string) string {
	return Encode(r.Command, delimiter, r.Args...)
}

// String renders r without a terminator, for logs.
func (r Request) String() string {
	return strings.TrimSuffix(r.Encode("\n"), "\n")
}

// Encode joins command and args with single spaces and appends delimiter.
func Encode(command, delimiter string, args ...string) string {
	var b strings.Builder
	b.WriteString(command)
	for _, arg := range args {
		b.WriteByte(argSeparator)
		b.WriteString(arg)
	}
	b.WriteString(delimiter)
	return b.String()
}

// ParseRequest splits raw request text back into a Request.
// One trailing delimiter is removed. Tokens are split on every single space
// that is not inside double quotes, and quote characters are kept, so
// ParseRequest followed by Encode reproduces raw exactly.
func ParseRequest(raw, delimiter string) (Request, error) {
	body := raw
	if delimiter != "" {
		body = strings.TrimSuffix(body, delimiter)
	}
	tokens := splitOutsideQuotes(body)
	if len(tokens) == 0 || tokens[0] == "" {
		return Request{}, gserrors.NewInvalidArgumentError("request has no command token", nil)
	}
	req := Request{Command: tokens[0]}
	if len(tokens) > 1 {
		req.Args = tokens[1:]
	}
	return req, nil
}

func splitOutsideQuotes(s string) []string {
	if s == "" {
		return nil
	}
	var (
		tokens  []string
		start   int
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case quoteChar:
			inQuote = !inQuote
		case argSeparator:
			if !inQuote {
				tokens = append(tokens, s[start:i])
				start = i + 1
			}
		}
	}
	return append(tokens, s[start:])
}

// Quote wraps s in double quotes.
func Quote(s string) string {
	return string(quoteChar) + s + string(quoteChar)
}

// Unquote removes one pair of surrounding double quotes, if present.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == quoteChar && s[len(s)-1] == quoteChar {
		return s[1 : len(s)-1]
	}
	return s
}

// FormatFloat renders v in plain decimal notation, never with an exponent.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatInt renders v in base 10.
func FormatInt(v int) string {
	return strconv.Itoa(v)
}

// FormatFlag renders b as the Tool's 1/0 flag.
func FormatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
