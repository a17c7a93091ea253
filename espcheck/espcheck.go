// Package espcheck provides assertion helpers for checking the result
// of converting a literal-only ESP template: one with no <% %> code
// blocks referencing variables, only template text and ${...} compact
// expressions holding bare literals. It does not execute JavaScript —
// Render understands only out.write("...") and out.write(EXPR); calls
// where EXPR is a quoted string or integer literal, and walks the
// generated call sequence textually to reconstruct the rendered text.
//
// Example usage with a JSON check:
//
//	rendered, err := espcheck.Render(generatedJS)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if msg := espcheck.JSON("/name", "==", `"Alice"`, rendered); msg != "" {
//		log.Fatal(msg)
//	}
package espcheck

import (
	"bytes"
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ericchiang/css"
	"golang.org/x/net/html"
)

// Render evaluates the out.write(...) call sequence produced by
// converting a literal-only ESP template, concatenating the values
// written in order. Any leading statement before the first out.write
// call (the out-init prologue) is skipped.
//
// Render understands exactly two call shapes:
//
//	out.write("...")    a JS double-quoted string literal
//	out.write(EXPR);    EXPR is a bare quoted string or integer literal
//
// Anything else — a variable reference, an operator, a function call —
// is reported as an error. Render is a literal evaluator, not a
// JavaScript interpreter, and is not meant to grow into one.
func Render(out string) (string, error) {
	const callPrefix = "out.write("

	var b strings.Builder
	i := strings.Index(out, callPrefix)
	if i < 0 {
		return "", nil
	}

	for i < len(out) {
		for i < len(out) && (out[i] == '\n' || out[i] == ' ' || out[i] == '\t') {
			i++
		}
		if i >= len(out) {
			break
		}
		if !strings.HasPrefix(out[i:], callPrefix) {
			return "", fmt.Errorf("espcheck: unsupported statement at offset %d: %.20q", i, out[i:])
		}
		i += len(callPrefix)
		if i >= len(out) {
			return "", errors.New("espcheck: truncated out.write call")
		}

		var value string
		if out[i] == '"' {
			lit, next, err := scanStringLiteral(out, i)
			if err != nil {
				return "", err
			}
			if next >= len(out) || out[next] != ')' {
				return "", fmt.Errorf("espcheck: expected ')' at offset %d", next)
			}
			value, i = lit, next+1
		} else {
			j := strings.IndexByte(out[i:], ')')
			if j < 0 {
				return "", errors.New("espcheck: unterminated out.write call")
			}
			expr := strings.TrimSpace(out[i : i+j])
			val, err := evalLiteralExpr(expr)
			if err != nil {
				return "", err
			}
			value, i = val, i+j+1
		}

		if i >= len(out) || out[i] != ';' {
			return "", fmt.Errorf("espcheck: expected ';' at offset %d", i)
		}
		i++
		b.WriteString(value)
	}
	return b.String(), nil
}

// scanStringLiteral parses a JS double-quoted string literal starting
// at s[i] (which must be '"'), unescaping \", \\, and \n, and returns
// the decoded value and the index just past the closing quote.
func scanStringLiteral(s string, i int) (string, int, error) {
	if i >= len(s) || s[i] != '"' {
		return "", i, fmt.Errorf("espcheck: expected '\"' at offset %d", i)
	}
	i++
	var b strings.Builder
	for i < len(s) {
		c := s[i]
		if c == '"' {
			return b.String(), i + 1, nil
		}
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"':
				b.WriteByte('"')
				i += 2
				continue
			case '\\':
				b.WriteByte('\\')
				i += 2
				continue
			case 'n':
				b.WriteByte('\n')
				i += 2
				continue
			}
		}
		b.WriteByte(c)
		i++
	}
	return "", i, errors.New("espcheck: unterminated string literal")
}

// evalLiteralExpr evaluates a bare quoted string or integer literal,
// the only two expression shapes Render supports inside out.write(...).
func evalLiteralExpr(expr string) (string, error) {
	if strings.HasPrefix(expr, `"`) {
		lit, next, err := scanStringLiteral(expr, 0)
		if err != nil {
			return "", err
		}
		if next != len(expr) {
			return "", fmt.Errorf("espcheck: unsupported expression %q", expr)
		}
		return lit, nil
	}
	n, err := strconv.Atoi(expr)
	if err != nil {
		return "", fmt.Errorf("espcheck: unsupported expression %q (not a literal)", expr)
	}
	return strconv.Itoa(n), nil
}

// Escaped asserts that escaping literal into a JS double-quoted string
// produces exactly wantJS, directly exercising the escape rule `"` ->
// `\"`, `\` -> `\\`, `\n` -> `\n` (two characters), everything else
// verbatim. Returns empty string on success, a failure message
// otherwise.
func Escaped(literal, wantJS string) string {
	var b strings.Builder
	for _, ch := range literal {
		switch ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(ch)
		}
	}
	got := b.String()
	if got != wantJS {
		return fmt.Sprintf("escaping %#q = %#q, want %#q", literal, got, wantJS)
	}
	return ""
}

// JSON checks a JSON value at an RFC 6901 pointer path within body.
//
// It uses [Text] for comparison, supporting operators like ==, !=, ~,
// !~, contains, and !contains.
//
// Values are compared as strings. Strings include their quotes, making
// it easy to check types using string comparison operators:
//
//	/foo ~ ^"                            # value is a string
//	/foo ~ ^\[                           # value is an array
//	/foo ~ ^\{                           # value is an object
//	/foo == true                         # boolean true
//	/foo == null                         # null
//	/foo == 42                           # integer
//
// # Undefined
//
// If path does not exist, the value is "undefined". This is distinct
// from any valid JSON value, making it safe to test for missing keys:
//
//	/missing == undefined
//
// Returns empty string on success, error message on failure.
func JSON(path, op, want, body string) string {
	msg, ok := Text(path, op, "_", want)
	if !ok {
		return msg
	}
	got, err := jsonFind(body, jsontext.Pointer(path))
	if err != nil {
		return err.Error()
	}
	msg, _ = Text(path, op, got, want)
	return msg
}

func jsonFind(body string, target jsontext.Pointer) (string, error) {
	dec := jsontext.NewDecoder(strings.NewReader(body))
	readValue := func() (string, error) {
		v, err := dec.ReadValue()
		return strings.TrimSpace(v.String()), err
	}

	if target == "" || target == "/" {
		return readValue()
	}

	for {
		tok, err := dec.ReadToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "undefined", nil
			}
			return "", err
		}
		if dec.StackPointer() == target {
			k, _ := dec.StackIndex(dec.StackDepth())
			switch k {
			case '{':
				return readValue()
			default:
				if tok.Kind() == '"' {
					b, err := jsontext.AppendQuote(nil, tok.String())
					return string(b), err
				}
				return tok.String(), nil
			}
		}
	}
}

// HTML checks the inner HTML of elements in body matching a CSS
// selector.
//
// It uses [Text] for comparison, supporting operators like ==, !=, ~,
// !~, contains, and !contains.
//
// An additional "count" operator compares the number of matched
// elements against the expected value.
//
// # Selectors
//
// Selectors must not contain spaces. CSS provides several combinators
// that can be used without spaces:
//
//   - "parent>child" selects direct children (e.g., "ul>li")
//   - "a~b" selects siblings of a that are b (general sibling)
//   - "a+b" selects the immediate sibling b after a (adjacent sibling)
//   - "a,b" selects elements matching either a or b
//
// # No Match Behavior
//
// If no elements match the selector, it returns an error saying
// "no elements match selector {selector}" (except for count operator,
// which returns 0 and only errors if the expected count is non-zero).
//
// Returns empty string on success, error message on failure.
func HTML(selector, op, want, body string) string {
	msg, ok := Text(selector, op, "_", want)
	if !ok && op != "count" {
		return msg
	}

	sel, err := css.Parse(selector)
	if err != nil {
		return fmt.Sprintf("error parsing selector %q: %v", selector, err)
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return fmt.Sprintf("error parsing HTML: %v", err)
	}

	matches := sel.Select(doc)

	if op == "count" {
		if want == "" {
			return "count operator requires non-empty want value"
		}
		got := strconv.Itoa(len(matches))
		msg, _ := Text(selector, "==", got, want)
		return msg
	}

	if len(matches) == 0 {
		return fmt.Sprintf("no elements match selector %q", selector)
	}

	got := innerHTML(matches[0])
	msg, _ = Text(selector, op, got, want)
	return msg
}

// innerHTML returns the inner HTML of a node as a string.
func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

// Text compares got against want using the specified operator op and
// returns a failure message when the comparison does not hold. An
// empty string means the check passed.
//
// Supported operators:
//   - "==": equality
//   - "!=": inequality
//   - "~": regex match
//   - "!~": regex non-match
//   - "contains": substring presence
//   - "!contains": substring absence
//
// If valid is false, the message indicates an error in the check
// itself. If valid is true, the message indicates a failed check.
func Text(what, op, got, want string) (msg string, valid bool) {
	switch op {
	case "~", "!~":
		_, err := regexp.Compile(want)
		if err != nil {
			return fmt.Sprintf("error compiling regex %#q: %v", want, err), false
		}
	default:
		if want == "" {
			return "non-regex comparison requires non-empty want value", false
		}
	}

	switch op {
	case "==":
		if got != want {
			return fmt.Sprintf("%s = %#q, want %#q", what, got, want), true
		}
	case "!=":
		if got == want {
			return fmt.Sprintf("%s == %#q (but should not)", what, want), true
		}
	case "~":
		ok, err := regexp.MatchString(want, got)
		if err != nil {
			return fmt.Sprintf("error compiling regex %#q: %v", want, err), true
		}
		if !ok {
			return fmt.Sprintf("%s does not match %#q (but should)\t%s", what, want, indentText(got)), true
		}
	case "!~":
		ok, err := regexp.MatchString(want, got)
		if err != nil {
			return fmt.Sprintf("error compiling regex %#q: %v", want, err), true
		}
		if ok {
			return fmt.Sprintf("%s matches %#q (but should not)\t%s", what, want, indentText(got)), true
		}
	case "contains":
		if !strings.Contains(got, want) {
			return fmt.Sprintf("%s does not contain %#q (but should)\t%s", what, want, indentText(got)), true
		}
	case "!contains":
		if strings.Contains(got, want) {
			return fmt.Sprintf("%s contains %#q (but should not)\t%s", what, want, indentText(got)), true
		}
	default:
		return fmt.Sprintf("unknown operator %q", op), false
	}

	return "", true
}

// indentText formats text for inclusion in error messages.
func indentText(text string) string {
	if text == "" {
		return "(empty)"
	}
	if text == "\n" {
		return "(blank line)"
	}
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return "(blank lines)"
	}
	text = strings.ReplaceAll(text, "\n", "\n\t")
	return text
}
