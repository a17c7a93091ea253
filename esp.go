// Package esp implements a streaming, single-pass transformer that
// converts ECMA Server Page (ESP) templates into plain JavaScript source
// text.
//
// An ESP template interleaves literal text, destined to be written
// verbatim at script runtime, with embedded JavaScript delimited by one
// of four constructs:
//
//	<% ... %>      code block, copied verbatim
//	<%= ... %>     expression, wrapped in out.write( ... )
//	<%-- ... --%>  comment, discarded entirely
//	${ ... }       compact expression, only inside a quoted literal
//
// Reader is a pull-based character-level state machine: it reads one
// rune at a time from an underlying io.Reader and emits zero or more
// runes of JavaScript per step, holding only a small bounded lookahead
// and output queue. It never buffers the whole input or builds an AST.
//
// Reader implements io.Reader, io.RuneReader, and io.Closer, so it
// composes with the rest of the standard library exactly like
// bufio.Reader or bytes.Reader would:
//
//	r := esp.NewReader(file)
//	defer r.Close()
//	js, err := io.ReadAll(r)
//
// Reader is a pure transducer: it does not parse the JavaScript it
// copies or wraps, does not evaluate expressions, and does not validate
// that embedded fragments are well-formed. I/O errors from the
// underlying source are returned unchanged; malformed templates (an
// unterminated <%, <%=, <%--, or ${) are not diagnosed — the remaining
// input is drained as part of whatever region was open, which may
// produce a syntactically invalid JavaScript tail.
//
// A Reader is single-use and is not safe for concurrent use.
package esp

import (
	"io"
	"unicode/utf8"
)

// Region identifies which part of an ESP template the reader is
// currently positioned in.
type Region int

const (
	// RegionTemplate is literal template text, escaped and wrapped in
	// out.write("...") calls.
	RegionTemplate Region = iota
	// RegionCode is a <% ... %> code block, copied verbatim.
	RegionCode
	// RegionExpr is a <%= ... %> expression, wrapped in out.write( ... ).
	RegionExpr
	// RegionComment is a <%-- ... --%> comment, discarded entirely.
	RegionComment
	// RegionCompactExpr is a ${ ... } compact expression nested inside a
	// quoted Template literal.
	RegionCompactExpr
)

// String returns a short name for the region, for logging and
// debugging. It is not part of the reader's output and carries no
// source position information.
func (reg Region) String() string {
	switch reg {
	case RegionTemplate:
		return "template"
	case RegionCode:
		return "code"
	case RegionExpr:
		return "expr"
	case RegionComment:
		return "comment"
	case RegionCompactExpr:
		return "compact-expr"
	default:
		return "unknown"
	}
}

// QuoteContext tracks which source-level quote, if any, is currently
// open in a Template region. It is used only to disambiguate ${ ... }
// from bare {...}; it does not affect escaping of the quote character
// itself.
type QuoteContext int

const (
	// QuoteNone means no quote is currently open in the source text.
	QuoteNone QuoteContext = iota
	// QuoteSingle means a ' was opened and not yet closed.
	QuoteSingle
	// QuoteDouble means a " was opened and not yet closed.
	QuoteDouble
)

// DefaultOutInit is the out-init statement a Reader emits unless
// overridden with SetOutInit.
const DefaultOutInit = `out=response.writer;`

// Reader converts an ESP template, read from an underlying io.Reader,
// into JavaScript source text.
type Reader struct {
	la  lookahead
	out outQueue

	region Region
	quote  QuoteContext

	outInit      string
	prologueDone bool
	started      bool

	lineOpen bool

	closer io.Closer
}

// NewReader creates a Reader that reads an ESP template from src. If src
// implements io.Closer, Reader.Close releases it.
func NewReader(src io.Reader) *Reader {
	r := &Reader{
		outInit: DefaultOutInit,
		region:  RegionTemplate,
	}
	r.la = *newLookahead(src)
	if c, ok := src.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// SetOutInit overrides the out-init statement emitted as the one-shot
// prologue before the first statement of output (default
// "out=response.writer;"). It must be called before the first call to
// Read or ReadRune; calling it afterward panics, since the prologue may
// already have been written.
func (r *Reader) SetOutInit(stmt string) {
	if r.started {
		panic("esp: SetOutInit called after reading has begun")
	}
	r.outInit = stmt
}

// Close releases the underlying input source, if it implements
// io.Closer.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadRune returns the next translated character, driving the state
// machine as needed. It returns io.EOF once the input is exhausted and
// all buffered output has been returned.
func (r *Reader) ReadRune() (ch rune, size int, err error) {
	r.started = true
	for r.out.empty() {
		if err := r.step(); err != nil {
			return 0, 0, err
		}
	}
	ch = r.out.dequeue()
	return ch, utf8.RuneLen(ch), nil
}

// Read fills p with translated JavaScript output, repeatedly driving the
// state machine until p is full or the input is exhausted. It follows
// io.Reader convention: a short read (n < len(p)) is never interleaved
// with a non-nil error on the same call that also returns data. A short
// read is returned at end of input, and also when the UTF-8 encoding of
// the next rune does not fit in the space left in p: Read stops before
// that rune, which the next Read or ReadRune call returns. Read does not
// split a rune across calls.
func (r *Reader) Read(p []byte) (n int, err error) {
	r.started = true
	if len(p) == 0 {
		return 0, nil
	}
	for n < len(p) {
		ch, _, rerr := r.ReadRune()
		if rerr != nil {
			if n > 0 {
				return n, nil
			}
			return 0, rerr
		}
		var buf [utf8.UTFMax]byte
		w := utf8.EncodeRune(buf[:], ch)
		if n+w > len(p) {
			// The rune doesn't fully fit; this can only happen on the
			// very last rune of a bounded buffer, so push it back onto
			// the output queue for the next Read/ReadRune call.
			r.out.pushFront(ch)
			return n, nil
		}
		copy(p[n:], buf[:w])
		n += w
	}
	return n, nil
}
