package esp

import (
	"bufio"
	"io"
)

// lookaheadCap is the deepest peek the state machine ever needs: the
// four-character delimiters <%-- and --%>.
const lookaheadCap = 4

// lookahead provides bounded rune-level peek/consume over an input
// source, pulling one rune at a time from a bufio.Reader that wraps the
// underlying io.Reader (the bufio.Reader itself reads from the source in
// larger chunks).
type lookahead struct {
	r   *bufio.Reader
	buf []rune
	err error
}

func newLookahead(src io.Reader) *lookahead {
	return &lookahead{r: bufio.NewReader(src)}
}

// fill ensures at least n runes are buffered, unless the source is
// exhausted or errors first.
func (l *lookahead) fill(n int) {
	if n > lookaheadCap {
		panic("esp: lookahead request exceeds buffer capacity")
	}
	for len(l.buf) < n && l.err == nil {
		ch, _, err := l.r.ReadRune()
		if err != nil {
			l.err = err
			return
		}
		l.buf = append(l.buf, ch)
	}
}

// peekAt returns the rune at offset i (0-based) without consuming it.
func (l *lookahead) peekAt(i int) (rune, bool) {
	l.fill(i + 1)
	if i < len(l.buf) {
		return l.buf[i], true
	}
	return 0, false
}

// hasPrefix reports whether the next runes of input match s exactly,
// without consuming them.
func (l *lookahead) hasPrefix(s string) bool {
	i := 0
	for _, want := range s {
		got, ok := l.peekAt(i)
		if !ok || got != want {
			return false
		}
		i++
	}
	return true
}

// consume discards n runes, which must already have been observed via
// peekAt or hasPrefix.
func (l *lookahead) consume(n int) {
	l.fill(n)
	if n > len(l.buf) {
		n = len(l.buf)
	}
	l.buf = l.buf[n:]
}

// next consumes and returns the next input rune, or the sticky error
// (io.EOF or an I/O error from the underlying source) once input is
// exhausted.
func (l *lookahead) next() (rune, error) {
	l.fill(1)
	if len(l.buf) == 0 {
		if l.err != nil {
			return 0, l.err
		}
		return 0, io.EOF
	}
	ch := l.buf[0]
	l.buf = l.buf[1:]
	return ch, nil
}
