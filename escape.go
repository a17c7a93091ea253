package esp

// emitEscaped enqueues ch as it should appear inside a JS double-quoted
// string literal: the quote character and backslash are escaped, and
// everything else passes through unchanged. A Template newline never
// reaches this function: stepTemplate writes it as \n itself when it
// closes the line-write. Code, Expr, and CompactExpr content bypasses
// this entirely and is copied verbatim.
func (r *Reader) emitEscaped(ch rune) {
	switch ch {
	case '"':
		r.out.enqueueString(`\"`)
	case '\\':
		r.out.enqueueString(`\\`)
	default:
		r.out.enqueue(ch)
	}
}
