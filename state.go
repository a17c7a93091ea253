package esp

// step advances the state machine by exactly one unit of work: a
// delimiter recognized and consumed, or a single input rune consumed and
// (in most regions) enqueued as output. It is called only when the
// output queue is empty, and returns an error only once there is
// nothing further to enqueue, either because the input is exhausted or
// because the underlying source failed.
func (r *Reader) step() error {
	switch r.region {
	case RegionTemplate:
		return r.stepTemplate()
	case RegionCode:
		return r.stepCode()
	case RegionExpr:
		return r.stepExpr()
	case RegionComment:
		return r.stepComment()
	case RegionCompactExpr:
		return r.stepCompactExpr()
	default:
		panic("esp: reader in unknown region")
	}
}

func (r *Reader) stepTemplate() error {
	if r.la.hasPrefix("<%--") {
		r.la.consume(4)
		r.closeLineWrite()
		r.region = RegionComment
		return nil
	}
	if r.la.hasPrefix("<%=") {
		r.la.consume(3)
		r.closeLineWrite()
		r.emitPrologueIfNeeded()
		r.out.enqueueString("out.write(")
		r.region = RegionExpr
		return nil
	}
	if r.la.hasPrefix("<%") {
		r.la.consume(2)
		r.closeLineWrite()
		r.region = RegionCode
		return nil
	}

	ch, err := r.la.next()
	if err != nil {
		// End of input (or a fatal read error) with a Template line
		// still open: close it before surfacing the error on the next
		// call, mirroring the tag-entry close above.
		if r.lineOpen {
			r.out.enqueueString(`");`)
			r.lineOpen = false
			return nil
		}
		return err
	}

	if ch == '\n' {
		if r.lineOpen {
			r.out.enqueueString(`\n");`)
			r.out.enqueue('\n')
		}
		r.lineOpen = false
		return nil
	}

	switch {
	case ch == '\'':
		r.toggleQuote(QuoteSingle)
	case ch == '"':
		r.toggleQuote(QuoteDouble)
	case ch == '$' && r.quote != QuoteNone:
		if next, ok := r.la.peekAt(0); ok && next == '{' {
			r.la.consume(1)
			r.out.enqueueString(`");out.write(`)
			r.region = RegionCompactExpr
			return nil
		}
	}

	r.openLineIfNeeded()
	r.emitEscaped(ch)
	return nil
}

func (r *Reader) stepCode() error {
	if r.la.hasPrefix("%>") {
		r.la.consume(2)
		r.region = RegionTemplate
		return nil
	}
	ch, err := r.la.next()
	if err != nil {
		return err
	}
	r.out.enqueue(ch)
	return nil
}

func (r *Reader) stepExpr() error {
	if r.la.hasPrefix("%>") {
		r.la.consume(2)
		r.out.enqueueString(");")
		r.region = RegionTemplate
		return nil
	}
	ch, err := r.la.next()
	if err != nil {
		return err
	}
	r.out.enqueue(ch)
	return nil
}

func (r *Reader) stepComment() error {
	if r.la.hasPrefix("--%>") {
		r.la.consume(4)
		r.region = RegionTemplate
		return nil
	}
	_, err := r.la.next()
	if err != nil {
		return err
	}
	return nil
}

func (r *Reader) stepCompactExpr() error {
	if r.la.hasPrefix("}") {
		r.la.consume(1)
		r.out.enqueueString(`);out.write("`)
		r.region = RegionTemplate
		return nil
	}
	ch, err := r.la.next()
	if err != nil {
		return err
	}
	r.out.enqueue(ch)
	return nil
}

// closeLineWrite closes a currently open Template line-write with ");",
// if one is open. Used on entry into <%, <%=, and <%--; the newline case
// in stepTemplate closes with its own trailing \n instead.
func (r *Reader) closeLineWrite() {
	if !r.lineOpen {
		return
	}
	r.out.enqueueString(`");`)
	r.lineOpen = false
}

// openLineIfNeeded starts a new out.write(" call if one isn't already
// open, emitting the one-shot prologue first if this is the first
// output produced.
func (r *Reader) openLineIfNeeded() {
	if r.lineOpen {
		return
	}
	r.emitPrologueIfNeeded()
	r.out.enqueueString(`out.write("`)
	r.lineOpen = true
}

func (r *Reader) emitPrologueIfNeeded() {
	if r.prologueDone {
		return
	}
	r.out.enqueueString(r.outInit)
	r.prologueDone = true
}

// toggleQuote opens or closes q as the active quote context. A quote
// character of the style that isn't currently open, while the other
// style is open, is just a literal character with no effect.
func (r *Reader) toggleQuote(q QuoteContext) {
	switch {
	case r.quote == q:
		r.quote = QuoteNone
	case r.quote == QuoteNone:
		r.quote = q
	}
}
