package esp_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	esp "github.com/go-esp/esp2js"
	"kr.dev/diff"
)

func translate(t *testing.T, in string, configure func(r *esp.Reader)) string {
	t.Helper()
	r := esp.NewReader(strings.NewReader(in))
	if configure != nil {
		configure(r)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll(%q): %v", in, err)
	}
	return string(got)
}

func TestScenarios(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare code block", `<%var%>`, `var`},
		{"plain text", `test`, `out=response.writer;out.write("test");`},
		{"text with embedded newline", "test\ntest2", "out=response.writer;out.write(\"test\\n\");\nout.write(\"test2\");"},
		{"code block preserves spacing", `<% test(); %>`, ` test(); `},
		{"expression", `<%= x + 1 %>`, `out=response.writer;out.write( x + 1 );`},
		{"text around expression", `<!-- <%= x + 1 %> -->`, `out=response.writer;out.write("<!-- ");out.write( x + 1 );out.write(" -->");`},
		{"comment only", `<%-- test(); --%>`, ``},
		{"compact expression in attribute", "<html version=\"${1+1}\">\n", "out=response.writer;out.write(\"<html version=\\\"\");out.write(1+1);out.write(\"\\\">\\n\");\n"},
		{"bare braces are not a compact expression", "<html version=\"{1+1}\">\n", "out=response.writer;out.write(\"<html version=\\\"{1+1}\\\">\\n\");\n"},
		{"leading literal before expression", `currentNode.text:<%= currentNode.text %>`, `out=response.writer;out.write("currentNode.text:");out.write( currentNode.text );`},
		{"quoted attribute around expression", `currentNode.text="<%= currentNode.text %>"`, `out=response.writer;out.write("currentNode.text=\"");out.write( currentNode.text );out.write("\"");`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(t, tc.in, nil)
			if got != tc.want {
				t.Errorf("input %q:\n got:  %q\n want: %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestMultilineFixture(t *testing.T) {
	// The newline immediately after the expression closes produced no
	// text on its own line, so it is dropped rather than wrapped.
	in := "currentNode.text:<%= currentNode.text %>\nnext line\n"
	got := translate(t, in, nil)
	want := "out=response.writer;" +
		"out.write(\"currentNode.text:\");out.write( currentNode.text );" +
		"out.write(\"next line\\n\");\n"
	diff.Test(t, t.Errorf, got, want)
}

func TestSetOutInit(t *testing.T) {
	got := translate(t, "test", func(r *esp.Reader) {
		r.SetOutInit("out=getOut();")
	})
	want := `out=getOut();out.write("test");`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSetOutInitAfterReadPanics(t *testing.T) {
	r := esp.NewReader(strings.NewReader("test"))
	if _, _, err := r.ReadRune(); err != nil {
		t.Fatalf("ReadRune: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling SetOutInit after reading began")
		}
	}()
	r.SetOutInit("out=getOut();")
}

func TestEmptyInput(t *testing.T) {
	r := esp.NewReader(strings.NewReader(""))
	_, _, err := r.ReadRune()
	if err != io.EOF {
		t.Fatalf("ReadRune on empty input: got err %v, want io.EOF", err)
	}
}

func TestCommentOnlyProducesNoPrologue(t *testing.T) {
	got := translate(t, `<%-- just a comment --%>`, nil)
	if got != "" {
		t.Errorf("got %q, want empty output", got)
	}
}

func TestUnterminatedCodeBlockDrainsToEOF(t *testing.T) {
	// No closing %>: the remaining input is drained verbatim as CODE
	// content, with no attempt at recovery.
	got := translate(t, `<% var x = 1;`, nil)
	want := ` var x = 1;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEscaping(t *testing.T) {
	got := translate(t, `say "hi"\there`, nil)
	want := `out=response.writer;out.write("say \"hi\"\\there");`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSingleQuoteDoesNotNeedEscaping(t *testing.T) {
	got := translate(t, `it's here`, nil)
	want := `out=response.writer;out.write("it's here");`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompactExpressionInSingleQuotedLiteral(t *testing.T) {
	got := translate(t, `<a href='/n/${id}'>`, nil)
	want := `out=response.writer;out.write("<a href='/n/");out.write(id);out.write("'>");`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReadBulkViaRead(t *testing.T) {
	r := esp.NewReader(strings.NewReader("test\ntest2"))
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	want := "out=response.writer;out.write(\"test\\n\");\nout.write(\"test2\");"
	if int(n) != len(want) || buf.String() != want {
		t.Errorf("got %q (%d bytes), want %q (%d bytes)", buf.String(), n, want, len(want))
	}
}

func TestReadSmallBufferBoundary(t *testing.T) {
	r := esp.NewReader(strings.NewReader(`test`))
	var got []byte
	buf := make([]byte, 3)
	for {
		n, err := r.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if n == 0 {
			t.Fatal("Read returned 0, nil without reaching EOF")
		}
	}
	want := `out=response.writer;out.write("test");`
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClose(t *testing.T) {
	r := esp.NewReader(strings.NewReader("test"))
	if err := r.Close(); err != nil {
		t.Fatalf("Close on a non-closer source: %v", err)
	}
}

// FuzzReader checks that the reader never panics and always terminates
// with io.EOF (or a wrapped I/O error) for arbitrary input, regardless
// of how malformed the delimiters are.
func FuzzReader(f *testing.F) {
	seeds := []string{
		``,
		`<%var%>`,
		`test`,
		"test\ntest2",
		`<%= x + 1 %>`,
		`<%-- comment --%>`,
		`<html version="${1+1}">`,
		`<%`,
		`<%--`,
		`${`,
		`"${}"`,
		`'${`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		r := esp.NewReader(strings.NewReader(in))
		_, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("ReadAll(%q): unexpected error %v", in, err)
		}
	})
}
