package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dhamidi/ziggurat/syntax/parser"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

const malformed = "const x = 1;\nconst y = $;\n"

func TestLineEncoder(t *testing.T) {
	tree, _ := parser.New([]byte(malformed)).ParseFile()

	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode("main.zig", tree); err != nil {
		t.Fatal(err)
	}

	want := "main.zig:2:11: error: invalid token \"$\" [expr depth 0]\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLineEncoderColorsSeverity(t *testing.T) {
	tree, _ := parser.New([]byte(malformed)).ParseFile()

	var buf bytes.Buffer
	e := &LineEncoder{w: &buf, out: termenv.NewOutput(&buf, termenv.WithProfile(termenv.ANSI))}
	if err := e.Encode("main.zig", tree); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("no escape sequence in %q", got)
	}
	if !strings.HasPrefix(got, "main.zig:2:11: ") || !strings.HasSuffix(got, `invalid token "$" [expr depth 0]`+"\n") {
		t.Errorf("got %q", got)
	}
}

func TestJSONEncoder(t *testing.T) {
	tree, _ := parser.New([]byte(malformed)).ParseFile()

	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode("main.zig", tree); err != nil {
		t.Fatal(err)
	}

	var got report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if !got.Invalid {
		t.Error("invalid = false")
	}
	if len(got.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(got.Diagnostics))
	}
	d := got.Diagnostics[0]
	if d.Code != "recovery_attempted" || d.Context != "expr" || d.Skip != 1 || d.Line != 2 {
		t.Errorf("unexpected record %+v", d)
	}
}

func TestYAMLEncoder(t *testing.T) {
	tree, _ := parser.New([]byte(malformed)).ParseFile()

	var buf bytes.Buffer
	if err := NewYAMLEncoder(&buf).Encode("main.zig", tree); err != nil {
		t.Fatal(err)
	}

	var got report
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if got.File != "main.zig" || len(got.Diagnostics) != 1 {
		t.Errorf("unexpected report %+v", got)
	}
	if got.Diagnostics[0].Severity != "error" {
		t.Errorf("severity = %q", got.Diagnostics[0].Severity)
	}
}

func TestASTJSONEncoder(t *testing.T) {
	tree, _ := parser.New([]byte("const x = 1;")).ParseFile()

	var buf bytes.Buffer
	if err := NewASTJSONEncoder(&buf).Encode("main.zig", tree); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"file": "main.zig"`, `"tag": "VarDecl"`, `"token": "x"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %s:\n%s", want, buf.String())
		}
	}
}

func TestNewEncoder(t *testing.T) {
	for _, name := range Names {
		if _, err := NewEncoder(name, &bytes.Buffer{}); err != nil {
			t.Errorf("NewEncoder(%q): %v", name, err)
		}
	}
	if _, err := NewEncoder("xml", &bytes.Buffer{}); err == nil {
		t.Error("NewEncoder(xml) succeeded")
	}
}
