package parser

import (
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
)

func countCode(diags []recovery.Diagnostic, code recovery.Code) int {
	n := 0
	for _, d := range diags {
		if d.Code == code {
			n++
		}
	}
	return n
}

func firstChild(t *testing.T, tree *ast.Tree) ast.NodeIndex {
	t.Helper()
	children := tree.Children(ast.RootIndex)
	if len(children) == 0 {
		t.Fatalf("root has no children:\n%s", tree)
	}
	return children[0]
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		input string
		tag   ast.Tag
	}{
		{"42", ast.Literal},
		{"x", ast.Identifier},
		{"x + y", ast.Binary},
		{"a and b or c", ast.Binary},
		{"-x", ast.Unary},
		{"!x", ast.Unary},
		{"try f()", ast.Unary},
		{"f(a, b)", ast.Call},
		{"a.b", ast.FieldAccess},
		{"a.?", ast.Unwrap},
		{"a[0]", ast.Index},
		{"a[1..]", ast.Index},
		{"(x)", ast.Paren},
		{"[1, 2]", ast.ArrayInit},
		{"{a: 1, b: 2}", ast.StructInit},
		{".red", ast.EnumLiteral},
		{`@import("std")`, ast.BuiltinCall},
		{"switch (x) { 1, 2 => a, 3..5 => b, else => c }", ast.Switch},
		{"struct { x: i32, y: i32 = 0 }", ast.ContainerDecl},
		{"enum { red, green }", ast.ContainerDecl},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tree, err := New([]byte(tt.input)).ParseExpression()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tree.Diagnostics) != 0 {
				t.Fatalf("unexpected diagnostics: %v", tree.Diagnostics)
			}
			if got := tree.Node(firstChild(t, tree)).Tag; got != tt.tag {
				t.Errorf("got %v, want %v\n%s", got, tt.tag, tree)
			}
			if tree.HasInvalid() {
				t.Errorf("tree contains invalid nodes:\n%s", tree)
			}
		})
	}
}

func TestBinaryPrecedence(t *testing.T) {
	tree, err := New([]byte("x * y + z")).ParseExpression()
	if err != nil {
		t.Fatal(err)
	}
	top := firstChild(t, tree)
	if got := tree.TokenLiteral(top); got != "+" {
		t.Errorf("top operator = %q, want +", got)
	}
	left := tree.Children(top)[0]
	if got := tree.TokenLiteral(left); got != "*" {
		t.Errorf("left operator = %q, want *", got)
	}
}

const validFile = `const std = @import("std");

pub fn main() !void {
    var i: u32 = 0;
    while (i < 10) : (i = i + 1) {
        if (i == 5) {
            continue;
        } else if (i == 7) {
            break;
        } else {
            foo(i);
        }
    }
    for (items, 0..) |item, idx| {
        _ = item;
        defer cleanup(idx);
    }
    const kind = switch (i) {
        0 => .zero,
        1, 2 => |n| n,
        else => {
            return;
        },
    };
    return;
}

const Point = struct {
    x: i32,
    y: ?*const i32 = null,
    data: []const u8,
};

test "point" {
    try expect(1 == 1);
}

comptime {
    assert(true);
}
`

func TestParseFile(t *testing.T) {
	tree, err := New([]byte(validFile), WithFile("main.zig")).ParseFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", tree.Diagnostics)
	}
	if tree.HasInvalid() {
		t.Fatalf("tree contains invalid nodes:\n%s", tree)
	}

	want := []ast.Tag{ast.VarDecl, ast.FnDecl, ast.VarDecl, ast.TestDecl, ast.ComptimeBlock}
	children := tree.Children(ast.RootIndex)
	if len(children) != len(want) {
		t.Fatalf("got %d members, want %d:\n%s", len(children), len(want), tree)
	}
	for i, child := range children {
		if got := tree.Node(child).Tag; got != want[i] {
			t.Errorf("member %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestScenarioGarbageStatement(t *testing.T) {
	src := "{ const x = 1; invalid_syntax here; const y = 2; }"
	tree, err := New([]byte(src)).ParseBlock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	block := firstChild(t, tree)
	if tree.Node(block).Tag != ast.Block {
		t.Fatalf("got %v, want Block", tree.Node(block).Tag)
	}
	valid := tree.ValidChildren(block)
	if len(valid) != 2 {
		t.Errorf("got %d valid statements, want 2:\n%s", len(valid), tree)
	}
	for _, stmt := range valid {
		if tree.Node(stmt).Tag != ast.VarDecl {
			t.Errorf("got %v, want VarDecl", tree.Node(stmt).Tag)
		}
	}
	if n := countCode(tree.Diagnostics, recovery.CodeRecoveryAttempted); n < 1 {
		t.Errorf("got %d recovery diagnostics, want at least 1", n)
	}
	if !tree.HasInvalid() {
		t.Error("HasInvalid() = false after a recovery")
	}
}

const nestedSwitchMalformedCase = `const r = switch (a) {
    1 => switch (b) {
        2 => x,
        $ => y,
        else => z,
    },
    else => w,
};
`

func TestScenarioNestedSwitchMalformedCase(t *testing.T) {
	tree, err := New([]byte(nestedSwitchMalformedCase)).ParseFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nested := false
	for _, d := range tree.Diagnostics {
		if d.Context != nil && d.Context.NestingLevel > 0 {
			nested = true
		}
	}
	if !nested {
		t.Errorf("no diagnostic with nesting level > 0: %v", tree.Diagnostics)
	}
}

func TestScenarioMissingClosers(t *testing.T) {
	src := "{ const x = (1 + 2; const y = [1, 2, 3; const z = {a: 1, b: 2; }"
	tree, err := New([]byte(src)).ParseBlock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := countCode(tree.Diagnostics, recovery.CodeRecoveryAttempted); n != 3 {
		t.Errorf("got %d recovery diagnostics, want 3: %v", n, tree.Diagnostics)
	}
	if n := countCode(tree.Diagnostics, recovery.CodeMissingDelimiter); n != 0 {
		t.Errorf("block did not close: %v", tree.Diagnostics)
	}
	for _, d := range tree.Diagnostics {
		if d.Context == nil || d.Context.Kind != recovery.Expr {
			t.Errorf("diagnostic %v not raised in an expression", d)
		}
	}

	block := firstChild(t, tree)
	if got := len(tree.ChildrenOfTag(block, ast.VarDecl)); got != 3 {
		t.Errorf("got %d declarations, want 3:\n%s", got, tree)
	}
}

func TestSwitchNestingLevels(t *testing.T) {
	src := `const r = switch (a) {
    1 => switch (b) {
        2 => x,
        else => y,
        else => z,
    },
    else => w,
    else => v,
};
`
	tree, err := New([]byte(src)).ParseFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Diagnostics) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(tree.Diagnostics), tree.Diagnostics)
	}

	inner, outer := tree.Diagnostics[0], tree.Diagnostics[1]
	for _, d := range tree.Diagnostics {
		if d.Context == nil || d.Context.Kind != recovery.SwitchExpr {
			t.Fatalf("diagnostic %v not raised in a switch", d)
		}
		if d.Message != "duplicate else prong" {
			t.Errorf("message = %q", d.Message)
		}
	}
	if inner.Context.NestingLevel < 1 {
		t.Errorf("inner switch nesting level = %d, want >= 1", inner.Context.NestingLevel)
	}
	if outer.Context.NestingLevel != 0 {
		t.Errorf("outer switch nesting level = %d, want 0", outer.Context.NestingLevel)
	}
}

func TestGracefulDegradation(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		malformed int
		valid     int
	}{
		{"garbage operand", "{ const a = $; const b = $; const c = $; const d = $; }", 4, 4},
		{"garbage before semicolon", "{ const a = 1 $; const b = 2 $; const c = 3 $; }", 3, 0},
		{"mixed", "{ const a = 1; x $; const b = 2; y $; }", 2, 2},
		{"garbage before call closer", "{ f(a $); g(b $); }", 2, 2},
		{"garbage before paren closer", "{ const a = (1 $); const b = (2 $); }", 2, 2},
		{"garbage before index closer", "{ x = a[0 $]; y = b[1 $]; }", 2, 2},
		{"garbage before array closer", "{ const a = [1 $]; const b = [2 $]; }", 2, 2},
		{"garbage before struct init closer", "{ const a = {x: 1 $}; const b = {y: 2 $}; }", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := New([]byte(tt.src)).ParseBlock()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n := countCode(tree.Diagnostics, recovery.CodeRecoveryAttempted); n != tt.malformed {
				t.Errorf("got %d recovery diagnostics, want %d: %v", n, tt.malformed, tree.Diagnostics)
			}
			for _, d := range tree.Diagnostics {
				if d.Context != nil && d.Context.Kind == recovery.BlockStmt {
					t.Errorf("statement recovered after an expression already did: %v", d)
				}
			}
			block := firstChild(t, tree)
			if got := len(tree.ValidChildren(block)); got != tt.valid {
				t.Errorf("got %d valid statements, want %d:\n%s", got, tt.valid, tree)
			}
		})
	}
}

func TestUnsatisfiableRecovery(t *testing.T) {
	tests := []struct {
		name  string
		parse func(*Parser) (*ast.Tree, error)
		src   string
	}{
		{"expression", (*Parser).ParseExpression, "+ + + + +"},
		{"declaration", (*Parser).ParseFile, "const x = + + + +"},
		{"block", (*Parser).ParseBlock, "{ x = ) ) ) )"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New([]byte(tt.src))
			tree, err := tt.parse(p)
			if !errors.Is(err, ErrUnrecoverable) {
				t.Fatalf("got error %v, want ErrUnrecoverable", err)
			}
			if tree == nil {
				t.Fatal("no partial tree")
			}
			if !tree.HasInvalid() {
				t.Errorf("partial tree has no invalid node:\n%s", tree)
			}
			last := tree.Diagnostics[len(tree.Diagnostics)-1]
			if last.Code != recovery.CodeUnrecoverable {
				t.Errorf("last diagnostic = %v, want unrecoverable", last)
			}
			if highest := p.engine.Ledger().Max(); highest > recovery.MaxAttempts {
				t.Errorf("ledger reached %d attempts", highest)
			}
		})
	}
}

func TestErrorDetails(t *testing.T) {
	_, err := New([]byte("+")).ParseExpression()
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error %v does not carry a parse error", err)
	}
	if perr.Code != recovery.CodeUnexpectedToken {
		t.Errorf("code = %v", perr.Code)
	}
	if perr.Index != 0 || perr.Token.Literal != "+" {
		t.Errorf("error at %d %q", perr.Index, perr.Token.Literal)
	}
}

func TestMissingClosingBrace(t *testing.T) {
	tree, err := New([]byte("{ const x = 1;")).ParseBlock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Diagnostics) != 1 {
		t.Fatalf("got %v, want one warning", tree.Diagnostics)
	}
	d := tree.Diagnostics[0]
	if d.Code != recovery.CodeMissingDelimiter || d.Severity != recovery.SeverityWarning {
		t.Errorf("got %v", d)
	}
	if d.Context == nil || d.Context.Kind != recovery.BlockStmt {
		t.Errorf("context = %v, want block_stmt", d.Context)
	}
}

func TestHeaderRecovery(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind recovery.Kind
	}{
		{"fn params", "fn main( $ ) void { return; }", recovery.FnDecl},
		{"var name", "const = 5;", recovery.VarDecl},
		{"test name", "test 42 { }", recovery.TestDecl},
		{"if condition", "fn f() void { if x { return; } }", recovery.IfStmt},
		{"while condition", "fn f() void { while x { } }", recovery.WhileStmt},
		{"for operands", "fn f() void { for (xs $) |x| { } }", recovery.ForStmt},
		{"field type", "const S = struct { a $ i32, b: i32 };", recovery.ContainerField},
		{"return type", "fn f() $ { }", recovery.TypeExpr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := New([]byte(tt.src)).ParseFile()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tree.Diagnostics) != 1 {
				t.Fatalf("got %v, want one diagnostic", tree.Diagnostics)
			}
			d := tree.Diagnostics[0]
			if d.Code != recovery.CodeRecoveryAttempted {
				t.Errorf("code = %v", d.Code)
			}
			if d.Context == nil || d.Context.Kind != tt.kind {
				t.Errorf("context = %v, want %v", d.Context, tt.kind)
			}
		})
	}
}

func TestStrayClosingBrace(t *testing.T) {
	tree, err := New([]byte("const x = 1; } const y = 2;")).ParseFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(tree.ChildrenOfTag(ast.RootIndex, ast.VarDecl)); got != 2 {
		t.Errorf("got %d declarations, want 2", got)
	}
	if countCode(tree.Diagnostics, recovery.CodeUnexpectedToken) != 1 {
		t.Errorf("got %v", tree.Diagnostics)
	}
}

func TestCancellation(t *testing.T) {
	var flag atomic.Bool
	flag.Store(true)

	p := New([]byte(validFile), WithCancel(&flag))
	tree, err := p.ParseFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tree.Cancelled {
		t.Error("Cancelled = false")
	}
	if len(tree.Children(ast.RootIndex)) != 0 {
		t.Errorf("cancelled parse produced members:\n%s", tree)
	}
	if !flag.Load() {
		t.Error("parser cleared the cancellation flag")
	}

	tree, err = New([]byte("{ const x = 1;"), WithCancel(&flag)).ParseBlock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tree.Cancelled || len(tree.Diagnostics) != 0 {
		t.Errorf("cancelled block: cancelled=%v diagnostics=%v", tree.Cancelled, tree.Diagnostics)
	}
}

func TestCancellationInsideNestedConstructs(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"struct in parens", "(struct { a + b"},
		{"struct in call", "foo(struct { a: i32 }, 2)"},
		{"switch in call", "foo(switch (x) { 1 => a, else => b }, $)"},
		{"struct in array", "[struct { a: i32 }, 1 $"},
		{"switch in parens", "(switch (x) { 1 => a })"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flag atomic.Bool
			flag.Store(true)

			p := New([]byte(tt.src), WithCancel(&flag))
			tree, err := p.ParseExpression()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tree.Cancelled {
				t.Error("Cancelled = false")
			}
			if len(tree.Diagnostics) != 0 {
				t.Errorf("diagnostics after cancellation: %v", tree.Diagnostics)
			}
			if stats := p.Stats(); stats.Attempts != 0 {
				t.Errorf("%d recovery attempts after cancellation", stats.Attempts)
			}
			if n := p.engine.Stack().Len(); n != 0 {
				t.Errorf("%d frames left on the stack", n)
			}
			if len(tree.Children(ast.RootIndex)) != 1 {
				t.Errorf("partial expression not kept:\n%s", tree)
			}
		})
	}
}

var propertyInputs = []string{
	validFile,
	nestedSwitchMalformedCase,
	"{ const x = (1 + 2; const y = [1, 2, 3; const z = {a: 1, b: 2; }",
	"fn f() void { if (x { while ) } } }",
	"const = ; fn ( { test { struct",
	"} } } ) ) ]",
	"const a = switch (x) { else => 1, else => 2, else => 3, else => 4 };",
	"fn f() void { x $ $ $; y = ; foo(,,); return return; }",
	"const S = struct { a: , b: $, c: [ }; pub pub fn",
	"",
}

func TestContextStackBalanced(t *testing.T) {
	for _, src := range propertyInputs {
		p := New([]byte(src))
		_, _ = p.ParseFile()
		if n := p.engine.Stack().Len(); n != 0 {
			t.Errorf("%q: %d frames left on the stack", src, n)
		}
		if highest := p.engine.Ledger().Max(); highest > recovery.MaxAttempts {
			t.Errorf("%q: %d attempts at one position", src, highest)
		}
		if stats := p.Stats(); stats.Attempts > recovery.MaxAttempts*len(p.Tokens())+len(p.Tokens()) {
			t.Errorf("%q: %d recovery attempts for %d tokens", src, stats.Attempts, len(p.Tokens()))
		}
	}
}

func TestDeterminism(t *testing.T) {
	for _, src := range propertyInputs {
		first, err1 := New([]byte(src)).ParseFile()
		second, err2 := New([]byte(src)).ParseFile()

		if first.String() != second.String() {
			t.Errorf("%q: tree shape differs", src)
		}
		if !reflect.DeepEqual(first.Diagnostics, second.Diagnostics) {
			t.Errorf("%q: diagnostics differ", src)
		}
		if (err1 == nil) != (err2 == nil) {
			t.Errorf("%q: errors differ: %v / %v", src, err1, err2)
		}
	}
}

func TestParserReuseStartsFreshSession(t *testing.T) {
	p := New([]byte("{ x $; }"))
	first, _ := p.ParseBlock()
	second, _ := p.ParseBlock()
	if len(first.Diagnostics) != len(second.Diagnostics) {
		t.Errorf("second parse saw %d diagnostics, first %d", len(second.Diagnostics), len(first.Diagnostics))
	}
}
