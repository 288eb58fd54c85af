package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/lesson"
	"ownlab/internal/lexer"
	"ownlab/internal/source"
	"ownlab/internal/testkit"
)

func parseSource(t *testing.T, input string) (*ast.Builder, ast.FileID, *diag.Bag) {
	t.Helper()

	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.own", []byte(input))
	file := fs.Get(fileID)

	bag := diag.NewBag(100)
	reporter := &diag.BagReporter{Bag: bag}

	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	builder := ast.NewBuilder(ast.Hints{})

	result := ParseFile(lx, builder, Options{MaxErrors: 100, Reporter: reporter})
	if result.Bag == nil {
		result.Bag = bag
	}
	return builder, result.File, result.Bag
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

// mustParseMain разбирает тело `fn main` и возвращает его инструкции.
func mustParseMain(t *testing.T, body string) (*ast.Builder, *ast.BlockStmt) {
	t.Helper()
	builder, fileID, bag := parseSource(t, "fn main() {\n"+body+"\n}")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	file := builder.Files.Get(fileID)
	if len(file.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(file.Items))
	}
	fn := builder.Items.Fn(file.Items[0])
	if fn == nil {
		t.Fatalf("item is not a function")
	}
	return builder, builder.Stmts.Block(fn.Body)
}

func TestParseFunctions(t *testing.T) {
	src := `/// entry point
fn main() {
    let o1 = String::from("hello");
    let (o2, len) = calculate_length(o1);
}

fn calculate_length(s: String) -> (String, usize) {
    let length = s.len();
    (s, length)
}

fn change(mut some: &mut String) {}
`
	builder, fileID, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	file := builder.Files.Get(fileID)
	if len(file.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(file.Items))
	}

	mainFn := builder.Items.Fn(file.Items[0])
	if mainFn.Name != "main" || len(mainFn.Params) != 0 || mainFn.Result.IsValid() {
		t.Fatalf("unexpected main: %+v", mainFn)
	}
	if diff := cmp.Diff([]string{"entry point"}, mainFn.Doc); diff != "" {
		t.Errorf("doc mismatch (-want +got):\n%s", diff)
	}

	calc := builder.Items.Fn(file.Items[1])
	if got := builder.Types.String(calc.Result); got != "(String, usize)" {
		t.Errorf("result type = %q", got)
	}
	if len(calc.Params) != 1 || calc.Params[0].Name != "s" || builder.Types.String(calc.Params[0].Type) != "String" {
		t.Errorf("unexpected params: %+v", calc.Params)
	}
	body := builder.Stmts.Block(calc.Body)
	if len(body.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(body.Stmts))
	}
	tuple := builder.Exprs.Tuple(body.Tail)
	if tuple == nil || len(tuple.Elems) != 2 {
		t.Fatalf("tail is not a pair: %+v", builder.Exprs.Get(body.Tail))
	}

	change := builder.Items.Fn(file.Items[2])
	if !change.Params[0].Mut || builder.Types.String(change.Params[0].Type) != "&mut String" {
		t.Errorf("unexpected param: %+v (%s)", change.Params[0], builder.Types.String(change.Params[0].Type))
	}
}

func TestParseLet(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNames []ast.LetName
		wantTuple bool
		wantType  string
	}{
		{
			name:      "plain",
			input:     "let x = 5;",
			wantNames: []ast.LetName{{Name: "x"}},
			wantType:  "()",
		},
		{
			name:      "mutable with type",
			input:     "let mut y: f32 = 3.0;",
			wantNames: []ast.LetName{{Name: "y", Mut: true}},
			wantType:  "f32",
		},
		{
			name:      "destructuring",
			input:     "let (o2, mut len) = f(o1);",
			wantNames: []ast.LetName{{Name: "o2"}, {Name: "len", Mut: true}},
			wantTuple: true,
			wantType:  "()",
		},
		{
			name:      "underscore",
			input:     "let _ = 1;",
			wantNames: []ast.LetName{{Name: ""}},
			wantType:  "()",
		},
		{
			name:      "tuple type",
			input:     "let _tup: (i32, f64, u8) = (500, 6.4, 1);",
			wantNames: []ast.LetName{{Name: "_tup"}},
			wantType:  "(i32, f64, u8)",
		},
		{
			name:      "array type",
			input:     "let a: [i32; 5] = [1, 2, 3, 4, 5];",
			wantNames: []ast.LetName{{Name: "a"}},
			wantType:  "[i32; 5]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder, block := mustParseMain(t, tt.input)
			if len(block.Stmts) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(block.Stmts))
			}
			let := builder.Stmts.Let(block.Stmts[0])
			if let == nil {
				t.Fatalf("statement is not let")
			}
			names := make([]ast.LetName, len(let.Names))
			for i, n := range let.Names {
				names[i] = ast.LetName{Name: n.Name, Mut: n.Mut}
			}
			if diff := cmp.Diff(tt.wantNames, names); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
			if let.Tuple != tt.wantTuple {
				t.Errorf("Tuple = %v, want %v", let.Tuple, tt.wantTuple)
			}
			if got := builder.Types.String(let.Type); got != tt.wantType {
				t.Errorf("type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestParseStatements(t *testing.T) {
	builder, block := mustParseMain(t, `
    const MAX_POINTS: u32 = 100_000;
    x = 6;
    {
        let r1 = &mut r;
    }
    takes_ownership(s);
    return;
`)
	if len(block.Stmts) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(block.Stmts))
	}
	kinds := make([]ast.StmtKind, len(block.Stmts))
	for i, id := range block.Stmts {
		kinds[i] = builder.Stmts.Get(id).Kind
	}
	want := []ast.StmtKind{ast.StmtConst, ast.StmtAssign, ast.StmtBlock, ast.StmtExpr, ast.StmtReturn}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if c := builder.Stmts.Const(block.Stmts[0]); c.Name != "MAX_POINTS" {
		t.Errorf("const name = %q", c.Name)
	}
	if ret := builder.Stmts.Return(block.Stmts[4]); ret.Value.IsValid() {
		t.Errorf("bare return has a value")
	}
}

func TestParseExpressions(t *testing.T) {
	builder, block := mustParseMain(t, `
    a + b * c;
    &mut r;
    String::from("hi");
    s.push_str(", world");
    _tup.1;
    t.0.1;
    println!("{} {}", x, y);
    -100;
    *r;
    a[2];
    (x);
    ();
`)
	exprAt := func(i int) ast.ExprID {
		return builder.Stmts.Expr(block.Stmts[i]).Expr
	}

	bin := builder.Exprs.Binary(exprAt(0))
	if bin == nil || bin.Op != ast.BinaryAdd {
		t.Fatalf("expected addition at top")
	}
	if rhs := builder.Exprs.Binary(bin.Right); rhs == nil || rhs.Op != ast.BinaryMul {
		t.Errorf("multiplication must bind tighter")
	}

	if ref := builder.Exprs.Ref(exprAt(1)); ref == nil || !ref.Mut {
		t.Errorf("expected &mut reference")
	}

	call := builder.Exprs.Call(exprAt(2))
	if call == nil {
		t.Fatalf("expected call")
	}
	if path := builder.Exprs.Path(call.Callee); path == nil || strings.Join(path.Segments, "::") != "String::from" {
		t.Errorf("unexpected callee")
	}

	if mc := builder.Exprs.MethodCall(exprAt(3)); mc == nil || mc.Name != "push_str" || len(mc.Args) != 1 {
		t.Errorf("unexpected method call: %+v", mc)
	}

	if ti := builder.Exprs.TupleIndex(exprAt(4)); ti == nil || ti.Index != 1 {
		t.Errorf("unexpected tuple index: %+v", ti)
	}

	outer := builder.Exprs.TupleIndex(exprAt(5))
	if outer == nil || outer.Index != 1 {
		t.Fatalf("unexpected outer index: %+v", outer)
	}
	if inner := builder.Exprs.TupleIndex(outer.Target); inner == nil || inner.Index != 0 {
		t.Errorf("unexpected inner index: %+v", inner)
	}

	if m := builder.Exprs.Macro(exprAt(6)); m == nil || m.Name != "println" || len(m.Args) != 3 {
		t.Errorf("unexpected macro: %+v", m)
	}

	if u := builder.Exprs.Unary(exprAt(7)); u == nil || u.Op != ast.UnaryNeg {
		t.Errorf("expected negation")
	}
	if u := builder.Exprs.Unary(exprAt(8)); u == nil || u.Op != ast.UnaryDeref {
		t.Errorf("expected deref")
	}
	if ix := builder.Exprs.Index(exprAt(9)); ix == nil {
		t.Errorf("expected index")
	}
	if g := builder.Exprs.Group(exprAt(10)); g == nil {
		t.Errorf("expected group")
	}
	if tup := builder.Exprs.Tuple(exprAt(11)); tup == nil || len(tup.Elems) != 0 {
		t.Errorf("expected unit tuple")
	}
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  ast.ExprLitData
	}{
		{"100_000", ast.ExprLitData{Kind: ast.LitInt, Raw: "100_000", Int: 100000}},
		{"0xff", ast.ExprLitData{Kind: ast.LitInt, Raw: "0xff", Int: 255}},
		{"0b1010", ast.ExprLitData{Kind: ast.LitInt, Raw: "0b1010", Int: 10}},
		{"5u32", ast.ExprLitData{Kind: ast.LitInt, Raw: "5u32", Suffix: "u32", Int: 5}},
		{"2f32", ast.ExprLitData{Kind: ast.LitFloat, Raw: "2f32", Suffix: "f32", Float: 2}},
		{"6.4", ast.ExprLitData{Kind: ast.LitFloat, Raw: "6.4", Float: 6.4}},
		{"true", ast.ExprLitData{Kind: ast.LitBool, Raw: "true", Bool: true}},
		{"'z'", ast.ExprLitData{Kind: ast.LitChar, Raw: "'z'", Char: 'z'}},
		{`'\n'`, ast.ExprLitData{Kind: ast.LitChar, Raw: `'\n'`, Char: '\n'}},
		{`"a\tb"`, ast.ExprLitData{Kind: ast.LitString, Raw: `"a\tb"`, Str: "a\tb"}},
		{`"\u{48}i"`, ast.ExprLitData{Kind: ast.LitString, Raw: `"\u{48}i"`, Str: "Hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			builder, block := mustParseMain(t, tt.input+";")
			lit := builder.Exprs.Literal(builder.Stmts.Expr(block.Stmts[0]).Expr)
			if lit == nil {
				t.Fatalf("not a literal")
			}
			if diff := cmp.Diff(tt.want, *lit); diff != "" {
				t.Errorf("literal mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTailExpression(t *testing.T) {
	builder, fileID, bag := parseSource(t, `fn gives() -> String {
    let s = String::from("hello");
    s
}`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	fn := builder.Items.Fn(builder.Files.Get(fileID).Items[0])
	block := builder.Stmts.Block(fn.Body)
	if ident := builder.Exprs.Ident(block.Tail); ident == nil || ident.Name != "s" {
		t.Fatalf("tail is not `s`")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  diag.Code
	}{
		{"missing expression", "fn main() { let x = ; }", diag.SynExpectExpression},
		{"missing equals", "fn main() { let x 5; }", diag.SynExpectEquals},
		{"unclosed paren", "fn main() { foo(1, 2; }", diag.SynUnclosedParen},
		{"unclosed brace", "fn main() {", diag.SynUnclosedBrace},
		{"top level let", "let x = 1;", diag.SynUnexpectedTopLevel},
		{"field access", "fn main() { t.x; }", diag.SynUnexpectedToken},
		{"bad tuple index", "fn main() { t.01; }", diag.SynInvalidTupleIndex},
		{"duplicate fn", "fn f() {}\nfn f() {}", diag.SynDuplicateFunction},
		{"missing type", "fn main() { let x: = 1; }", diag.SynExpectType},
		{"missing name", "fn main() { let 5 = x; }", diag.SynExpectIdentifier},
		{"missing semicolon", "fn main() { 1 2 }", diag.SynUnexpectedToken},
		{"const without type", "const X = 1;", diag.SynExpectType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, bag := parseSource(t, tt.input)
			items := bag.Items()
			if len(items) != 1 {
				t.Fatalf("expected exactly one diagnostic, got %s", diagnosticsSummary(bag))
			}
			if items[0].Code != tt.want {
				t.Errorf("got %s, want %s", diagnosticsSummary(bag), tt.want.ID())
			}
		})
	}
}

func TestParseRecoversAtNextItem(t *testing.T) {
	builder, fileID, bag := parseSource(t, `fn a() { let = 1; }
fn b() {}`)
	if got := len(bag.Items()); got != 1 {
		t.Fatalf("expected 1 diagnostic, got %s", diagnosticsSummary(bag))
	}
	if got := len(builder.Files.Get(fileID).Items); got != 2 {
		t.Fatalf("expected both functions to survive, got %d", got)
	}
}

func TestUnclosedBraceNotesOpening(t *testing.T) {
	_, _, bag := parseSource(t, "fn main() {\n    let x = 1;\n")
	items := bag.Items()
	if len(items) != 1 || len(items[0].Notes) != 1 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	if items[0].Notes[0].Msg != "unclosed delimiter opened here" {
		t.Errorf("note = %q", items[0].Notes[0].Msg)
	}
}

func TestBuiltinLessonSpans(t *testing.T) {
	lessons, err := lesson.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range lessons {
		t.Run(l.Name, func(t *testing.T) {
			fs := source.NewFileSet()
			fileID := fs.AddVirtual(l.Name+lesson.Ext, l.Source)
			file := fs.Get(fileID)
			bag := diag.NewBag(100)
			reporter := &diag.BagReporter{Bag: bag}
			builder := ast.NewBuilder(ast.Hints{})
			result := ParseFile(lexer.New(file, lexer.Options{Reporter: reporter}), builder, Options{MaxErrors: 100, Reporter: reporter})
			if bag.HasErrors() {
				t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
			}
			if err := testkit.CheckSpanInvariants(builder, result.File, file); err != nil {
				t.Fatal(err)
			}
		})
	}
}
