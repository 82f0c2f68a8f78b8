package parser_test

import (
	"strings"
	"testing"

	"lox/ast"
	"lox/parser"
	"lox/scanner"
)

func mustParse(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	tokens, err := scanner.Scan(source)
	if err != nil {
		t.Fatalf("Scan(%q) returned error: %s", source, err)
	}
	stmts, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %s", source, err)
	}
	return stmts
}

func TestParseArithmeticPrecedence(t *testing.T) {
	stmts := mustParse(t, "print 1 + 2 * 3;")
	if got, want := ast.Sprint(stmts), "(program\n(print\n  (+\n    1\n    (*\n      2\n      3))))"; got != want {
		t.Errorf("Sprint(...) = %q, want %q", got, want)
	}
}

func TestParseForDesugarsToBlockAndWhile(t *testing.T) {
	stmts := mustParse(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	block, ok := stmts[0].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("stmts[0] is %T, want *ast.BlockStmt", stmts[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("outer block has %d statements, want 2 (initializer, while)", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*ast.VarStmt); !ok {
		t.Errorf("block.Stmts[0] is %T, want *ast.VarStmt", block.Stmts[0])
	}
	whileStmt, ok := block.Stmts[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("block.Stmts[1] is %T, want *ast.WhileStmt", block.Stmts[1])
	}
	body, ok := whileStmt.Body.(*ast.BlockStmt)
	if !ok {
		t.Fatalf("while body is %T, want *ast.BlockStmt (body + increment)", whileStmt.Body)
	}
	if len(body.Stmts) != 2 {
		t.Errorf("while body has %d statements, want 2 (original body, increment)", len(body.Stmts))
	}
}

func TestParseClassWithSuperclassAndMethods(t *testing.T) {
	stmts := mustParse(t, "class B < A { say() { super.say(); } }")
	classStmt, ok := stmts[0].(*ast.ClassStmt)
	if !ok {
		t.Fatalf("stmts[0] is %T, want *ast.ClassStmt", stmts[0])
	}
	if classStmt.Superclass == nil || classStmt.Superclass.Name.Lexeme != "A" {
		t.Errorf("classStmt.Superclass = %+v, want a VariableExpr naming A", classStmt.Superclass)
	}
	if len(classStmt.Methods) != 1 || classStmt.Methods[0].Name.Lexeme != "say" {
		t.Errorf("classStmt.Methods = %+v, want a single method named say", classStmt.Methods)
	}
}

func TestParseAssignmentTargets(t *testing.T) {
	stmts := mustParse(t, "x = 1; obj.field = 2;")
	if _, ok := stmts[0].(*ast.ExpressionStmt).Expr.(*ast.AssignExpr); !ok {
		t.Errorf("stmts[0] expression is %T, want *ast.AssignExpr", stmts[0].(*ast.ExpressionStmt).Expr)
	}
	if _, ok := stmts[1].(*ast.ExpressionStmt).Expr.(*ast.SetExpr); !ok {
		t.Errorf("stmts[1] expression is %T, want *ast.SetExpr", stmts[1].(*ast.ExpressionStmt).Expr)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	tokens, err := scanner.Scan("1 + 2 = 3;")
	if err != nil {
		t.Fatalf("Scan returned error: %s", err)
	}
	_, err = parser.Parse(tokens)
	if err == nil {
		t.Fatal("Parse returned no error, want Invalid assignment target error")
	}
	if !strings.Contains(err.Error(), "Invalid assignment target.") {
		t.Errorf("Parse error = %q, want it to contain %q", err.Error(), "Invalid assignment target.")
	}
}

func TestParseCollectsMultipleErrors(t *testing.T) {
	tokens, err := scanner.Scan("var ; var ; var ;")
	if err != nil {
		t.Fatalf("Scan returned error: %s", err)
	}
	_, err = parser.Parse(tokens)
	if err == nil {
		t.Fatal("Parse returned no error, want three errors")
	}
	n := strings.Count(err.Error(), "Expect variable name.")
	if n != 3 {
		t.Errorf("got %d occurrences of the error message, want 3 (one per malformed declaration)", n)
	}
}
