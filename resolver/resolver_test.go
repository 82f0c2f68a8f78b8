package resolver_test

import (
	"strings"
	"testing"

	"lox/ast"
	"lox/parser"
	"lox/resolver"
	"lox/scanner"
)

func mustScanAndParse(t *testing.T, source string) []ast.Stmt {
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

func resolveErr(t *testing.T, source string) error {
	t.Helper()
	stmts := mustScanAndParse(t, source)
	_, err := resolver.Resolve(stmts)
	return err
}

func TestResolveRejectsRedeclarationInSameScope(t *testing.T) {
	err := resolveErr(t, "{ var a = 1; var a = 2; }")
	assertContains(t, err, "Already a variable with this name in this scope.")
}

func TestResolveAllowsRedeclarationAtGlobalScope(t *testing.T) {
	stmts := mustScanAndParse(t, "var a = 1; var a = 2;")
	if _, err := resolver.Resolve(stmts); err != nil {
		t.Errorf("Resolve returned error: %s, want none (global redeclaration is allowed)", err)
	}
}

func TestResolveRejectsReadingVariableInOwnInitializer(t *testing.T) {
	err := resolveErr(t, "{ var a = a; }")
	assertContains(t, err, "Can't read local variable in its own initializer.")
}

func TestResolveRejectsReturnAtTopLevel(t *testing.T) {
	err := resolveErr(t, "return 1;")
	assertContains(t, err, "Can't return from top-level code.")
}

func TestResolveRejectsValueReturnFromInitializer(t *testing.T) {
	err := resolveErr(t, "class C { init() { return 1; } }")
	assertContains(t, err, "Can't return a value from an initializer.")
}

func TestResolveAllowsBareReturnFromInitializer(t *testing.T) {
	stmts := mustScanAndParse(t, "class C { init() { return; } }")
	if _, err := resolver.Resolve(stmts); err != nil {
		t.Errorf("Resolve returned error: %s, want none (bare return is allowed in an initializer)", err)
	}
}

func TestResolveRejectsClassInheritingFromItself(t *testing.T) {
	err := resolveErr(t, "class C < C {}")
	assertContains(t, err, "A class can't inherit from itself.")
}

func TestResolveRejectsThisOutsideClass(t *testing.T) {
	err := resolveErr(t, "print this;")
	assertContains(t, err, "Can't use 'this' outside of a class.")
}

func TestResolveRejectsSuperOutsideClass(t *testing.T) {
	err := resolveErr(t, "print super.x;")
	assertContains(t, err, "Can't use 'super' outside of a class.")
}

func TestResolveRejectsSuperWithoutSuperclass(t *testing.T) {
	err := resolveErr(t, "class C { f() { super.f(); } }")
	assertContains(t, err, "Can't use 'super' in a class with no superclass.")
}

func TestResolveLocalBindingDistance(t *testing.T) {
	stmts := mustScanAndParse(t, "{ var a = 1; { print a; } }")
	table, err := resolver.Resolve(stmts)
	if err != nil {
		t.Fatalf("Resolve returned error: %s", err)
	}
	outer := stmts[0].(*ast.BlockStmt)
	inner := outer.Stmts[1].(*ast.BlockStmt)
	printStmt := inner.Stmts[0].(*ast.PrintStmt)
	varExpr := printStmt.Expr.(*ast.VariableExpr)

	if got, want := table[varExpr], 1; got != want {
		t.Errorf("table[varExpr] = %d, want %d", got, want)
	}
}

func assertContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("got no error, want one containing %q", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("error = %q, want it to contain %q", err.Error(), substr)
	}
}
