package interpreter_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"lox/interpreter"
	"lox/parser"
	"lox/resolver"
	"lox/scanner"
)

// assertStdout fails the test with a unified diff if got and want differ.
func assertStdout(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	edits := myers.ComputeEdits(span.URIFromPath("want"), want, got)
	diff := fmt.Sprint(gotextdiff.ToUnified("want", "got", want, edits))
	t.Errorf("stdout didn't match:\n%s", diff)
}

// run scans, parses, resolves and interprets source, returning what was written to stdout and any error returned by
// Interpret.
func run(t *testing.T, source string) (string, error) {
	t.Helper()
	tokens, err := scanner.Scan(source)
	if err != nil {
		t.Fatalf("Scan(%q) returned error: %s", source, err)
	}
	stmts, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %s", source, err)
	}
	table, err := resolver.Resolve(stmts)
	if err != nil {
		t.Fatalf("Resolve(%q) returned error: %s", source, err)
	}

	var out bytes.Buffer
	interp := interpreter.New()
	interp.SetOutput(&out)
	err = interp.Interpret(stmts, table)
	return out.String(), err
}

func mustRun(t *testing.T, source string) string {
	t.Helper()
	out, err := run(t, source)
	if err != nil {
		t.Fatalf("Interpret(%q) returned error: %s", source, err)
	}
	return out
}

// S1 — arithmetic.
func TestArithmetic(t *testing.T) {
	assertStdout(t, mustRun(t, "print 1 + 2 * 3;"), "7\n")
}

// S2 — closure counter.
func TestClosureCounter(t *testing.T) {
	source := `
		fun makeCounter() { var i = 0; fun count() { i = i + 1; return i; } return count; }
		var c = makeCounter(); print c(); print c(); print c();
	`
	assertStdout(t, mustRun(t, source), "1\n2\n3\n")
}

// S3 — resolver-fixed binding: showA always prints the global a, never the later block-scoped shadow, because its
// closure binding was fixed by the resolver at the point showA was declared.
func TestResolverFixedBinding(t *testing.T) {
	source := `
		var a = "global";
		{ fun showA() { print a; } showA(); var a = "block"; showA(); }
	`
	assertStdout(t, mustRun(t, source), "global\nglobal\n")
}

// S4 — class with init and method.
func TestClassInitAndMethod(t *testing.T) {
	source := `class Greeter { init(n){ this.n = n; } hi(){ print "Hi " + this.n; } }
		Greeter("X").hi();`
	assertStdout(t, mustRun(t, source), "Hi X\n")
}

// S5 — super dispatch.
func TestSuperDispatch(t *testing.T) {
	source := `
		class A { say(){ print "A"; } }
		class B < A { say(){ super.say(); print "B"; } }
		B().say();
	`
	assertStdout(t, mustRun(t, source), "A\nB\n")
}

// S6 — runtime error and exit.
func TestRuntimeErrorOperandsMustBeNumbers(t *testing.T) {
	_, err := run(t, `print "x" - 1;`)
	if err == nil {
		t.Fatal("Interpret returned no error, want a RuntimeError")
	}
	if got, want := err.Error(), "Operands must be numbers.\n[line 1]"; got != want {
		t.Errorf("err.Error() = %q, want %q", got, want)
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := run(t, "print 1 / 0;")
	assertContains(t, err, "Division by zero.")
}

func TestStringConcatenationRejectsMixedTypes(t *testing.T) {
	_, err := run(t, `print "a" + 1;`)
	assertContains(t, err, "Operands must be two numbers or two strings.")
}

func TestUndefinedVariable(t *testing.T) {
	_, err := run(t, "print nope;")
	assertContains(t, err, "Undefined variable 'nope'.")
}

func TestCallArityMismatch(t *testing.T) {
	_, err := run(t, "fun f(a, b) { return a + b; } f(1);")
	assertContains(t, err, "Expected 2 arguments but got 1.")
}

func TestInitializerAlwaysReturnsInstanceEvenWithBareReturn(t *testing.T) {
	source := `
		class Box { init(v) { this.v = v; if (v > 0) return; this.v = -1; } }
		var b = Box(5);
		print b.v;
	`
	assertStdout(t, mustRun(t, source), "5\n")
}

func TestUndefinedPropertyAccess(t *testing.T) {
	source := `class C {} print C().missing;`
	_, err := run(t, source)
	assertContains(t, err, "Undefined property 'missing'.")
}

// Only false and nil are falsey; every other value, including 0 and the empty string, is truthy.
func TestTruthiness(t *testing.T) {
	source := `
		if (0) print "zero-is-truthy"; else print "zero-is-falsey";
		if (false) print "false-is-truthy"; else print "false-is-falsey";
		if (nil) print "nil-is-truthy"; else print "nil-is-falsey";
		if ("") print "empty-string-is-truthy"; else print "empty-string-is-falsey";
	`
	assertStdout(t, mustRun(t, source), "zero-is-truthy\nfalse-is-falsey\nnil-is-falsey\nempty-string-is-truthy\n")
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
