// Package resolver implements the static binding pass between parsing and evaluation.
//
// It walks the syntax tree once, without evaluating anything, and records for each variable reference how many
// enclosing scopes separate it from its declaration. The interpreter uses this side-table to read and write
// variables directly rather than by name lookup up the environment chain.
package resolver

import (
	"fmt"

	"lox/ast"
	"lox/loxerr"
	"lox/stack"
	"lox/token"
)

// Table maps a variable-like expression node to the number of enclosing environments to walk to find its
// declaration. Absence means the variable is resolved against the global environment at runtime.
type Table map[ast.Expr]int

// Resolve statically resolves stmts and returns the side-table consumed by the interpreter.
//
// The resolver reports the first rule violation it encounters and halts; spec.md's §7 propagation policy treats
// resolve errors like scan errors, not like the parser's collect-as-many-as-possible approach.
func Resolve(stmts []ast.Stmt) (Table, error) {
	r := &resolver{
		table:  Table{},
		scopes: stack.New[scope](),
	}
	if err := r.run(stmts); err != nil {
		return nil, err
	}
	return r.table, nil
}

type identStatus int

const (
	undeclared identStatus = iota
	declared
	defined
)

type scope map[string]identStatus

type funcType int

const (
	noFunc funcType = iota
	inFunction
	inMethod
	inInitializer
)

type classType int

const (
	noClass classType = iota
	inClass
	inSubclass
)

type resolver struct {
	table  Table
	scopes *stack.Stack[scope]

	curFunc  funcType
	curClass classType
}

// resolveHalt is the sentinel panic value used to unwind to run() as soon as the first violation is found.
type resolveHalt struct{ err error }

func (r *resolver) run(stmts []ast.Stmt) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if halt, ok := rec.(resolveHalt); ok {
				err = halt.err
			} else {
				panic(rec)
			}
		}
	}()
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
	return nil
}

func (r *resolver) fail(tok token.Token, format string, args ...any) {
	panic(resolveHalt{err: &loxerr.ResolveError{Msg: fmt.Sprintf(format, args...), Line: tok.Line}})
}

func (r *resolver) beginScope() {
	r.scopes.Push(scope{})
}

func (r *resolver) endScope() {
	r.scopes.Pop()
}

// declare marks name as declared-but-not-yet-defined in the current scope. It's a no-op at global scope: the
// global environment has no static scope object for the resolver to track.
func (r *resolver) declare(tok token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	sc := r.scopes.Peek()
	if _, ok := sc[tok.Lexeme]; ok {
		r.fail(tok, "Already a variable with this name in this scope.")
	}
	sc[tok.Lexeme] = declared
}

func (r *resolver) define(tok token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	r.scopes.Peek()[tok.Lexeme] = defined
}

// resolveLocal records the scope distance of name, walking from the innermost scope outward. No entry is recorded
// if name isn't found in any tracked scope: it will be looked up in the global environment at runtime.
func (r *resolver) resolveLocal(expr ast.Expr, name token.Token) {
	for i, sc := range r.scopes.Backward() {
		if _, ok := sc[name.Lexeme]; ok {
			r.table[expr] = r.scopes.Len() - 1 - i
			return
		}
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.VarStmt:
		r.resolveVarStmt(stmt)
	case *ast.FunctionStmt:
		r.resolveFunctionStmt(stmt)
	case *ast.ClassStmt:
		r.resolveClassStmt(stmt)
	case *ast.ExpressionStmt:
		r.resolveExpr(stmt.Expr)
	case *ast.PrintStmt:
		r.resolveExpr(stmt.Expr)
	case *ast.BlockStmt:
		r.beginScope()
		for _, s := range stmt.Stmts {
			r.resolveStmt(s)
		}
		r.endScope()
	case *ast.IfStmt:
		r.resolveExpr(stmt.Condition)
		r.resolveStmt(stmt.Then)
		if stmt.Else != nil {
			r.resolveStmt(stmt.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(stmt.Condition)
		r.resolveStmt(stmt.Body)
	case *ast.ReturnStmt:
		r.resolveReturnStmt(stmt)
	default:
		panic(fmt.Sprintf("unexpected statement type: %T", stmt))
	}
}

func (r *resolver) resolveVarStmt(stmt *ast.VarStmt) {
	r.declare(stmt.Name)
	if stmt.Initializer != nil {
		r.resolveExpr(stmt.Initializer)
	}
	r.define(stmt.Name)
}

func (r *resolver) resolveFunctionStmt(stmt *ast.FunctionStmt) {
	r.declare(stmt.Name)
	r.define(stmt.Name)
	r.resolveFunction(stmt, inFunction)
}

func (r *resolver) resolveFunction(fn *ast.FunctionStmt, ft funcType) {
	enclosingFunc := r.curFunc
	r.curFunc = ft
	defer func() { r.curFunc = enclosingFunc }()

	r.beginScope()
	defer r.endScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	for _, s := range fn.Body {
		r.resolveStmt(s)
	}
}

func (r *resolver) resolveReturnStmt(stmt *ast.ReturnStmt) {
	if r.curFunc == noFunc {
		r.fail(stmt.Keyword, "Can't return from top-level code.")
	}
	if stmt.Value != nil {
		if r.curFunc == inInitializer {
			r.fail(stmt.Keyword, "Can't return a value from an initializer.")
		}
		r.resolveExpr(stmt.Value)
	}
}

func (r *resolver) resolveClassStmt(stmt *ast.ClassStmt) {
	r.declare(stmt.Name)
	r.define(stmt.Name)

	enclosingClass := r.curClass
	r.curClass = inClass
	defer func() { r.curClass = enclosingClass }()

	if stmt.Superclass != nil {
		if stmt.Superclass.Name.Lexeme == stmt.Name.Lexeme {
			r.fail(stmt.Superclass.Name, "A class can't inherit from itself.")
		}
		r.curClass = inSubclass
		r.resolveExpr(stmt.Superclass)

		r.beginScope()
		defer r.endScope()
		r.scopes.Peek()["super"] = defined
	}

	r.beginScope()
	defer r.endScope()
	r.scopes.Peek()["this"] = defined

	for _, method := range stmt.Methods {
		ft := inMethod
		if method.Name.Lexeme == "init" {
			ft = inInitializer
		}
		r.resolveFunction(method, ft)
	}
}

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch expr := expr.(type) {
	case *ast.LiteralExpr:
		// Nothing to resolve.
	case *ast.GroupExpr:
		r.resolveExpr(expr.Expr)
	case *ast.UnaryExpr:
		r.resolveExpr(expr.Right)
	case *ast.BinaryExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *ast.LogicalExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *ast.VariableExpr:
		r.resolveVariableExpr(expr)
	case *ast.AssignExpr:
		r.resolveExpr(expr.Value)
		r.resolveLocal(expr, expr.Name)
	case *ast.CallExpr:
		r.resolveExpr(expr.Callee)
		for _, arg := range expr.Args {
			r.resolveExpr(arg)
		}
	case *ast.GetExpr:
		r.resolveExpr(expr.Object)
	case *ast.SetExpr:
		r.resolveExpr(expr.Value)
		r.resolveExpr(expr.Object)
	case *ast.ThisExpr:
		if r.curClass == noClass {
			r.fail(expr.Keyword, "Can't use 'this' outside of a class.")
		}
		r.resolveLocal(expr, expr.Keyword)
	case *ast.SuperExpr:
		r.resolveSuperExpr(expr)
	default:
		panic(fmt.Sprintf("unexpected expression type: %T", expr))
	}
}

func (r *resolver) resolveVariableExpr(expr *ast.VariableExpr) {
	if r.scopes.Len() > 0 {
		if status, ok := r.scopes.Peek()[expr.Name.Lexeme]; ok && status == declared {
			r.fail(expr.Name, "Can't read local variable in its own initializer.")
		}
	}
	r.resolveLocal(expr, expr.Name)
}

func (r *resolver) resolveSuperExpr(expr *ast.SuperExpr) {
	switch r.curClass {
	case noClass:
		r.fail(expr.Keyword, "Can't use 'super' outside of a class.")
	case inClass:
		r.fail(expr.Keyword, "Can't use 'super' in a class with no superclass.")
	}
	r.resolveLocal(expr, expr.Keyword)
}
