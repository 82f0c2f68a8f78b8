// Package interpreter tree-walks a resolved syntax tree and evaluates it.
package interpreter

import (
	"fmt"
	"io"
	"os"
	"time"

	"lox/ast"
	"lox/loxerr"
	"lox/resolver"
	"lox/token"
)

// Interpreter executes statements against a persistent global environment. The same Interpreter can be reused
// across multiple Interpret calls, e.g. successive lines typed into a REPL.
type Interpreter struct {
	globals *environment
	env     *environment
	table   resolver.Table

	stdout io.Writer
}

// New constructs an Interpreter with its global environment populated with the clock builtin, spec.md's only
// built-in function.
func New() *Interpreter {
	globals := newEnvironment(nil)
	globals.define("clock", &nativeFn{
		name:  "clock",
		arity: 0,
		fn: func([]loxObject) loxObject {
			return loxNumber(float64(time.Now().UnixNano()) / 1e9)
		},
	})
	return &Interpreter{globals: globals, env: globals, stdout: os.Stdout}
}

// SetOutput redirects where Print statements write to. Defaults to os.Stdout.
func (i *Interpreter) SetOutput(w io.Writer) {
	i.stdout = w
}

// Interpret runs stmts using the side-table produced by resolver.Resolve for this same tree.
//
// It returns a *loxerr.RuntimeError on the first runtime fault; compile-time errors are the caller's responsibility
// to have already ruled out by the time Interpret is called.
func (i *Interpreter) Interpret(stmts []ast.Stmt, table resolver.Table) (err error) {
	// Merge rather than replace: functions declared by earlier calls still need their own trees' entries.
	if i.table == nil {
		i.table = resolver.Table{}
	}
	for expr, distance := range table {
		i.table[expr] = distance
	}
	defer func() {
		if r := recover(); r != nil {
			if runtimeErr, ok := r.(*loxerr.RuntimeError); ok {
				err = runtimeErr
				return
			}
			panic(r)
		}
	}()
	for _, stmt := range stmts {
		i.execStmt(stmt)
	}
	return nil
}

// stmtResult is the control-flow signal produced by executing a statement. Return statements unwind through
// arbitrary block nesting via this explicit channel, never via the same one as runtime errors.
type stmtResult interface {
	isStmtResult()
}

type stmtResultNone struct{}

func (stmtResultNone) isStmtResult() {}

type stmtResultReturn struct{ value loxObject }

func (stmtResultReturn) isStmtResult() {}

func (i *Interpreter) execStmt(stmt ast.Stmt) stmtResult {
	switch stmt := stmt.(type) {
	case *ast.ExpressionStmt:
		i.eval(stmt.Expr)
	case *ast.PrintStmt:
		value := i.eval(stmt.Expr)
		fmt.Fprintln(i.stdout, value.String())
	case *ast.VarStmt:
		value := loxObject(loxNil{})
		if stmt.Initializer != nil {
			value = i.eval(stmt.Initializer)
		}
		i.env.define(stmt.Name.Lexeme, value)
	case *ast.BlockStmt:
		return i.execBlock(stmt.Stmts, newEnvironment(i.env))
	case *ast.IfStmt:
		if i.eval(stmt.Condition).Truthy() {
			return i.execStmt(stmt.Then)
		} else if stmt.Else != nil {
			return i.execStmt(stmt.Else)
		}
	case *ast.WhileStmt:
		for i.eval(stmt.Condition).Truthy() {
			result := i.execStmt(stmt.Body)
			if _, ok := result.(stmtResultNone); !ok {
				return result
			}
		}
	case *ast.FunctionStmt:
		fn := &loxFunction{declaration: stmt, closure: i.env}
		i.env.define(stmt.Name.Lexeme, fn)
	case *ast.ReturnStmt:
		value := loxObject(loxNil{})
		if stmt.Value != nil {
			value = i.eval(stmt.Value)
		}
		return stmtResultReturn{value: value}
	case *ast.ClassStmt:
		i.execClassStmt(stmt)
	default:
		panic(fmt.Sprintf("unexpected statement type: %T", stmt))
	}
	return stmtResultNone{}
}

// execBlock runs stmts in env and guarantees that the interpreter's current environment is restored to whatever it
// was before the call, on every exit path: falling off the end, a Return signal, or a runtime-error panic.
func (i *Interpreter) execBlock(stmts []ast.Stmt, env *environment) stmtResult {
	previous := i.env
	i.env = env
	defer func() { i.env = previous }()

	for _, stmt := range stmts {
		result := i.execStmt(stmt)
		if _, ok := result.(stmtResultNone); !ok {
			return result
		}
	}
	return stmtResultNone{}
}

func (i *Interpreter) execClassStmt(stmt *ast.ClassStmt) {
	var superclass *loxClass
	if stmt.Superclass != nil {
		value := i.eval(stmt.Superclass)
		class, ok := value.(*loxClass)
		if !ok {
			panic(&loxerr.RuntimeError{Msg: "Superclass must be a class.", Tok: stmt.Superclass.Name})
		}
		superclass = class
	}

	i.env.define(stmt.Name.Lexeme, loxNil{})

	env := i.env
	if superclass != nil {
		env = newEnvironment(i.env)
		env.define("super", superclass)
	}

	methods := make(map[string]*loxFunction, len(stmt.Methods))
	for _, method := range stmt.Methods {
		methods[method.Name.Lexeme] = &loxFunction{
			declaration:   method,
			closure:       env,
			isInitializer: method.Name.Lexeme == "init",
		}
	}

	class := &loxClass{name: stmt.Name.Lexeme, superclass: superclass, methods: methods}
	i.env.assign(stmt.Name, class)
}

func (i *Interpreter) eval(expr ast.Expr) loxObject {
	switch expr := expr.(type) {
	case *ast.LiteralExpr:
		return i.evalLiteralExpr(expr)
	case *ast.GroupExpr:
		return i.eval(expr.Expr)
	case *ast.UnaryExpr:
		return i.evalUnaryExpr(expr)
	case *ast.BinaryExpr:
		return i.evalBinaryExpr(expr)
	case *ast.LogicalExpr:
		return i.evalLogicalExpr(expr)
	case *ast.VariableExpr:
		return i.lookUpVariable(expr.Name, expr)
	case *ast.AssignExpr:
		return i.evalAssignExpr(expr)
	case *ast.CallExpr:
		return i.evalCallExpr(expr)
	case *ast.GetExpr:
		return i.evalGetExpr(expr)
	case *ast.SetExpr:
		return i.evalSetExpr(expr)
	case *ast.ThisExpr:
		return i.lookUpVariable(expr.Keyword, expr)
	case *ast.SuperExpr:
		return i.evalSuperExpr(expr)
	default:
		panic(fmt.Sprintf("unexpected expression type: %T", expr))
	}
}

func (i *Interpreter) lookUpVariable(tok token.Token, expr ast.Expr) loxObject {
	if distance, ok := i.table[expr]; ok {
		return i.env.getAt(distance, tok)
	}
	return i.globals.get(tok)
}

func (i *Interpreter) evalLiteralExpr(expr *ast.LiteralExpr) loxObject {
	switch tok := expr.Value; tok.Kind {
	case token.Number:
		return loxNumber(tok.Literal.(float64))
	case token.String:
		return loxString(tok.Literal.(string))
	case token.True:
		return loxBool(true)
	case token.False:
		return loxBool(false)
	case token.Nil:
		return loxNil{}
	default:
		panic(fmt.Sprintf("unexpected literal token kind: %s", tok.Kind))
	}
}

func (i *Interpreter) evalUnaryExpr(expr *ast.UnaryExpr) loxObject {
	right := i.eval(expr.Right)
	switch expr.Op.Kind {
	case token.Bang:
		return loxBool(!right.Truthy())
	case token.Minus:
		n, ok := right.(loxNumber)
		if !ok {
			panic(&loxerr.RuntimeError{Msg: "Operand must be a number.", Tok: expr.Op})
		}
		return -n
	default:
		panic(fmt.Sprintf("unexpected unary operator: %s", expr.Op.Kind))
	}
}

func (i *Interpreter) evalLogicalExpr(expr *ast.LogicalExpr) loxObject {
	left := i.eval(expr.Left)
	switch expr.Op.Kind {
	case token.Or:
		if left.Truthy() {
			return left
		}
	case token.And:
		if !left.Truthy() {
			return left
		}
	default:
		panic(fmt.Sprintf("unexpected logical operator: %s", expr.Op.Kind))
	}
	return i.eval(expr.Right)
}

func (i *Interpreter) evalBinaryExpr(expr *ast.BinaryExpr) loxObject {
	left := i.eval(expr.Left)
	right := i.eval(expr.Right)

	switch expr.Op.Kind {
	case token.EqualEqual:
		return loxBool(loxEqual(left, right))
	case token.BangEqual:
		return loxBool(!loxEqual(left, right))
	case token.Plus:
		return i.evalAdd(expr.Op, left, right)
	case token.Minus:
		l, r := i.numberOperands(expr.Op, left, right)
		return l - r
	case token.Star:
		l, r := i.numberOperands(expr.Op, left, right)
		return l * r
	case token.Slash:
		l, r := i.numberOperands(expr.Op, left, right)
		if r == 0 {
			panic(&loxerr.RuntimeError{Msg: "Division by zero.", Tok: expr.Op})
		}
		return l / r
	case token.Greater:
		l, r := i.numberOperands(expr.Op, left, right)
		return loxBool(l > r)
	case token.GreaterEqual:
		l, r := i.numberOperands(expr.Op, left, right)
		return loxBool(l >= r)
	case token.Less:
		l, r := i.numberOperands(expr.Op, left, right)
		return loxBool(l < r)
	case token.LessEqual:
		l, r := i.numberOperands(expr.Op, left, right)
		return loxBool(l <= r)
	default:
		panic(fmt.Sprintf("unexpected binary operator: %s", expr.Op.Kind))
	}
}

func (i *Interpreter) evalAdd(op token.Token, left, right loxObject) loxObject {
	if l, ok := left.(loxNumber); ok {
		if r, ok := right.(loxNumber); ok {
			return l + r
		}
	}
	if l, ok := left.(loxString); ok {
		if r, ok := right.(loxString); ok {
			return l + r
		}
	}
	panic(&loxerr.RuntimeError{Msg: "Operands must be two numbers or two strings.", Tok: op})
}

func (i *Interpreter) numberOperands(op token.Token, left, right loxObject) (loxNumber, loxNumber) {
	l, lok := left.(loxNumber)
	r, rok := right.(loxNumber)
	if !lok || !rok {
		panic(&loxerr.RuntimeError{Msg: "Operands must be numbers.", Tok: op})
	}
	return l, r
}

func (i *Interpreter) evalAssignExpr(expr *ast.AssignExpr) loxObject {
	value := i.eval(expr.Value)
	if distance, ok := i.table[expr]; ok {
		i.env.assignAt(distance, expr.Name, value)
	} else {
		i.globals.assign(expr.Name, value)
	}
	return value
}

func (i *Interpreter) evalCallExpr(expr *ast.CallExpr) loxObject {
	callee := i.eval(expr.Callee)

	args := make([]loxObject, len(expr.Args))
	for idx, arg := range expr.Args {
		args[idx] = i.eval(arg)
	}

	callable, ok := callee.(loxCallable)
	if !ok {
		panic(&loxerr.RuntimeError{Msg: "Can only call functions and classes.", Tok: expr.Paren})
	}

	if len(args) != callable.Arity() {
		panic(&loxerr.RuntimeError{
			Msg: fmt.Sprintf("Expected %d arguments but got %d.", callable.Arity(), len(args)),
			Tok: expr.Paren,
		})
	}

	return callable.Call(i, args)
}

func (i *Interpreter) evalGetExpr(expr *ast.GetExpr) loxObject {
	object := i.eval(expr.Object)
	instance, ok := object.(*loxInstance)
	if !ok {
		panic(&loxerr.RuntimeError{Msg: "Only instances have properties.", Tok: expr.Name})
	}
	return instance.get(expr.Name)
}

func (i *Interpreter) evalSetExpr(expr *ast.SetExpr) loxObject {
	object := i.eval(expr.Object)
	instance, ok := object.(*loxInstance)
	if !ok {
		panic(&loxerr.RuntimeError{Msg: "Only instances have fields.", Tok: expr.Name})
	}
	value := i.eval(expr.Value)
	instance.set(expr.Name, value)
	return value
}

func (i *Interpreter) evalSuperExpr(expr *ast.SuperExpr) loxObject {
	distance := i.table[expr]
	superclass := i.env.getAt(distance, superToken).(*loxClass)
	instance := i.env.getAt(distance-1, thisToken).(*loxInstance)

	method := superclass.findMethod(expr.Method.Lexeme)
	if method == nil {
		panic(&loxerr.RuntimeError{Msg: fmt.Sprintf("Undefined property '%s'.", expr.Method.Lexeme), Tok: expr.Method})
	}
	return method.bind(instance)
}
