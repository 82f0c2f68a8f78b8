package interpreter

import (
	"fmt"
	"strconv"

	"lox/ast"
	"lox/loxerr"
	"lox/token"
)

// loxObject is any runtime value: Nil, Bool, Number, String or a Callable.
type loxObject interface {
	String() string
	Type() string
	Truthy() bool
}

// loxEqual implements Lox's equality rule: nil == nil, otherwise strict equality with no coercion between types.
func loxEqual(a, b loxObject) bool {
	switch a := a.(type) {
	case loxNil:
		_, ok := b.(loxNil)
		return ok
	case loxBool:
		b, ok := b.(loxBool)
		return ok && a == b
	case loxNumber:
		b, ok := b.(loxNumber)
		return ok && a == b
	case loxString:
		b, ok := b.(loxString)
		return ok && a == b
	default:
		return a == b
	}
}

type loxNil struct{}

func (loxNil) String() string { return "nil" }
func (loxNil) Type() string   { return "nil" }
func (loxNil) Truthy() bool   { return false }

type loxBool bool

func (b loxBool) String() string { return strconv.FormatBool(bool(b)) }
func (loxBool) Type() string     { return "boolean" }
func (b loxBool) Truthy() bool   { return bool(b) }

type loxNumber float64

func (n loxNumber) String() string {
	s := strconv.FormatFloat(float64(n), 'f', -1, 64)
	return s
}
func (loxNumber) Type() string { return "number" }
func (loxNumber) Truthy() bool { return true }

type loxString string

func (s loxString) String() string { return string(s) }
func (loxString) Type() string     { return "string" }
func (loxString) Truthy() bool     { return true }

// loxCallable is implemented by any value that can appear as the callee of a CallExpr.
type loxCallable interface {
	loxObject
	Arity() int
	Call(i *Interpreter, args []loxObject) loxObject
}

// nativeFn is a builtin implemented in Go. clock is the only one spec.md allows.
type nativeFn struct {
	name  string
	arity int
	fn    func(args []loxObject) loxObject
}

func (n *nativeFn) String() string { return fmt.Sprintf("<native fn %s>", n.name) }
func (n *nativeFn) Type() string   { return "function" }
func (n *nativeFn) Truthy() bool   { return true }
func (n *nativeFn) Arity() int     { return n.arity }
func (n *nativeFn) Call(_ *Interpreter, args []loxObject) loxObject {
	return n.fn(args)
}

// loxFunction is a user-defined function or method.
type loxFunction struct {
	declaration   *ast.FunctionStmt
	closure       *environment
	isInitializer bool
}

func (f *loxFunction) String() string { return fmt.Sprintf("<fn %s>", f.declaration.Name.Lexeme) }
func (f *loxFunction) Type() string   { return "function" }
func (f *loxFunction) Truthy() bool   { return true }
func (f *loxFunction) Arity() int     { return len(f.declaration.Params) }

func (f *loxFunction) Call(i *Interpreter, args []loxObject) loxObject {
	env := newEnvironment(f.closure)
	for idx, param := range f.declaration.Params {
		env.define(param.Lexeme, args[idx])
	}

	result := i.execBlock(f.declaration.Body, env)
	if ret, ok := result.(stmtResultReturn); ok {
		if f.isInitializer {
			return f.closure.getAt(0, thisToken)
		}
		return ret.value
	}
	if f.isInitializer {
		return f.closure.getAt(0, thisToken)
	}
	return loxNil{}
}

// bind returns a copy of f whose closure additionally defines "this" as instance.
func (f *loxFunction) bind(instance *loxInstance) *loxFunction {
	env := newEnvironment(f.closure)
	env.define("this", instance)
	return &loxFunction{declaration: f.declaration, closure: env, isInitializer: f.isInitializer}
}

// thisToken is used to read "this" out of an environment via getAt, where only the lexeme matters.
var thisToken = token.Token{Kind: token.This, Lexeme: "this"}

// superToken is used to read "super" out of an environment via getAt, where only the lexeme matters.
var superToken = token.Token{Kind: token.Super, Lexeme: "super"}

// loxClass is a Lox class value, callable to construct instances.
type loxClass struct {
	name       string
	superclass *loxClass
	methods    map[string]*loxFunction
}

func (c *loxClass) String() string { return c.name }
func (c *loxClass) Type() string   { return "class" }
func (c *loxClass) Truthy() bool   { return true }

func (c *loxClass) findMethod(name string) *loxFunction {
	if m, ok := c.methods[name]; ok {
		return m
	}
	if c.superclass != nil {
		return c.superclass.findMethod(name)
	}
	return nil
}

func (c *loxClass) Arity() int {
	if init := c.findMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

func (c *loxClass) Call(i *Interpreter, args []loxObject) loxObject {
	instance := &loxInstance{class: c, fields: map[string]loxObject{}}
	if init := c.findMethod("init"); init != nil {
		init.bind(instance).Call(i, args)
	}
	return instance
}

// loxInstance is a runtime instance of a loxClass.
type loxInstance struct {
	class  *loxClass
	fields map[string]loxObject
}

func (inst *loxInstance) String() string { return inst.class.name + " instance" }
func (inst *loxInstance) Type() string   { return "instance" }
func (inst *loxInstance) Truthy() bool   { return true }

func (inst *loxInstance) get(tok token.Token) loxObject {
	if value, ok := inst.fields[tok.Lexeme]; ok {
		return value
	}
	if method := inst.class.findMethod(tok.Lexeme); method != nil {
		return method.bind(inst)
	}
	panic(&loxerr.RuntimeError{Msg: fmt.Sprintf("Undefined property '%s'.", tok.Lexeme), Tok: tok})
}

func (inst *loxInstance) set(tok token.Token, value loxObject) {
	inst.fields[tok.Lexeme] = value
}
