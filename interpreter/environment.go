package interpreter

import (
	"fmt"

	"lox/loxerr"
	"lox/token"
)

// environment is a chained name-to-value scope. The same environment is shared by reference between a closure and
// any block currently executing inside it.
type environment struct {
	parent *environment
	values map[string]loxObject
}

func newEnvironment(parent *environment) *environment {
	return &environment{parent: parent, values: map[string]loxObject{}}
}

// define unconditionally sets name in the current scope. Redefinition is allowed: at global scope it's how the REPL
// lets you redeclare a top-level variable, and the resolver is responsible for rejecting redeclaration within a
// single non-global scope before the interpreter ever gets here.
func (e *environment) define(name string, value loxObject) {
	e.values[name] = value
}

// get looks up name in this environment, delegating to enclosing environments until the chain is exhausted.
func (e *environment) get(tok token.Token) loxObject {
	for env := e; env != nil; env = env.parent {
		if value, ok := env.values[tok.Lexeme]; ok {
			return value
		}
	}
	panic(&loxerr.RuntimeError{Msg: fmt.Sprintf("Undefined variable '%s'.", tok.Lexeme), Tok: tok})
}

// assign sets name to value in the nearest environment in the chain where it's already defined.
func (e *environment) assign(tok token.Token, value loxObject) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[tok.Lexeme]; ok {
			env.values[tok.Lexeme] = value
			return
		}
	}
	panic(&loxerr.RuntimeError{Msg: fmt.Sprintf("Undefined variable '%s'.", tok.Lexeme), Tok: tok})
}

// getAt reads name directly from the environment distance links up the chain, as resolved by the resolver.
func (e *environment) getAt(distance int, tok token.Token) loxObject {
	return e.ancestor(distance).get(tok)
}

// assignAt writes name directly into the environment distance links up the chain, as resolved by the resolver.
func (e *environment) assignAt(distance int, tok token.Token, value loxObject) {
	e.ancestor(distance).assign(tok, value)
}

func (e *environment) ancestor(distance int) *environment {
	env := e
	for range distance {
		if env.parent == nil {
			panic(fmt.Sprintf("ancestor %d is out of range", distance))
		}
		env = env.parent
	}
	return env
}
