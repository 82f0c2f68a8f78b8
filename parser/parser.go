// Package parser builds a syntax tree from a token sequence using recursive descent with a single-token lookahead.
package parser

import (
	"fmt"

	"lox/ast"
	"lox/loxerr"
	"lox/token"
)

// Parse parses tokens (as produced by scanner.Scan) into a sequence of statements.
//
// Parse collects as many errors as it can in a single pass by synchronizing to the next likely statement boundary
// after each one, rather than stopping at the first.
func Parse(tokens []token.Token) ([]ast.Stmt, error) {
	p := &parser{tokens: tokens}
	var stmts []ast.Stmt
	for !p.atEnd() {
		if stmt := p.safeDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.errs.Err()
}

type parser struct {
	tokens []token.Token
	pos    int
	errs   loxerr.ParseErrors
}

// unwind is the sentinel panic value used to abandon the current statement and resynchronize.
type unwind struct{}

func (p *parser) peek() token.Token     { return p.tokens[p.pos] }
func (p *parser) previous() token.Token { return p.tokens[p.pos-1] }
func (p *parser) atEnd() bool           { return p.peek().Kind == token.EOF }

func (p *parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) check(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *parser) match(kinds ...token.Kind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) addError(tok token.Token, format string, args ...any) {
	p.errs = append(p.errs, &loxerr.ParseError{Msg: fmt.Sprintf(format, args...), Tok: tok})
}

// fail records a parse error at tok and abandons the current statement.
func (p *parser) fail(tok token.Token, format string, args ...any) {
	p.addError(tok, format, args...)
	panic(unwind{})
}

// expect consumes and returns the current token if it has the given kind, otherwise fails.
func (p *parser) expect(kind token.Kind, msg string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.fail(p.peek(), "%s", msg)
	panic(unwind{}) // unreachable: fail always panics
}

// safeDeclaration parses one declaration, recovering from an unwind by synchronizing to the next statement
// boundary. A nil result means the statement was abandoned; its errors are already recorded.
func (p *parser) safeDeclaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unwind); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()
	return p.declaration()
}

// synchronize discards tokens until it has consumed a ";" or the next token looks like the start of a statement.
func (p *parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Kind == token.Semicolon {
			return
		}
		switch p.peek().Kind {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}

func (p *parser) declaration() ast.Stmt {
	switch {
	case p.match(token.Class):
		return p.classDecl()
	case p.match(token.Fun):
		return p.function()
	case p.match(token.Var):
		return p.varDecl()
	default:
		return p.statement()
	}
}

func (p *parser) classDecl() ast.Stmt {
	name := p.expect(token.Identifier, "Expect class name.")

	var superclass *ast.VariableExpr
	if p.match(token.Less) {
		superName := p.expect(token.Identifier, "Expect superclass name.")
		superclass = &ast.VariableExpr{Name: superName}
	}

	p.expect(token.LeftBrace, "Expect '{' before class body.")
	var methods []*ast.FunctionStmt
	for !p.check(token.RightBrace) && !p.atEnd() {
		methods = append(methods, p.function())
	}
	p.expect(token.RightBrace, "Expect '}' after class body.")

	return &ast.ClassStmt{Name: name, Superclass: superclass, Methods: methods}
}

// function parses a function/method declaration after any leading "fun" keyword has already been consumed.
func (p *parser) function() *ast.FunctionStmt {
	name := p.expect(token.Identifier, "Expect function name.")
	p.expect(token.LeftParen, "Expect '(' after function name.")
	var params []token.Token
	if !p.check(token.RightParen) {
		for {
			if len(params) >= 255 {
				p.addError(p.peek(), "Can't have more than 255 parameters.")
			}
			params = append(params, p.expect(token.Identifier, "Expect parameter name."))
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RightParen, "Expect ')' after parameters.")
	p.expect(token.LeftBrace, "Expect '{' before function body.")
	body := p.block()
	return &ast.FunctionStmt{Name: name, Params: params, Body: body}
}

func (p *parser) varDecl() ast.Stmt {
	name := p.expect(token.Identifier, "Expect variable name.")
	var initializer ast.Expr
	if p.match(token.Equal) {
		initializer = p.expression()
	}
	p.expect(token.Semicolon, "Expect ';' after variable declaration.")
	return &ast.VarStmt{Name: name, Initializer: initializer}
}

func (p *parser) statement() ast.Stmt {
	switch {
	case p.match(token.For):
		return p.forStmt()
	case p.match(token.If):
		return p.ifStmt()
	case p.match(token.Print):
		return p.printStmt()
	case p.match(token.Return):
		return p.returnStmt()
	case p.match(token.While):
		return p.whileStmt()
	case p.match(token.LeftBrace):
		return &ast.BlockStmt{Stmts: p.block()}
	default:
		return p.exprStmt()
	}
}

func (p *parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RightBrace) && !p.atEnd() {
		stmts = append(stmts, p.declaration())
	}
	p.expect(token.RightBrace, "Expect '}' after block.")
	return stmts
}

func (p *parser) exprStmt() ast.Stmt {
	expr := p.expression()
	p.expect(token.Semicolon, "Expect ';' after expression.")
	return &ast.ExpressionStmt{Expr: expr}
}

func (p *parser) printStmt() ast.Stmt {
	value := p.expression()
	p.expect(token.Semicolon, "Expect ';' after value.")
	return &ast.PrintStmt{Expr: value}
}

func (p *parser) returnStmt() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(token.Semicolon) {
		value = p.expression()
	}
	p.expect(token.Semicolon, "Expect ';' after return value.")
	return &ast.ReturnStmt{Keyword: keyword, Value: value}
}

func (p *parser) ifStmt() ast.Stmt {
	p.expect(token.LeftParen, "Expect '(' after 'if'.")
	condition := p.expression()
	p.expect(token.RightParen, "Expect ')' after if condition.")
	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(token.Else) {
		elseBranch = p.statement()
	}
	return &ast.IfStmt{Condition: condition, Then: thenBranch, Else: elseBranch}
}

func (p *parser) whileStmt() ast.Stmt {
	p.expect(token.LeftParen, "Expect '(' after 'while'.")
	condition := p.expression()
	p.expect(token.RightParen, "Expect ')' after condition.")
	body := p.statement()
	return &ast.WhileStmt{Condition: condition, Body: body}
}

// forStmt desugars the C-style for loop into a block containing the initializer followed by an equivalent while
// loop, per spec.md's §4.2: the parser never produces a dedicated "for" AST node.
func (p *parser) forStmt() ast.Stmt {
	p.expect(token.LeftParen, "Expect '(' after 'for'.")

	var initializer ast.Stmt
	switch {
	case p.match(token.Semicolon):
		// No initializer.
	case p.match(token.Var):
		initializer = p.varDecl()
	default:
		initializer = p.exprStmt()
	}

	var condition ast.Expr
	if !p.check(token.Semicolon) {
		condition = p.expression()
	}
	p.expect(token.Semicolon, "Expect ';' after loop condition.")

	var increment ast.Expr
	if !p.check(token.RightParen) {
		increment = p.expression()
	}
	p.expect(token.RightParen, "Expect ')' after for clauses.")

	body := p.statement()

	if increment != nil {
		body = &ast.BlockStmt{Stmts: []ast.Stmt{body, &ast.ExpressionStmt{Expr: increment}}}
	}
	if condition == nil {
		condition = &ast.LiteralExpr{Value: token.Token{Kind: token.True, Lexeme: "true"}}
	}
	body = &ast.WhileStmt{Condition: condition, Body: body}
	if initializer != nil {
		body = &ast.BlockStmt{Stmts: []ast.Stmt{initializer, body}}
	}
	return body
}

func (p *parser) expression() ast.Expr {
	return p.assignment()
}

// assignment parses a left-hand expression at logic_or precedence, then converts it into an AssignExpr or SetExpr if
// "=" follows. Any other left-hand side followed by "=" is an error reported at the "=" token, per spec.md's §4.2.
func (p *parser) assignment() ast.Expr {
	expr := p.or()
	if !p.check(token.Equal) {
		return expr
	}
	equals := p.peek()
	switch e := expr.(type) {
	case *ast.VariableExpr:
		p.advance()
		value := p.assignment()
		return &ast.AssignExpr{Name: e.Name, Value: value}
	case *ast.GetExpr:
		p.advance()
		value := p.assignment()
		return &ast.SetExpr{Object: e.Object, Name: e.Name, Value: value}
	default:
		p.fail(equals, "Invalid assignment target.")
		panic(unwind{}) // unreachable: fail always panics
	}
}

func (p *parser) or() ast.Expr {
	return p.logical(p.and, token.Or)
}

func (p *parser) and() ast.Expr {
	return p.logical(p.equality, token.And)
}

func (p *parser) logical(next func() ast.Expr, kinds ...token.Kind) ast.Expr {
	expr := next()
	for p.match(kinds...) {
		op := p.previous()
		right := next()
		expr = &ast.LogicalExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) equality() ast.Expr {
	return p.binary(p.comparison, token.BangEqual, token.EqualEqual)
}

func (p *parser) comparison() ast.Expr {
	return p.binary(p.term, token.Greater, token.GreaterEqual, token.Less, token.LessEqual)
}

func (p *parser) term() ast.Expr {
	return p.binary(p.factor, token.Minus, token.Plus)
}

func (p *parser) factor() ast.Expr {
	return p.binary(p.unary, token.Slash, token.Star)
}

func (p *parser) binary(next func() ast.Expr, kinds ...token.Kind) ast.Expr {
	expr := next()
	for p.match(kinds...) {
		op := p.previous()
		right := next()
		expr = &ast.BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) unary() ast.Expr {
	if p.match(token.Bang, token.Minus) {
		op := p.previous()
		right := p.unary()
		return &ast.UnaryExpr{Op: op, Right: right}
	}
	return p.call()
}

func (p *parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(token.LeftParen):
			expr = p.finishCall(expr)
		case p.match(token.Dot):
			name := p.expect(token.Identifier, "Expect property name after '.'.")
			expr = &ast.GetExpr{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RightParen) {
		for {
			if len(args) >= 255 {
				p.addError(p.peek(), "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(token.Comma) {
				break
			}
		}
	}
	paren := p.expect(token.RightParen, "Expect ')' after arguments.")
	return &ast.CallExpr{Callee: callee, Paren: paren, Args: args}
}

func (p *parser) primary() ast.Expr {
	switch {
	case p.match(token.False, token.True, token.Nil, token.Number, token.String):
		return &ast.LiteralExpr{Value: p.previous()}
	case p.match(token.This):
		return &ast.ThisExpr{Keyword: p.previous()}
	case p.match(token.Super):
		keyword := p.previous()
		p.expect(token.Dot, "Expect '.' after 'super'.")
		method := p.expect(token.Identifier, "Expect superclass method name.")
		return &ast.SuperExpr{Keyword: keyword, Method: method}
	case p.match(token.Identifier):
		return &ast.VariableExpr{Name: p.previous()}
	case p.match(token.LeftParen):
		expr := p.expression()
		p.expect(token.RightParen, "Expect ')' after expression.")
		return &ast.GroupExpr{Expr: expr}
	default:
		p.fail(p.peek(), "Expect expression.")
		panic(unwind{}) // unreachable: fail always panics
	}
}
