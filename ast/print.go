package ast

import (
	"fmt"
	"strings"
)

// Print prints a statement tree to stdout as an indented s-expression.
func Print(stmts []Stmt) {
	fmt.Println(Sprint(stmts))
}

// Sprint formats a statement tree as an indented s-expression.
func Sprint(stmts []Stmt) string {
	var b strings.Builder
	fmt.Fprint(&b, "(program")
	for _, stmt := range stmts {
		fmt.Fprint(&b, "\n", indent(sprintStmt(stmt, 1), 1))
	}
	fmt.Fprint(&b, ")")
	return b.String()
}

func indent(s string, depth int) string {
	return strings.Repeat("  ", depth-1) + s
}

func sexpr(name string, depth int, children ...string) string {
	var b strings.Builder
	fmt.Fprint(&b, "(", name)
	for _, child := range children {
		fmt.Fprint(&b, "\n", strings.Repeat("  ", depth), child)
	}
	fmt.Fprint(&b, ")")
	return b.String()
}

func sprintStmt(stmt Stmt, depth int) string {
	switch stmt := stmt.(type) {
	case *ExpressionStmt:
		return sexpr("expr-stmt", depth, sprintExpr(stmt.Expr, depth+1))
	case *PrintStmt:
		return sexpr("print", depth, sprintExpr(stmt.Expr, depth+1))
	case *VarStmt:
		if stmt.Initializer == nil {
			return sexpr("var", depth, stmt.Name.Lexeme)
		}
		return sexpr("var", depth, stmt.Name.Lexeme, sprintExpr(stmt.Initializer, depth+1))
	case *BlockStmt:
		children := make([]string, len(stmt.Stmts))
		for i, s := range stmt.Stmts {
			children[i] = sprintStmt(s, depth+1)
		}
		return sexpr("block", depth, children...)
	case *IfStmt:
		children := []string{sprintExpr(stmt.Condition, depth+1), sprintStmt(stmt.Then, depth+1)}
		if stmt.Else != nil {
			children = append(children, sprintStmt(stmt.Else, depth+1))
		}
		return sexpr("if", depth, children...)
	case *WhileStmt:
		return sexpr("while", depth, sprintExpr(stmt.Condition, depth+1), sprintStmt(stmt.Body, depth+1))
	case *FunctionStmt:
		children := []string{stmt.Name.Lexeme}
		for _, s := range stmt.Body {
			children = append(children, sprintStmt(s, depth+1))
		}
		return sexpr("fun", depth, children...)
	case *ReturnStmt:
		if stmt.Value == nil {
			return sexpr("return", depth)
		}
		return sexpr("return", depth, sprintExpr(stmt.Value, depth+1))
	case *ClassStmt:
		children := []string{stmt.Name.Lexeme}
		if stmt.Superclass != nil {
			children = append(children, "< "+stmt.Superclass.Name.Lexeme)
		}
		for _, m := range stmt.Methods {
			children = append(children, sprintStmt(m, depth+1))
		}
		return sexpr("class", depth, children...)
	default:
		panic(fmt.Sprintf("unexpected statement type: %T", stmt))
	}
}

func sprintExpr(expr Expr, depth int) string {
	switch expr := expr.(type) {
	case *LiteralExpr:
		return expr.Value.Lexeme
	case *GroupExpr:
		return sexpr("group", depth, sprintExpr(expr.Expr, depth+1))
	case *UnaryExpr:
		return sexpr(expr.Op.Lexeme, depth, sprintExpr(expr.Right, depth+1))
	case *BinaryExpr:
		return sexpr(expr.Op.Lexeme, depth, sprintExpr(expr.Left, depth+1), sprintExpr(expr.Right, depth+1))
	case *LogicalExpr:
		return sexpr(expr.Op.Lexeme, depth, sprintExpr(expr.Left, depth+1), sprintExpr(expr.Right, depth+1))
	case *VariableExpr:
		return expr.Name.Lexeme
	case *AssignExpr:
		return sexpr("=", depth, expr.Name.Lexeme, sprintExpr(expr.Value, depth+1))
	case *CallExpr:
		children := []string{sprintExpr(expr.Callee, depth+1)}
		for _, arg := range expr.Args {
			children = append(children, sprintExpr(arg, depth+1))
		}
		return sexpr("call", depth, children...)
	case *GetExpr:
		return sexpr("get", depth, sprintExpr(expr.Object, depth+1), expr.Name.Lexeme)
	case *SetExpr:
		return sexpr("set", depth, sprintExpr(expr.Object, depth+1), expr.Name.Lexeme, sprintExpr(expr.Value, depth+1))
	case *ThisExpr:
		return "this"
	case *SuperExpr:
		return sexpr("super", depth, expr.Method.Lexeme)
	default:
		panic(fmt.Sprintf("unexpected expression type: %T", expr))
	}
}
