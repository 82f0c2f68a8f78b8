// Command golox runs Lox programs: as a file, as a one-line program passed with -c, or interactively as a REPL.
//
// Diagnostic presentation (colourised, source-underlined error output) lives entirely in this file: the core
// packages (scanner, parser, resolver, interpreter) only ever produce plain-text errors. See lox/loxerr.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lox/ansi"
	"lox/ast"
	"lox/interpreter"
	"lox/loxerr"
	"lox/parser"
	"lox/resolver"
	"lox/scanner"
)

var (
	cmdFlag  = flag.String("c", "", "Program passed in as a string")
	printAST = flag.Bool("p", false, "Print the AST instead of running the program")
)

// nolint:revive
func Usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: golox [options] [script]\n")
	fmt.Fprintf(flag.CommandLine.Output(), "\n")
	fmt.Fprintf(flag.CommandLine.Output(), "Options:\n")
	flag.PrintDefaults()
}

// Exit codes, matching the convention used by the original jlox/clox tools this interpreter is descended from: 64
// for a command-line usage error, 65 for a compile-time (scan/parse/resolve) error, 70 for a runtime error.
const (
	exitUsageError   = 64
	exitStaticError  = 65
	exitRuntimeError = 70
)

func main() {
	log.SetFlags(0)

	flag.Usage = Usage
	flag.Parse()

	if *cmdFlag != "" {
		os.Exit(run(*cmdFlag, "<command-line>", interpreter.New()))
	}

	switch len(flag.Args()) {
	case 0:
		runREPL()
	case 1:
		os.Exit(runFile(flag.Arg(0)))
	default:
		flag.Usage()
		os.Exit(exitUsageError)
	}
}

// run scans, parses, resolves and interprets source, printing any diagnostics to stderr, and returns the process
// exit code that should result.
func run(source, name string, interp *interpreter.Interpreter) int {
	tokens, err := scanner.Scan(source)
	if err != nil {
		printDiagnostic(name, source, err)
		return exitStaticError
	}

	stmts, err := parser.Parse(tokens)
	if *printAST {
		ast.Print(stmts)
	}
	if err != nil {
		printDiagnostic(name, source, err)
		return exitStaticError
	}
	if *printAST {
		return 0
	}

	table, err := resolver.Resolve(stmts)
	if err != nil {
		printDiagnostic(name, source, err)
		return exitStaticError
	}

	if err := interp.Interpret(stmts, table); err != nil {
		printDiagnostic(name, source, err)
		return exitRuntimeError
	}
	return 0
}

func runFile(name string) int {
	data, err := os.ReadFile(name)
	if err != nil {
		log.Print(err)
		return exitUsageError
	}
	return run(string(data), name, interpreter.New())
}

func runREPL() {
	cfg := &readline.Config{Prompt: ">>> "}
	if homeDir, err := os.UserHomeDir(); err == nil {
		cfg.HistoryFile = path.Join(homeDir, ".lox_history")
	} else {
		fmt.Fprintf(os.Stderr, "Can't get current user's home directory (%s). Command history will not be saved.\n", err)
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		log.Fatalf("starting Lox REPL: %s", err)
	}
	defer rl.Close()

	fmt.Fprintln(os.Stderr, "Welcome to Lox!")

	interp := interpreter.New()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			log.Fatalf("reading line: %s", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		run(line, "<stdin>", interp)
	}
}

// printDiagnostic renders err to stderr with a bold location header and, where the error carries a source position,
// a faint copy of the offending line with the token underlined in red.
func printDiagnostic(name, source string, err error) {
	switch e := err.(type) {
	case loxerr.ParseErrors:
		for _, pe := range e {
			printOne(name, source, pe.Tok.Line, pe.Tok.Col, pe.Tok.Lexeme, pe.Msg)
		}
	case *loxerr.ParseError:
		printOne(name, source, e.Tok.Line, e.Tok.Col, e.Tok.Lexeme, e.Msg)
	case *loxerr.LexError:
		printOne(name, source, e.Line, 0, "", e.Msg)
	case *loxerr.ResolveError:
		printOne(name, source, e.Line, 0, "", e.Msg)
	case *loxerr.RuntimeError:
		printOne(name, source, e.Tok.Line, e.Tok.Col, e.Tok.Lexeme, e.Msg)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
}

func printOne(name, source string, line, col int, lexeme, msg string) {
	ansi.Fprintf(os.Stderr, "${BOLD}%s:%d: ", name, line)
	fmt.Fprintf(os.Stderr, "%s: %s\n", color.New(color.FgRed, color.Bold).Sprint("error"), msg)
	ansi.Fprint(os.Stderr, "${RESET_BOLD}")

	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) || lexeme == "" {
		return
	}
	srcLine := lines[line-1]
	ansi.Fprintln(os.Stderr, "${FAINT}", srcLine, "${RESET_BOLD}")

	leading := strings.Repeat(" ", runewidth.StringWidth(srcLine[:min(col, len(srcLine))]))
	underline := strings.Repeat("~", max(1, runewidth.StringWidth(lexeme)))
	ansi.Fprintln(os.Stderr, leading, "${FAINT}${RED}", underline, "${DEFAULT}${RESET_BOLD}")
}
