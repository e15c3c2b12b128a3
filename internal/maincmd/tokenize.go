package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/emberlang/ember/lang/scanner"
	"github.com/emberlang/ember/lang/token"
)

// Tokenize runs only the scanner phase over each file and prints one line
// per token, mirroring the teacher's TokenizeFiles command.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tokenizeFile(stdio, path); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			return err
		}
	}
	return nil
}

func tokenizeFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	s := scanner.New(string(src))
	for {
		tok := s.NextToken()
		fmt.Fprintf(stdio.Stdout, "%4d %-14s %q\n", tok.Line, tok.Kind, tok.Lexeme)
		if tok.Kind == token.EOF || tok.Kind == token.ILLEGAL {
			break
		}
	}
	return nil
}
