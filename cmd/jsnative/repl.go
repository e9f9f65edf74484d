package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/feather-lang/jsnative/gojahost"
)

const (
	prompt         = "> "
	continuePrompt = "... "
)

// repl reads statements until EOF. Input is accumulated while the engine
// reports it as unterminated. Ctrl-C discards the pending input.
func repl(s *session, stderr io.Writer) error {
	cli := liner.NewLiner()
	defer cli.Close()
	cli.SetCtrlCAborts(true)

	var pending strings.Builder
	for {
		p := prompt
		if pending.Len() > 0 {
			p = continuePrompt
		}
		line, err := cli.Prompt(p)
		if errors.Is(err, liner.ErrPromptAborted) {
			pending.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)
		src := pending.String()
		if strings.TrimSpace(src) == "" {
			pending.Reset()
			continue
		}

		err = s.run(src, true)
		if gojahost.Incomplete(err) {
			continue
		}
		pending.Reset()
		cli.AppendHistory(src)
		if err != nil {
			fmt.Fprintln(stderr, err)
		}
	}
}
