// jsnative runs scripts against a goja heap with the demo native classes
// Counter, Greeter and LoudGreeter installed.
//
//	jsnative script.js            run a file
//	jsnative -e 'new Counter(3).incr()'
//	jsnative                      REPL when stdin is a terminal
//	echo 'src' | jsnative         run stdin otherwise
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

const (
	exitOK     = 0
	exitScript = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	var (
		configPath string
		verbose    int
		eval       string
	)
	code := exitOK

	cmd := &cobra.Command{
		Use:           "jsnative [flags] [script.js...]",
		Short:         "Run scripts with native classes bound",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				code = exitUsage
				return err
			}
			cfg.Log.Verbosity += verbose
			configureLogging(cfg.Log)

			s, err := newSession(cfg, stdout)
			if err != nil {
				code = exitScript
				return err
			}
			defer s.close()

			for _, path := range args {
				if err := s.runFile(path, true); err != nil {
					code = exitScript
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			if eval != "" {
				if err := s.run(eval, true); err != nil {
					code = exitScript
					return err
				}
			}
			if len(args) > 0 || eval != "" {
				return nil
			}

			if interactive(stdin) {
				if err := repl(s, stderr); err != nil {
					code = exitScript
					return err
				}
				return nil
			}
			if err := s.runReader(stdin, true); err != nil {
				code = exitScript
				return err
			}
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML configuration file")
	cmd.Flags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (repeatable)")
	cmd.Flags().StringVarP(&eval, "eval", "e", "", "evaluate a script and print its value")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		if code == exitOK {
			code = exitUsage
		}
	}
	return code
}

func configureLogging(cfg LogConfig) {
	var path *string
	if cfg.File != "" {
		path = &cfg.File
	}
	commonlog.Configure(cfg.Verbosity, path)
}
