package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/diag"
	"github.com/sqlweave/sqlweave/pkg/parser"
	"github.com/sqlweave/sqlweave/pkg/source"
	"github.com/sqlweave/sqlweave/pkg/target"
	"github.com/sqlweave/sqlweave/pkg/typecheck"

	// Targets register themselves.
	_ "github.com/sqlweave/sqlweave/pkg/targets/debug"
	_ "github.com/sqlweave/sqlweave/pkg/targets/gopgx"
	_ "github.com/sqlweave/sqlweave/pkg/targets/gosqlite"
	_ "github.com/sqlweave/sqlweave/pkg/targets/pypsycopg2"
	_ "github.com/sqlweave/sqlweave/pkg/targets/pysqlite"
)

// newLogger builds the structured logger: debug level to stderr when
// verbose, discard otherwise.
func newLogger() *slog.Logger {
	if cfg != nil && cfg.Verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}

// useColor decides whether diagnostics are styled.
func useColor() bool {
	if cfg != nil && cfg.NoColor {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

func run(cmd *cobra.Command, args []string) error {
	if cfg.Target == "" {
		return errors.New("no target specified, use --target <name> or '--target help'")
	}
	if cfg.Target == "help" {
		printTargets(cmd.OutOrStdout())
		return nil
	}
	if len(args) == 0 {
		return errors.New("no input files specified")
	}

	logger := newLogger()
	styles := diag.NewStyles(useColor())

	tgt, d := target.Get(cfg.Target)
	if d != nil {
		diag.RenderBare(cmd.ErrOrStderr(), d, styles)
		return errReported
	}

	generate := func() error {
		return generateOnce(cmd, tgt, args, logger, styles)
	}

	if cfg.Watch {
		return runWatch(cmd, args, logger, generate)
	}
	return generate()
}

// generateOnce runs the whole pipeline: read, lex, parse, resolve,
// emit. Nothing is written to the output until every stage succeeded,
// so an error never leaves partial output behind.
func generateOnce(cmd *cobra.Command, tgt *target.Target, args []string, logger *slog.Logger, styles *diag.Styles) error {
	stderr := cmd.ErrOrStderr()

	var docs []*ast.Document
	for _, fname := range args {
		f, err := readInput(cmd, fname)
		if err != nil {
			return err
		}
		logger.Debug("parsing input", "file", f.Name, "bytes", len(f.Data))

		doc, d := parser.Parse(f)
		if d == nil {
			d = typecheck.Check(doc)
		}
		if d != nil {
			diag.Render(stderr, f, d, styles)
			return errReported
		}
		logger.Debug("resolved document", "file", f.Name, "queries", len(doc.Queries))
		docs = append(docs, doc)
	}

	var buf bytes.Buffer
	if err := target.Generate(&buf, tgt, docs); err != nil {
		return fmt.Errorf("code generation failed: %w", err)
	}
	logger.Debug("generated output", "target", tgt.Name, "bytes", buf.Len())

	if cfg.Output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(cfg.Output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.Output, err)
	}
	return nil
}

func readInput(cmd *cobra.Command, fname string) (*source.File, error) {
	if fname == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return source.NewFile("<stdin>", data), nil
	}
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fname, err)
	}
	return source.NewFile(fname, data), nil
}
