// Package pysqlite emits Python code on top of the sqlite3 module from
// the standard library. Parameters use the named :name syntax.
package pysqlite

import (
	"fmt"
	"io"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/target"
	"github.com/sqlweave/sqlweave/pkg/targets/python"
)

const preambleText = `
from __future__ import annotations

import contextlib
import sqlite3

from typing import Any, Iterator, NamedTuple, Optional, Tuple


class Transaction:
    def __init__(self, conn: sqlite3.Connection) -> None:
        self.conn = conn

    def commit(self) -> None:
        self.conn.commit()

    def rollback(self) -> None:
        self.conn.rollback()

    def cursor(self) -> sqlite3.Cursor:
        return self.conn.cursor()


@contextlib.contextmanager
def begin(conn: sqlite3.Connection) -> Iterator[Transaction]:
    tx = Transaction(conn)
    try:
        yield tx
    except:
        tx.rollback()
        raise
    else:
        tx.commit()
`

func init() {
	target.Register(&target.Target{
		Name:        "python-sqlite3",
		Description: "Python functions over the sqlite3 module",
		OrdinalBase: 0,
		ParamSyntax: func(name string, _ int) string {
			return ":" + name
		},
		Preamble:  preamble,
		Struct:    writeStruct,
		Function:  writeFunction,
		Postamble: postamble,
	})
}

func preamble(w io.Writer, docs []*ast.Document) error {
	python.Header(w, docs)
	if python.UsesInstant(docs) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "import datetime")
	}
	fmt.Fprint(w, preambleText)
	return nil
}

func postamble(io.Writer) error { return nil }

func writeStruct(w io.Writer, decl *target.StructDecl) error {
	python.WriteStruct(w, decl)
	return nil
}

func writeFunction(w io.Writer, fn *target.FuncDecl) error {
	python.WriteFunction(w, fn, "tx.cursor()")
	return nil
}
