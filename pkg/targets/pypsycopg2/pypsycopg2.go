// Package pypsycopg2 emits Python code on top of the psycopg2 package.
// Parameters use the named %(name)s pyformat syntax.
package pypsycopg2

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

from typing import Any, Iterator, NamedTuple, Optional, Tuple

import psycopg2.extensions  # type: ignore
import psycopg2.pool  # type: ignore


class Transaction:
    def __init__(self, conn: psycopg2.extensions.connection) -> None:
        self.conn = conn

    def commit(self) -> None:
        self.conn.commit()
        # Ensure we cannot reuse the connection.
        self.conn = None

    def rollback(self) -> None:
        self.conn.rollback()
        self.conn = None

    def cursor(self) -> psycopg2.extensions.cursor:
        return self.conn.cursor()


class ConnectionPool(NamedTuple):
    pool: psycopg2.pool.ThreadedConnectionPool

    @contextlib.contextmanager
    def begin(self) -> Iterator[Transaction]:
        conn: Optional[psycopg2.extensions.connection] = None
        try:
            conn = self.pool.getconn()
            conn.isolation_level = "SERIALIZABLE"
            conn.autocommit = False
            yield Transaction(conn)
        except:
            if conn is not None:
                self.pool.putconn(conn, close=True)
            raise
        else:
            assert conn is not None
            self.pool.putconn(conn, close=False)
`

func init() {
	target.Register(&target.Target{
		Name:        "python-psycopg2",
		Description: "Python functions over psycopg2 (PostgreSQL)",
		OrdinalBase: 0,
		ParamSyntax: func(name string, _ int) string {
			return "%(" + name + ")s"
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
