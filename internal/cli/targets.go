package cli

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sqlweave/sqlweave/pkg/target"
)

// printTargets renders the registered targets for '--target help'.
func printTargets(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Target", "Description"})
	for _, tgt := range target.List() {
		t.AppendRow(table.Row{tgt.Name, tgt.Description})
	}
	t.Render()
}

func targetNames() []string {
	var names []string
	for _, tgt := range target.List() {
		names = append(names, tgt.Name)
	}
	return append(names, "help")
}
