package table

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Dump writes the action/goto table followed by the interned reductions and
// splits in a fixed layout. Equal tables produce equal dumps.
func (t *Table) Dump(w io.Writer) {
	header := []string{"state"}
	for _, term := range t.terminals {
		header = append(header, string(term))
	}
	for _, nt := range t.nonTerminals {
		header = append(header, string(nt))
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	for s := range t.actions {
		row := []string{strconv.Itoa(s)}
		if StateID(s) == t.start {
			row[0] += "*"
		}
		for _, a := range t.actions[s] {
			row = append(row, a.String())
		}
		for _, g := range t.gotos[s] {
			cell := ""
			if g != InvalidState {
				cell = strconv.Itoa(int(g))
			}
			row = append(row, cell)
		}
		tw.Append(row)
	}
	tw.Render()

	for id, r := range t.reduces {
		prods := make([]string, len(r.Productions))
		for i, p := range r.Productions {
			prods[i] = t.productions[p].String()
		}
		fmt.Fprintf(w, "r%d: pop %d, goto %s [%s]\n", id, r.Len, t.nonTerminals[r.NonTerminal], strings.Join(prods, "; "))
	}
	for id, sp := range t.splits {
		parts := make([]string, 0, len(sp.Reduces)+2)
		if sp.HasShift {
			parts = append(parts, "s"+strconv.Itoa(int(sp.Shift)))
		}
		for _, r := range sp.Reduces {
			parts = append(parts, "r"+strconv.Itoa(int(r)))
		}
		if sp.Accept {
			parts = append(parts, "acc")
		}
		fmt.Fprintf(w, "x%d: %s\n", id, strings.Join(parts, " | "))
	}
}
