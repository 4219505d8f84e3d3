package view

import (
	"fmt"
	"io"
	"text/tabwriter"
)

var levelMarks = map[Level]string{
	LevelPass:    "[ok]",
	LevelWarning: "[!!]",
	LevelError:   "[xx]",
}

// RenderTree writes an indented text rendering of nodes.
func RenderTree(w io.Writer, nodes []Node) error {
	for _, n := range nodes {
		if err := renderNode(w, n, 0); err != nil {
			return err
		}
	}
	return nil
}

func renderNode(w io.Writer, n Node, depth int) error {
	indent := fmt.Sprintf("%*s", depth*2, "")
	line := indent + n.Label
	if n.Kind == KindMemory {
		line = fmt.Sprintf("%s- %s  %s", indent, ShortID(n.Memory.ID), n.Label)
	}
	if n.Description != "" {
		line += "  (" + n.Description + ")"
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := renderNode(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// RenderStatus writes status rows as an aligned table.
func RenderStatus(w io.Writer, rows []StatusRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", levelMarks[r.Level], r.Label, r.Value); err != nil {
			return err
		}
	}
	return tw.Flush()
}
