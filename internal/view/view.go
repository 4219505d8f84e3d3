// Package view turns index and health snapshots into renderable nodes.
package view

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/health"
	"github.com/VelixarAi/velixar-client/internal/index"
)

const (
	TreePreviewRunes   = 80
	PickPreviewRunes   = 100
	SearchPreviewRunes = 200

	EmptyTreeLabel = "No memories yet"
	// SetAPIKeyCommand is the command a status row runs when clicked.
	SetAPIKeyCommand = "velixar.setApiKey"
)

// Kind tags a Node.
type Kind int

const (
	KindGroup Kind = iota
	KindMemory
	KindPlaceholder
)

// Node is one row of the memory tree. Children is only set on groups;
// Memory only on memory rows.
type Node struct {
	Kind        Kind
	Label       string
	Description string
	Tooltip     string
	Tier        client.Tier
	Memory      *client.Memory
	Children    []Node
}

// Tree builds the memory browser from an index snapshot.
func Tree(v index.View) []Node {
	if v.Empty || len(v.Groups) == 0 {
		return []Node{{Kind: KindPlaceholder, Label: EmptyTreeLabel}}
	}
	nodes := make([]Node, 0, len(v.Groups))
	for _, g := range v.Groups {
		group := Node{
			Kind:     KindGroup,
			Label:    fmt.Sprintf("%s (%d)", g.Tier.Label(), len(g.Memories)),
			Tier:     g.Tier,
			Children: make([]Node, 0, len(g.Memories)),
		}
		for i := range g.Memories {
			m := g.Memories[i]
			group.Children = append(group.Children, Node{
				Kind:        KindMemory,
				Label:       Preview(m.Content, TreePreviewRunes),
				Description: CreatedDate(m),
				Tooltip:     m.Content,
				Tier:        g.Tier,
				Memory:      &m,
			})
		}
		nodes = append(nodes, group)
	}
	return nodes
}

// Preview flattens newlines and keeps the first n runes.
func Preview(content string, n int) string {
	flat := strings.ReplaceAll(content, "\n", " ")
	return cut(flat, n)
}

// Excerpt keeps the first n runes and marks the truncation with an ellipsis.
func Excerpt(content string, n int) string {
	if utf8.RuneCountInString(content) <= n {
		return content
	}
	return cut(content, n) + "…"
}

func cut(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ShortID renders the first eight characters of an id, marking the cut.
func ShortID(id string) string {
	if short := cut(id, 8); short != id {
		return short + "..."
	}
	return id
}

// CreatedDate formats created_at as YYYY-MM-DD, or "" when absent.
func CreatedDate(m client.Memory) string {
	if m.CreatedAt.IsZero() {
		return ""
	}
	return m.CreatedAt.Local().Format("2006-01-02")
}

// Score renders a relevance score with two decimals.
func Score(s *float64) string {
	if s == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *s)
}

// PickLabel and PickDetail describe a search hit in a picker.
func PickLabel(m client.Memory) string { return Preview(m.Content, PickPreviewRunes) }

func PickDetail(m client.Memory) string {
	return fmt.Sprintf("ID: %s | Score: %s", ShortID(m.ID), Score(m.Score))
}

// Level is the severity icon of a status row.
type Level int

const (
	LevelPass Level = iota
	LevelWarning
	LevelError
)

// StatusRow is one line of the status view.
type StatusRow struct {
	Label   string
	Value   string
	Level   Level
	Command string
}

// StatusRows renders a health snapshot.
func StatusRows(s health.Snapshot) []StatusRow {
	rows := make([]StatusRow, 0, 4)
	if s.CredentialPresent {
		rows = append(rows, StatusRow{Label: "API Key", Value: "Connected", Level: LevelPass})
	} else {
		rows = append(rows, StatusRow{Label: "API Key", Value: "Not set — click to configure", Level: LevelError, Command: SetAPIKeyCommand})
	}
	if s.APIReachable {
		rows = append(rows, StatusRow{Label: "API", Value: "Healthy", Level: LevelPass})
	} else {
		rows = append(rows, StatusRow{Label: "API", Value: "Unreachable", Level: LevelError})
	}
	rows = append(rows,
		storeRow("Vector store (Qdrant)", s.VectorStore),
		storeRow("Cache (Redis)", s.CacheStore),
	)
	return rows
}

func storeRow(label string, st health.Status) StatusRow {
	switch st {
	case health.Up:
		return StatusRow{Label: label, Value: "Connected", Level: LevelPass}
	case health.Down:
		return StatusRow{Label: label, Value: "Down", Level: LevelWarning}
	default:
		return StatusRow{Label: label, Value: "Unknown", Level: LevelWarning}
	}
}
