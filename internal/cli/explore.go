package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tableau/pkg/pipeline"
	"github.com/matzehuels/tableau/pkg/render"
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool
	opts := pipeline.Options{All: true}

	cmd := &cobra.Command{
		Use:   "explore [kb.toml]",
		Short: "Browse the completions of a knowledge base interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			res, err := c.runCheck(cmd.Context(), opts, noCache)
			if err != nil {
				return err
			}
			if !res.Report.Consistent {
				printVerdict(filepath.Base(opts.Path), res.Report, res.CacheInfo.CheckHit)
				return ErrInconsistent
			}
			m := NewExploreModel(filepath.Base(opts.Path), res.Report)
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
			return err
		},
	}

	searchFlags(cmd, &opts, &noCache)
	cmd.Flags().IntVarP(&opts.KeepModels, "keep", "k", pipeline.DefaultKeepModels, "number of completions to load")

	return cmd
}

// =============================================================================
// ExploreModel - Interactive completion browser
// =============================================================================

// ExploreModel is the bubbletea model for browsing completions.
type ExploreModel struct {
	Name    string
	Report  *pipeline.Report
	Index   int  // completion shown
	Cursor  int  // selected node
	Offset  int  // first visible node
	Height  int  // visible rows
	Retired bool // show expanded terms
}

// NewExploreModel creates a browser over the completions of rep.
func NewExploreModel(name string, rep *pipeline.Report) ExploreModel {
	return ExploreModel{Name: name, Report: rep, Height: 15}
}

func (m ExploreModel) completions() []*render.Model {
	if len(m.Report.Completions) > 0 {
		return m.Report.Completions
	}
	if m.Report.Model != nil {
		return []*render.Model{m.Report.Model}
	}
	return nil
}

// Current returns the completion on screen, or nil.
func (m ExploreModel) Current() *render.Model {
	cs := m.completions()
	if m.Index < len(cs) {
		return cs[m.Index]
	}
	return nil
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		nodes := 0
		if cur := m.Current(); cur != nil {
			nodes = len(cur.Nodes)
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Index > 0 {
				m.Index--
				m.Cursor, m.Offset = 0, 0
			}
		case "right", "l":
			if m.Index < len(m.completions())-1 {
				m.Index++
				m.Cursor, m.Offset = 0, 0
			}
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < nodes-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "r":
			m.Retired = !m.Retired
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m ExploreModel) View() string {
	var b strings.Builder

	cs := m.completions()
	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s · completion %d/%d", m.Name, m.Index+1, len(cs))))
	if m.Report.Models > len(cs) {
		b.WriteString(StyleDim.Render(fmt.Sprintf(" (of %d)", m.Report.Models)))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ completion  ↑/↓ node  r expanded terms  q quit"))
	b.WriteString("\n\n")

	cur := m.Current()
	if cur == nil {
		return b.String()
	}

	end := min(m.Offset+m.Height, len(cur.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := cur.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		terms := strings.Join(n.Terms, " ")
		if m.Retired && len(n.Retired) > 0 {
			terms += " " + styleRetired.Render(strings.Join(n.Retired, " "))
		}
		rows = append(rows, []string{cursor, n.Label, terms, formatLinks(cur, n.ID)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Terms", "Links").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if idx < len(cur.Nodes) && strings.HasPrefix(cur.Nodes[idx].Label, "_:") {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d nodes]", m.Cursor+1, len(cur.Nodes))))

	return b.String()
}
