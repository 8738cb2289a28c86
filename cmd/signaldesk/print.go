package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10")).
				Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("5")).
			Padding(0, 1)

	cardTitleStyle = lipgloss.NewStyle().Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// printerSinks renders transcript messages and work items to a writer. It
// backs the one-shot `run` command; the interactive chat has its own view.
type printerSinks struct {
	w        io.Writer
	renderer *glamour.TermRenderer
}

func newPrinterSinks(w io.Writer) *printerSinks {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}
	return &printerSinks{w: w, renderer: renderer}
}

// AppendMessage implements emit.MessageSink.
func (p *printerSinks) AppendMessage(msg types.Message) {
	switch msg.Role {
	case types.RoleUser:
		fmt.Fprintf(p.w, "%s %s\n", userStyle.Render("you:"), msg.Text)
	case types.RoleAssistant:
		fmt.Fprintf(p.w, "%s\n%s\n", assistantLabelStyle.Render("signaldesk:"), p.markdown(msg.Text))
	case types.RoleWorkItem:
		if msg.WorkItem != nil {
			fmt.Fprintln(p.w, renderCard(*msg.WorkItem))
		}
	}
}

// AddWorkItem implements emit.WorkItemSink. The inline card already shows
// the item; here we just note the workspace delivery.
func (p *printerSinks) AddWorkItem(item types.WorkItem) {
	fmt.Fprintf(p.w, "%s\n", detailStyle.Render(fmt.Sprintf("→ added to workspace: %s", item.Title)))
}

func (p *printerSinks) markdown(text string) string {
	if p.renderer == nil {
		return text
	}
	out, err := p.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

// renderCard draws a work item as a bordered card with its display details.
func renderCard(item types.WorkItem) string {
	body := cardTitleStyle.Render(item.Title) + "\n" + item.Description

	if len(item.Details) > 0 {
		keys := make([]string, 0, len(item.Details))
		for k := range item.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		body += "\n"
		for _, k := range keys {
			body += "\n" + detailStyle.Render(fmt.Sprintf("%s: %s", k, item.Details[k]))
		}
	}

	return cardStyle.Render(body)
}
