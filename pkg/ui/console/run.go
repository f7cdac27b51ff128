package console

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DispatchFunc runs one typed line and returns the replies it produced.
type DispatchFunc func(ctx context.Context, text string) ([]string, error)

// Info describes the simulated conversation shown in the header.
type Info struct {
	PeerID   int64
	UserID   int64
	Prefix   string
	Commands int
}

// Run starts the full-screen console and blocks until the user quits.
func Run(ctx context.Context, dispatch DispatchFunc, info Info) error {
	model := newModel(ctx, dispatch, info)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return err
	}

	fmt.Println(renderGoodbyeBanner())
	return nil
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("24")).
		Padding(1, 2)

	return style.Render("console closed")
}
