package cmd

import (
	"fmt"
	"io"
	"strings"

	"vkcommands/pkg/command"
	"vkcommands/pkg/modules"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	moduleNameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	moduleSummaryStyle = lipgloss.NewStyle().Faint(true)
	commandStyle       = lipgloss.NewStyle().PaddingLeft(2)
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List built-in command modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		commands, err := newCommandService(nil)
		if err != nil {
			return err
		}

		return writeModules(cmd.OutOrStdout(), commands)
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}

func writeModules(w io.Writer, commands *command.Service) error {
	var b strings.Builder
	for _, module := range commands.Modules() {
		b.WriteString(moduleNameStyle.Render(module.Name()))
		if summary := module.Summary(); summary != "" {
			b.WriteString(" ")
			b.WriteString(moduleSummaryStyle.Render(summary))
		}
		b.WriteString("\n")

		for _, cmd := range module.Commands() {
			b.WriteString(commandStyle.Render(modules.DescribeCommand(cmd)))
			b.WriteString("\n")
		}
	}

	_, err := fmt.Fprint(w, b.String())
	return err
}
