package cmd

import (
	"fmt"
	"io"
	"strings"

	"vkcommands/pkg/config"
	"vkcommands/pkg/gateway"

	"github.com/spf13/cobra"
)

var (
	matchPrefix     string
	matchIgnoreCase bool
	matchMention    int64
)

var matchCmd = &cobra.Command{
	Use:   "match <text>",
	Short: "Check whether text carries a command prefix",
	Long:  "Applies the dispatch prefix policy to text and prints where the command arguments begin.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return writeMatch(cmd.OutOrStdout(), text, config.DispatchConfig{
			Prefix:     matchPrefix,
			IgnoreCase: matchIgnoreCase,
			Mention:    matchMention != 0,
		}, matchMention)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().StringVar(&matchPrefix, "prefix", "", "literal command prefix (default \"!\")")
	matchCmd.Flags().BoolVar(&matchIgnoreCase, "ignore-case", false, "compare the prefix case-insensitively")
	matchCmd.Flags().Int64Var(&matchMention, "mention", 0, "peer id of the bot; enables mention matching")
}

func writeMatch(w io.Writer, text string, cfg config.DispatchConfig, selfID int64) error {
	argStart, ok := gateway.NewMatcher(cfg).Match(text, selfID)
	if !ok {
		_, err := fmt.Fprintln(w, "no match")
		return err
	}

	_, err := fmt.Fprintf(w, "match at %d: %q\n", argStart, text[argStart:])
	return err
}
