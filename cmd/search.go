package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koukiniwa/ai-kouki-backend/internal/utils"
)

var (
	searchJSON    bool
	searchContext bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show which posts would be attached to a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		rs, err := buildRetrieval(ctx, c)
		if err != nil {
			return err
		}
		defer rs.Close()

		query := strings.Join(args, " ")
		out := cmd.OutOrStdout()
		if searchContext {
			fmt.Fprint(out, rs.engine.BuildContext(ctx, query))
			fmt.Fprintln(out)
			return nil
		}
		cands := rs.engine.Retrieve(ctx, query)
		if searchJSON {
			b, err := utils.PrettyJSON(cands)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(cands) == 0 {
			fmt.Fprintln(out, "(no matches)")
			return nil
		}
		for _, cand := range cands {
			line := fmt.Sprintf("- [%s] %s: %s", cand.Source, cand.ID, cand.Title)
			if cand.Date != "" {
				line += " (" + cand.Date + ")"
			}
			if cand.Score > 0 {
				line += fmt.Sprintf(" score=%d", cand.Score)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print candidates as JSON")
	searchCmd.Flags().BoolVar(&searchContext, "context", false, "print the rendered context block instead")
}
