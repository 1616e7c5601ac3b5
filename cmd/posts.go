package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koukiniwa/ai-kouki-backend/internal/retrieval"
	"github.com/koukiniwa/ai-kouki-backend/internal/store"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Inspect or seed the blog post store",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts newest first, as the retrieval engine sees them",
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

		docs, err := rs.cache.GetAll(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(docs) == 0 {
			fmt.Fprintln(out, "(no posts)")
			return nil
		}
		for _, d := range retrieval.Recent(docs, len(docs)) {
			date := d.Date
			if date == "" {
				date = "----.--.--"
			}
			fmt.Fprintf(out, "%s  %s: %s (%d chars)\n", date, d.ID, d.Title, len([]rune(d.Body)))
		}
		return nil
	},
}

var postsImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Load posts from .md/.yaml/.json files into the configured store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		st, err := store.Open(ctx, storeOptions(c))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		w, ok := st.(store.Writer)
		if !ok {
			return fmt.Errorf("store backend %q is read-only; copy files into posts_dir instead", c.StoreBackend)
		}

		var all []store.Record
		for _, path := range args {
			recs, err := store.ReadFile(path)
			if err != nil {
				return err
			}
			all = append(all, recs...)
		}
		if err := w.Upsert(ctx, all); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d posts into %s\n", len(all), c.StoreBackend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsImportCmd)
}
