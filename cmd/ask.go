package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message through the chat pipeline and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		chat, rs, err := buildChat(ctx, c)
		if err != nil {
			return err
		}
		defer rs.Close()

		reply, err := chat.Reply(ctx, "cli-"+uuid.NewString(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
