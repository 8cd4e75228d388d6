package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or delete saved prediction records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().HistoryList(cmd.Context())
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one prediction record by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		return getApp().HistoryDelete(cmd.Context(), id)
	},
}

func init() {
	historyCmd.AddCommand(historyDeleteCmd)
}
