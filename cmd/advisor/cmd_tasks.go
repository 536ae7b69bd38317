package main

import (
	"fmt"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"github.com/spf13/cobra"
)

func newTasksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks a recommendation can be ranked for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range models.TaskNames() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
