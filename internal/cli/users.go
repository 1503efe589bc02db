package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func usersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Browse FlowTask users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "list",
		Short:       "List users that tasks can be assigned to",
		Args:        cobra.NoArgs,
		Annotations: action("Loading users"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, s, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			users, err := a.tasks.Users(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\t")
			for _, u := range users {
				you := ""
				if u.ID == s.UserID() {
					you = "(you)"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, you)
			}
			return tw.Flush()
		},
	})
	return cmd
}
