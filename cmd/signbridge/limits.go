package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

func newLimitsCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "limits [user]",
		Short: "Show a caller's rate-limit standing on a running server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := "default"
			if len(args) > 0 {
				user = args[0]
			}

			var status models.RateLimitStatus
			path := "/api/feedback/rate_limits/" + url.PathEscape(user)
			if err := newAPIClient(addr).get(path, &status); err != nil {
				return err
			}

			fmt.Printf("User: %s\n", status.UserID)
			if status.IsLimited {
				fmt.Printf("Rate limited: yes (%s)\n", status.LimitReason)
			} else {
				fmt.Println("Rate limited: no")
			}
			fmt.Println()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WINDOW\tUSED\tMAX\tREMAINING")
			fmt.Fprintf(w, "global/minute\t%d\t%d\t%d\n",
				status.Global.Minute.Current, status.Global.Minute.Max, status.Global.Minute.Remaining)
			fmt.Fprintf(w, "global/hour\t%d\t%d\t%d\n",
				status.Global.Hour.Current, status.Global.Hour.Max, status.Global.Hour.Remaining)
			fmt.Fprintf(w, "user/minute\t%d\t%d\t%d\n",
				status.User.Minute.Current, status.User.Minute.Max, status.User.Minute.Remaining)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "address of the running server")
	return cmd
}
