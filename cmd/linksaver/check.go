package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linksaver/internal/culler"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
		exclude     []string
		remove      bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Find dead links",
		Long: `Requests every link (HEAD, then GET) and reports the ones answering 404 or
410. Hosts in --exclude (e.g. github.com) are reported as possibly private
instead, since they answer 404 for pages that need a login.`,
		Args: cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			links, err := a.bookmarks.GetLinks(ctx)
			if err != nil {
				return err
			}
			if len(links) == 0 {
				fmt.Fprintln(a.out, "No bookmarks to check")
				return nil
			}

			results := culler.Check(ctx, links, culler.Options{
				Concurrency:    concurrency,
				Timeout:        timeout,
				ExcludeDomains: exclude,
				OnProgress: func(completed, total int) {
					fmt.Fprintf(a.errOut, "\rChecked %d/%d", completed, total)
				},
			})
			fmt.Fprintln(a.errOut)

			var healthy, unreachable int
			for _, r := range results {
				switch r.Status {
				case culler.Healthy:
					healthy++
				case culler.Dead:
					fmt.Fprintf(a.out, "dead         %-8s %s (%d)\n", r.Node.ID, r.Node.URL, r.StatusCode)
				case culler.Unreachable:
					unreachable++
					fmt.Fprintf(a.out, "unreachable  %-8s %s (%s)\n", r.Node.ID, r.Node.URL, r.Error)
				}
			}

			dead := culler.DeadLinks(results)
			fmt.Fprintf(a.out, "%d healthy, %d dead, %d unreachable\n", healthy, len(dead), unreachable)

			if !remove {
				return nil
			}
			for _, n := range dead {
				if err := a.bookmarks.Remove(ctx, n.ID); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "Removed %d dead links\n", len(dead))
			return nil
		}),
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", culler.DefaultConcurrency, "parallel requests")
	cmd.Flags().DurationVar(&timeout, "timeout", culler.DefaultTimeout, "per-request timeout")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "domains whose 404s mean private, not dead")
	cmd.Flags().BoolVar(&remove, "remove", false, "delete the dead links")
	return cmd
}
