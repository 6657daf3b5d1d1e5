package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cli/browser"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/linksaver/internal/model"
	"github.com/nikbrunner/linksaver/internal/picker"
	"github.com/nikbrunner/linksaver/internal/search"
)

func printTree(w io.Writer, nodes []model.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch {
		case n.ID == model.RootID:
			printTree(w, n.Children, depth)
		case n.IsFolder():
			fmt.Fprintf(w, "%s%s/ [%s]\n", indent, n.Title, n.ID)
			printTree(w, n.Children, depth+1)
		default:
			fmt.Fprintf(w, "%s%s <%s> [%s]\n", indent, n.Title, n.URL, n.ID)
		}
	}
}

func printLinks(w io.Writer, nodes []model.Node) {
	for _, n := range nodes {
		if n.IsFolder() {
			fmt.Fprintf(w, "%-8s %s/\n", n.ID, n.Title)
			continue
		}
		fmt.Fprintf(w, "%-8s %s\n         %s\n", n.ID, n.Title, n.URL)
	}
}

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the whole bookmark tree",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			tree, err := a.bookmarks.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			printTree(a.out, tree, 0)
			return nil
		}),
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [folder-id]",
		Short: "List a folder's children, or every link when no folder is given",
		Long: `Without an argument every link is listed in the order chosen by the
sortBy setting (dateAdded, title or url).`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 1 {
				children, err := a.bookmarks.GetChildren(ctx, args[0])
				if err != nil {
					return err
				}
				printLinks(a.out, children)
				return nil
			}

			links, err := a.bookmarks.GetLinks(ctx)
			if err != nil {
				return err
			}
			model.SortNodes(links, a.settings.Load(ctx).SortBy)
			printLinks(a.out, links)
			return nil
		}),
	}
}

func newRecentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recent [n]",
		Short: "Show the most recently added links",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			limit := a.settings.Load(ctx).MaxRecentBookmarks
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid count %q: must be a positive number", args[0])
				}
				limit = n
			}

			recent, err := a.bookmarks.GetRecent(ctx, limit)
			if err != nil {
				return err
			}
			printLinks(a.out, recent)
			return nil
		}),
	}
}

func newFoldersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List every folder",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			folders, err := a.bookmarks.GetFolders(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range folders {
				if f.ID == model.RootID {
					continue
				}
				fmt.Fprintf(a.out, "%-8s %s (%d items)\n", f.ID, f.Title, len(f.Children))
			}
			return nil
		}),
	}
}

func newSitesCmd(a *app) *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Group links by website",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			links, err := a.bookmarks.GetLinks(cmd.Context())
			if err != nil {
				return err
			}

			groups, err := model.FilterGroups(model.GroupByDomain(links), match)
			if err != nil {
				return fmt.Errorf("invalid match pattern: %w", err)
			}
			for _, g := range groups {
				fmt.Fprintf(a.out, "%-40s %d\n", g.Domain, g.Count)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&match, "match", "m", "", "only domains matching this glob, e.g. '*.github.com'")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find links whose title or URL contain every word of the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			results, err := a.bookmarks.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(a.out, "No bookmarks found for '%s'\n", query)
				return nil
			}
			printLinks(a.out, results)
			return nil
		}),
	}
}

func newFindCmd(a *app) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy search, pick a link and open it in the browser",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			tree, err := a.bookmarks.GetAll(cmd.Context())
			if err != nil {
				return err
			}

			results := search.Fuzzy(tree, query)
			if len(results) == 0 {
				fmt.Fprintf(a.out, "No bookmarks found for '%s'\n", query)
				return nil
			}

			var selected model.Node
			if len(results) == 1 || printOnly {
				selected = results[0].Node
			} else {
				p := picker.New(results, query)
				finalModel, err := tea.NewProgram(p).Run()
				if err != nil {
					return fmt.Errorf("running picker: %w", err)
				}
				var ok bool
				selected, ok = finalModel.(picker.Picker).Selected()
				if !ok {
					return nil
				}
			}

			if printOnly {
				fmt.Fprintln(a.out, selected.URL)
				return nil
			}

			fmt.Fprintf(a.out, "Opening: %s\n", selected.Title)
			return browser.OpenURL(selected.URL)
		}),
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the best match's URL instead of opening it")
	return cmd
}
