package main

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/linksaver/internal/model"
)

// indexFlag turns an optional --index into the store's *int form.
func indexFlag(cmd *cobra.Command, index int) *int {
	if !cmd.Flags().Changed("index") {
		return nil
	}
	return model.IntPtr(index)
}

func newAddCmd(a *app) *cobra.Command {
	var (
		parent string
		index  int
	)

	cmd := &cobra.Command{
		Use:   "add <url> [title]",
		Short: "Bookmark a page",
		Long: `Adds a link. Without --parent it goes to the defaultFolder setting, or
"Other Bookmarks" if that is unset. A missing title is saved as "Untitled".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var title string
			if len(args) == 2 {
				title = args[1]
			}

			var (
				node model.Node
				err  error
			)
			if parent == "" && !cmd.Flags().Changed("index") {
				node, err = a.router.AddPage(ctx, title, args[0])
			} else {
				if title == "" {
					title = "Untitled"
				}
				node, err = a.bookmarks.Create(ctx, model.CreateDetails{
					ParentID: parent,
					Index:    indexFlag(cmd, index),
					Title:    title,
					URL:      args[0],
				})
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Added %s [%s]\n", node.Title, node.ID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "folder id to add into")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "position within the folder (default: end)")
	return cmd
}

func newMkdirCmd(a *app) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "mkdir <title>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			folder, err := a.bookmarks.CreateFolder(cmd.Context(), args[0], parent)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created folder %s [%s]\n", folder.Title, folder.ID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "folder id to create in (default: Other Bookmarks)")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var title, url string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a bookmark's title or URL",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			var changes model.Changes
			if cmd.Flags().Changed("title") {
				changes.Title = &title
			}
			if cmd.Flags().Changed("url") {
				changes.URL = &url
			}
			if changes.Title == nil && changes.URL == nil {
				return errors.New("nothing to change: pass --title and/or --url")
			}

			node, err := a.bookmarks.Update(cmd.Context(), args[0], changes)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated %s [%s]\n", node.Title, node.ID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&url, "url", "u", "", "new URL (links only)")
	return cmd
}

func newMvCmd(a *app) *cobra.Command {
	var (
		parent string
		index  int
	)

	cmd := &cobra.Command{
		Use:   "mv <id>",
		Short: "Move a bookmark or folder",
		Long: `Moves a node to --parent (default: its current folder) at --index
(default: the end). Within the same folder the index counts positions
before the node is taken out.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			if parent == "" && !cmd.Flags().Changed("index") {
				return errors.New("nothing to move: pass --parent and/or --index")
			}

			node, err := a.bookmarks.Move(cmd.Context(), args[0], model.Destination{
				ParentID: parent,
				Index:    indexFlag(cmd, index),
			})
			if err != nil {
				return err
			}

			pos := 0
			if node.Index != nil {
				pos = *node.Index
			}
			fmt.Fprintf(a.out, "Moved %s to %s at %d\n", node.Title, node.ParentID, pos)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "destination folder id")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "position within the destination")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a bookmark or folder",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var err error
			if recursive {
				err = a.bookmarks.RemoveTree(ctx, args[0])
			} else {
				err = a.bookmarks.Remove(ctx, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %s\n", args[0])
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "delete a folder with all its contents")
	return cmd
}

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a link's URL to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			node, err := a.bookmarks.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if node.IsFolder() {
				return fmt.Errorf("%s is a folder", node.Title)
			}

			if err := clipboard.WriteAll(node.URL); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Fprintf(a.out, "Copied %s\n", node.URL)
			return nil
		}),
	}
}
