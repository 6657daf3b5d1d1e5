package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linksaver/internal/exporter"
	"github.com/nikbrunner/linksaver/internal/importer"
	"github.com/nikbrunner/linksaver/internal/model"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [json|html] [path]",
		Short: "Export bookmarks to a file",
		Long: `Writes the tree as JSON or Netscape bookmark HTML (default html). Without a
path the file goes to ~/Downloads/bookmarks-export-YYYY-MM-DD.<format>.`,
		Args: cobra.MaximumNArgs(2),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			format := exporter.FormatHTML
			if len(args) >= 1 {
				f, err := exporter.ParseFormat(args[0])
				if err != nil {
					return err
				}
				format = f
			}

			dl, err := a.bookmarks.Export(cmd.Context(), format, a.htmlOptions())
			if err != nil {
				return err
			}

			var outputPath string
			if len(args) == 2 {
				outputPath = args[1]
			} else {
				outputPath, err = exporter.DefaultExportPath(format, time.Now())
				if err != nil {
					return fmt.Errorf("getting default export path: %w", err)
				}
			}

			if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, dl.Data, 0644); err != nil {
				return fmt.Errorf("writing file: %w", err)
			}

			tree, err := a.bookmarks.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			nodes := model.Flatten(tree)
			fmt.Fprintf(a.out, "Exported %d bookmarks, %d folders to %s\n",
				len(model.Links(nodes)), len(model.Folders(nodes))-1, outputPath)
			return nil
		}),
	}
}

func newImportCmd(a *app) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "import <file.html>",
		Short: "Import bookmarks from a Netscape HTML export",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer file.Close()

			nodes, err := importer.ParseHTML(file)
			if err != nil {
				return fmt.Errorf("parsing HTML: %w", err)
			}

			added, err := a.bookmarks.Import(cmd.Context(), parent, nodes)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Imported %d bookmarks and folders\n", added)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "folder id to import into (default: Other Bookmarks)")
	return cmd
}
