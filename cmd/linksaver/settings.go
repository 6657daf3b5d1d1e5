package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linksaver/internal/model"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change bookmark settings",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			return printSettings(a, a.settings.Load(cmd.Context()))
		}),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current settings as JSON",
			Args:  cobra.NoArgs,
			RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
				return printSettings(a, a.settings.Load(cmd.Context()))
			}),
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting",
			Long: `Keys: showBookmarkBar (true|false), sortBy (dateAdded|title|url),
maxRecentBookmarks (number), defaultFolder (folder id, empty to reset).`,
			Args: cobra.ExactArgs(2),
			RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
				patch, err := parsePatch(args[0], args[1])
				if err != nil {
					return err
				}
				saved, err := a.settings.Save(cmd.Context(), patch)
				if err != nil {
					return err
				}
				return printSettings(a, saved)
			}),
		},
	)

	return cmd
}

func printSettings(a *app, s model.Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}

// parsePatch turns a key/value pair from the command line into a patch.
func parsePatch(key, value string) (model.SettingsPatch, error) {
	var p model.SettingsPatch

	switch key {
	case "showBookmarkBar":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return p, fmt.Errorf("showBookmarkBar: %q is not true or false", value)
		}
		p.ShowBookmarkBar = &b
	case "sortBy":
		order := model.SortOrder(value)
		p.SortBy = &order
	case "maxRecentBookmarks":
		n, err := strconv.Atoi(value)
		if err != nil {
			return p, fmt.Errorf("maxRecentBookmarks: %q is not a number", value)
		}
		p.MaxRecentBookmarks = &n
	case "defaultFolder":
		p.DefaultFolder = &value
	default:
		return p, fmt.Errorf("unknown setting %q", key)
	}

	return p, nil
}
