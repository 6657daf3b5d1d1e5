package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linksaver/internal/syncbridge"
)

func newSyncCmd(a *app) *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Upload the bookmark tree to the companion server",
		Long: `Runs one dashboard sync: the local store is registered as the extension,
asked to download its bookmarks and post them to the server's upload
endpoint. The server must already be running (see "linksaver serve").`,
		Args: cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				endpoint = a.cfg.SyncEndpoint
			}

			uploader := syncbridge.NewUploader(a.bookmarks, endpoint, nil, a.log)
			syncbridge.Register(a.router, uploader)
			a.hub.Register(a.cfg.ExtensionID, a.router)
			defer a.hub.Unregister(a.cfg.ExtensionID)

			bridge := syncbridge.NewBridge(a.hub, a.cfg.ExtensionID, a.log)
			if err := bridge.Run(cmd.Context()); err != nil {
				resp := bridge.Response()
				if resp.Error != "" {
					a.log.Debug("sync failed", "detail", resp.Error)
				}
				return err
			}

			fmt.Fprintln(a.out, syncbridge.SuccessMessage)

			var result struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(bridge.Response().Result, &result); err == nil && result.Message != "" {
				fmt.Fprintf(a.out, "Server: %s\n", result.Message)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "upload endpoint (default from config)")
	return cmd
}
