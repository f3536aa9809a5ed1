package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/UniQw/backupq/internal/api"
	"github.com/spf13/cobra"
)

func (a *app) client() *api.Client {
	return api.NewClient(a.apiURL, nil)
}

func newEnqueueCmd(a *app) *cobra.Command {
	var req api.EnqueueRequest
	cmd := &cobra.Command{
		Use:   "enqueue FILE",
		Short: "Queue a backup file for upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			req.Data = data
			if req.Name == "" {
				req.Name = filepath.Base(args[0])
			}
			if req.ContentType == "" {
				req.ContentType = mime.TypeByExtension(filepath.Ext(args[0]))
			}
			res, err := a.client().Enqueue(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.ID)
			if !res.Persisted {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: upload is queued in memory only and will not survive a restart")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Endpoint, "endpoint", "", "Upload endpoint URL")
	cmd.Flags().StringVar(&req.FolderID, "folder-id", "", "Remote folder ID (bucket for the S3 uploader)")
	cmd.Flags().StringVar(&req.NotifyEmail, "email", "", "Address to notify on completion")
	cmd.Flags().IntVar(&req.MaxRetries, "max-retries", 0, "Total attempts before giving up (default from the daemon)")
	cmd.Flags().StringVar(&req.ID, "id", "", "Explicit upload ID")
	cmd.Flags().StringVar(&req.Name, "name", "", "Remote file name (default: base name of FILE)")
	cmd.Flags().StringVar(&req.ContentType, "content-type", "", "MIME type (default: guessed from the extension)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, res)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSIZE\tATTEMPTS\tNEXT RETRY\tLAST ERROR")
			for _, u := range res.Uploads {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\t%s\t%s\n",
					u.ID, u.Name, u.Size, u.Attempts, u.MaxRetries, u.NextRetryAt.Local().Format(time.DateTime), u.LastError)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue state and the last upload outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client().Status(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, st)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "online:       %t\n", st.Queue.IsOnline)
			fmt.Fprintf(out, "queued:       %d\n", st.Queue.QueueLength)
			fmt.Fprintf(out, "processing:   %t\n", st.Queue.IsProcessing)
			if !st.Queue.LastCheckedAt.IsZero() {
				fmt.Fprintf(out, "last checked: %s\n", st.Queue.LastCheckedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintf(out, "last upload:  %s (%s)\n", st.LastUpload.Outcome, st.LastUpload.Message)
			if !st.LastUpload.LastUploadAt.IsZero() {
				fmt.Fprintf(out, "finished at:  %s\n", st.LastUpload.LastUploadAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a queued upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "queue cleared")
			return nil
		},
	}
}

func newProcessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Run a processing cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ran, err := a.client().Process(cmd.Context())
			if err != nil {
				return err
			}
			if ran {
				fmt.Fprintln(cmd.OutOrStdout(), "processing cycle completed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "processing skipped (offline, empty or already running)")
			}
			return nil
		},
	}
}

func newConnectivityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "connectivity online|offline",
		Short:     "Report a network change to the daemon",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"online", "offline"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client().SetOnline(cmd.Context(), args[0] == "online")
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
