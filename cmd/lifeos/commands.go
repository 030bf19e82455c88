package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sandeepkv93/lifeos/internal/model"
	"github.com/sandeepkv93/lifeos/internal/syncer"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a dated JSON backup of focus, tasks, book and links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := openOptions{headless: true}
			if dir != "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				opts.exportDir = abs
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.sync.Export()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory for the backup file (default export_dir from config)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a JSON backup into the local state",
		Long: `Merge a backup document into the local state.

Only the fields present in the document are replaced. When cloud auto-sync is
on, the merged state is pushed before the command exits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), openOptions{headless: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sync.ImportFile(args[0]); err != nil {
				return err
			}
			if err := a.sync.Flush(cmd.Context()); err != nil {
				return fmt.Errorf("imported locally, cloud push failed: %w", err)
			}
			done, total := a.store.TaskStats()
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d/%d tasks done)\n", args[0], done, total)
			return nil
		},
	}
}

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Replace the cloud document with the local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), openOptions{headless: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sync.ForceSave(cmd.Context()); err != nil {
				return explainSync(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed to %s\n", a.sync.Info().BinID)
			return nil
		},
	}
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Merge the cloud document into the local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), openOptions{headless: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sync.ForceLoad(cmd.Context()); err != nil {
				return explainSync(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pulled from %s\n", a.sync.Info().BinID)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local state summary and cloud connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), openOptions{headless: true})
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.store.Snapshot()
			done, total := a.store.TaskStats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "store:   %s\n", a.cfg.StoreBackend)
			fmt.Fprintf(out, "focus:   %s\n", orDash(snap.DailyFocus))
			fmt.Fprintf(out, "tasks:   %d/%d done\n", done, total)
			if snap.Book != nil {
				fmt.Fprintf(out, "reading: %s (%d/%d, %d%%)\n", snap.Book.Title, snap.Book.CurrentPage, snap.Book.TotalPages, snap.Book.Progress())
			} else {
				fmt.Fprintln(out, "reading: -")
			}
			fmt.Fprintf(out, "links:   %d\n", len(snap.Links))

			info := a.sync.Info()
			if !info.Connected {
				fmt.Fprintln(out, "cloud:   not connected")
				return nil
			}
			fmt.Fprintf(out, "cloud:   %s (key %s, auto-sync %v)\n", info.BinID, info.MaskedKey, info.AutoSync)
			return nil
		},
	}
}

func newConnectCmd() *cobra.Command {
	var cfg model.CloudConfig
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Save cloud credentials and pull the remote document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Enabled() {
				return errors.New("--bin and --key are required")
			}
			a, err := openApp(cmd.Context(), openOptions{headless: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sync.SetCloudConfig(cmd.Context(), cfg); err != nil {
				return explainSync(err)
			}
			info := a.sync.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "connected to %s (key %s, auto-sync %v)\n", info.BinID, info.MaskedKey, info.AutoSync)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BinID, "bin", "", "remote document id")
	cmd.Flags().StringVar(&cfg.APIKey, "key", "", "api key for the document store")
	cmd.Flags().BoolVar(&cfg.AutoSync, "auto", false, "push changes automatically after a short debounce")
	return cmd
}

func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget cloud credentials and work locally only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), openOptions{headless: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sync.Disconnect(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cloud sync disconnected")
			return nil
		},
	}
}

func explainSync(err error) error {
	if errors.Is(err, syncer.ErrNotConnected) {
		return errors.New("cloud sync is not configured, run: lifeos connect --bin <id> --key <key>")
	}
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
