package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ptm/backend/internal/app"
	"ptm/backend/internal/config"
	"ptm/backend/internal/storage"
)

func openRuntime() (*app.Runtime, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cfg, err
	}
	// One-shot commands write synchronously.
	rt, err := app.Open(cfg, app.Options{SaveDelay: -1})
	return rt, cfg, err
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, lock, err := app.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			defer lock.Unlock()
			defer database.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied successfully")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of all tasks, projects, tags and settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			data, err := rt.Export()
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			raw, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return fmt.Errorf("encode export: %w", err)
			}

			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			if err := os.WriteFile(out, append(raw, '\n'), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d tasks to %s\n", len(data.Tasks), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	var (
		strategy string
		strict   bool
	)
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Restore a backup written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			rt, _, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			opts := storage.ImportOptions{Strategy: storage.Strategy(strategy), Strict: strict}
			if err := rt.Import(raw, opts); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks, %d projects, %d tags\n",
				len(rt.Tasks.List()), len(rt.Projects.List()), len(rt.Tags.List()))
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", string(storage.StrategyOverwrite), "overwrite or merge")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject backups with warnings")
	return cmd
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show storage usage for the configured namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cfg, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "namespace: %s\nused: %d bytes\navailable: %d bytes\n",
				rt.Gateway.Namespace(), rt.Gateway.UsedSpace(), rt.Gateway.AvailableSpace(cfg.CapacityBytes))
			return nil
		},
	}
}
