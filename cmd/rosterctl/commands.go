package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	xerrors "primefit-service/internal/pkg/errors"
	customersvc "primefit-service/internal/service/customer"

	"github.com/spf13/cobra"
)

// opener loads the customer service for one command run.
type opener func(ctx context.Context) (*customersvc.CustomerService, func(), error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "Maintain the PrimeFit Studio customer roster",
		Long: `Maintain the customer roster stored by the PrimeFit service.

Storage is selected with the same environment variables as the server
(STORAGE_DRIVER, REDIS_ADDR, POSTGRES_URL, SQLITE_PATH, STORAGE_KEY_PREFIX).`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newExportCmd(open),
		newImportCmd(open),
		newResetCmd(open),
		newClearCmd(open),
		newStatsCmd(open),
	)
	return root
}

// withService opens the roster, runs fn and releases the storage. A command
// whose writes did not reach storage fails.
func withService(cmd *cobra.Command, open opener, fn func(ctx context.Context, svc *customersvc.CustomerService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := fn(ctx, svc); err != nil {
		return err
	}
	if svc.Roster().Degraded() {
		return fmt.Errorf("%w: changes were not saved", xerrors.ErrPersistenceUnavailable)
	}
	return nil
}

func newExportCmd(open opener) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup document",
		Long:  "Write the roster backup document to a file, or to stdout with -o -.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *customersvc.CustomerService) error {
				data, filename, err := svc.Export(ctx)
				if err != nil {
					return err
				}
				if output == "-" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if output == "" {
					output = filename
				}
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported roster to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default gym-customers-<date>.json, - for stdout)")
	return cmd
}

func newImportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the roster with a backup document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withService(cmd, open, func(ctx context.Context, svc *customersvc.CustomerService) error {
				result, err := svc.Import(ctx, data)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Message)
				return nil
			})
		},
	}
}

func newResetCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *customersvc.CustomerService) error {
				stats := svc.Reset(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "roster reset to defaults (%d customers)\n", stats.Total)
				return nil
			})
		},
	}
}

func newClearCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every customer except the admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *customersvc.CustomerService) error {
				removed := svc.Clear(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d customers\n", removed)
				return nil
			})
		},
	}
}

func newStatsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print roster statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *customersvc.CustomerService) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(svc.GetCustomerStats(ctx))
			})
		},
	}
}
