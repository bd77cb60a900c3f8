package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aussiebroadwan/dpquery/internal/analyst"
	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/spf13/cobra"
)

func (c *cli) analyzeCmd() *cobra.Command {
	valid := append(slices.Clone(analyst.Analyses), analyst.AnalysisAll)

	return &cobra.Command{
		Use:       "analyze [revenue|count|longtail|fingerprint|differencing|all]",
		Short:     "Compare exact and private answers",
		ValidArgs: valid,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := analyst.AnalysisAll
			if len(args) == 1 {
				name = args[0]
			}

			if err := c.analyst().Run(cmd.Context(), name); err != nil {
				return c.fail(err)
			}
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write exact and private revenue and counts as CSV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := c.analyst().Export(cmd.Context(), out)
			if err != nil {
				return c.fail(err)
			}
			for _, p := range paths {
				fmt.Fprintln(c.stdout, p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", ".", "Directory to write the CSV files to")
	return cmd
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server's liveness and readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			live, err := c.client.GetLiveness(ctx)
			if err != nil {
				return c.fail(err)
			}

			ready, readyErr := c.client.GetReadiness(ctx)
			if readyErr != nil && !errors.Is(readyErr, dpsdk.ErrNotReady) {
				return c.fail(readyErr)
			}

			if err := analyst.WriteHealth(c.stdout, live, ready); err != nil {
				return err
			}
			if readyErr != nil {
				return c.fail(readyErr)
			}
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var (
		limit  int
		before string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent queries the server answered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.client.RecentQueriesBefore(cmd.Context(), limit, before)
			if err != nil {
				return c.fail(err)
			}
			return analyst.WriteHistory(c.stdout, entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show")
	cmd.Flags().StringVar(&before, "before", "", "Only show queries older than this query ID")
	return cmd
}

func (c *cli) policyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Show the epsilon the server spends per query type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.client.Policy(cmd.Context())
			if err != nil {
				return c.fail(err)
			}
			return analyst.WritePolicy(c.stdout, p)
		},
	}
}
