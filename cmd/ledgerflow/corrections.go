package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/config"
	"github.com/ledgerflow/ledgerflow/internal/match"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
)

func correctionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corrections",
		Short: "Manage learned description corrections",
		Long: `View and manage the learned patterns that map transaction descriptions
to entities. Corrections outrank every other matching stage.`,
	}

	cmd.AddCommand(correctionsListCmd())
	cmd.AddCommand(correctionsAddCmd())
	cmd.AddCommand(correctionsAdjustCmd())
	cmd.AddCommand(correctionsDeleteCmd())

	return cmd
}

func correctionsListCmd() *cobra.Command {
	var (
		minConfidence float64
		limit         int
		offset        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned corrections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			corrections, err := store.ListCorrections(ctx, service.CorrectionFilter{
				MinConfidence: minConfidence,
				Limit:         limit,
				Offset:        offset,
			})
			if err != nil {
				return err
			}

			if len(corrections) == 0 {
				fmt.Println("No corrections yet.")
				return nil
			}

			fmt.Printf("%-5s %-40s %-10s %-25s %-6s %s\n", "ID", "PATTERN", "TYPE", "ENTITY", "CONF", "USED")
			for _, c := range corrections {
				fmt.Printf("%-5d %-40s %-10s %-25s %-6.2f %d\n",
					c.ID, c.Pattern, c.MatchType, c.EntityName, c.Confidence, c.TimesApplied)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "only show corrections at or above this confidence")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	return cmd
}

func correctionsAddCmd() *cobra.Command {
	var (
		matchType  string
		entityID   string
		confidence float64
	)

	cmd := &cobra.Command{
		Use:   "add <pattern> <entity-name>",
		Short: "Add or update a correction",
		Long: `Record that descriptions matching the pattern belong to the given
entity. Re-adding an existing (pattern, match-type) pair updates it in place.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			correction := &model.Correction{
				Pattern:    match.Normalize(args[0]),
				MatchType:  model.CorrectionMatchType(matchType),
				EntityID:   entityID,
				EntityName: args[1],
				Confidence: confidence,
			}

			saved, err := store.UpsertCorrection(ctx, correction)
			if err != nil {
				return err
			}

			fmt.Printf("Saved correction %d: %q (%s) → %s (confidence %.2f)\n",
				saved.ID, saved.Pattern, saved.MatchType, saved.EntityName, saved.Confidence)
			return nil
		},
	}

	cmd.Flags().StringVar(&matchType, "match-type", string(model.CorrectionExact), "pattern match type (exact, contains)")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "directory id of the entity")
	cmd.Flags().Float64Var(&confidence, "confidence", 1.0, "initial confidence")

	return cmd
}

func correctionsAdjustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjust <id> <delta>",
		Short: "Nudge a correction's confidence",
		Long: `Adjust a correction's confidence by delta (e.g. 0.1 or -0.2). A
correction driven below the minimum confidence is deleted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid correction id %q", args[0])
			}
			delta, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[1])
			}

			store, err := openStorage(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			correction, err := store.AdjustCorrectionConfidence(ctx, id, delta)
			if err != nil {
				return err
			}
			if correction == nil {
				fmt.Printf("Correction %d fell below confidence %.1f and was deleted\n", id, model.MinCorrectionConfidence)
				return nil
			}

			fmt.Printf("Correction %d confidence is now %.2f\n", correction.ID, correction.Confidence)
			return nil
		},
	}
}

func correctionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a correction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid correction id %q", args[0])
			}

			store, err := openStorage(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteCorrection(ctx, id); err != nil {
				return err
			}

			fmt.Printf("Deleted correction %d\n", id)
			return nil
		},
	}
}
