package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/session"
)

func importCmd() *cobra.Command {
	var (
		account      string
		pollInterval time.Duration
		pollTimeout  time.Duration
		autoExecute  bool
	)

	cmd := &cobra.Command{
		Use:   "import <transactions.json>",
		Short: "Classify a batch of parsed transactions",
		Long: `Run a batch of parsed transactions through the matching pipeline.
Each transaction lands in exactly one bucket: matched, uncertain, skipped
(already in the ledger) or failed. With --auto-execute, matched rows are
confirmed as-is and written to the ledger in the same run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			transactions, err := loadParsedTransactions(args[0])
			if err != nil {
				return err
			}

			svc, store, err := newImportService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessionID := svc.ProcessImport(ctx, transactions, account)
			fmt.Printf("Started processing session %s (%d transactions)\n", sessionID, len(transactions))

			snapshot, err := pollSession(ctx, svc, sessionID, pollInterval, pollTimeout)
			if err != nil {
				return err
			}

			if snapshot.Status == session.StatusFailed {
				return fmt.Errorf("processing failed: %v", snapshot.Errors)
			}

			result, ok := snapshot.Result.(*model.ProcessResult)
			if !ok {
				return fmt.Errorf("unexpected session result type %T", snapshot.Result)
			}

			printProcessResult(result)

			if !autoExecute || len(result.Matched) == 0 {
				return nil
			}

			confirmed := make([]model.ConfirmedTransaction, 0, len(result.Matched))
			for _, processed := range result.Matched {
				confirmed = append(confirmed, model.ConfirmedTransaction{
					Transaction: processed.Transaction,
					EntityID:    processed.Match.EntityID,
					EntityName:  processed.Match.EntityName,
					EntityURL:   processed.Match.EntityURL,
				})
			}

			execID := svc.ExecuteImport(ctx, confirmed)
			fmt.Printf("Started execution session %s (%d transactions)\n", execID, len(confirmed))

			execSnapshot, err := pollSession(ctx, svc, execID, pollInterval, pollTimeout)
			if err != nil {
				return err
			}
			if execSnapshot.Status == session.StatusFailed {
				return fmt.Errorf("execution failed: %v", execSnapshot.Errors)
			}

			execResult, ok := execSnapshot.Result.(*model.ExecuteResult)
			if !ok {
				return fmt.Errorf("unexpected session result type %T", execSnapshot.Result)
			}

			printExecuteResult(execResult)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name to stamp on every transaction")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 500*time.Millisecond, "progress polling interval")
	cmd.Flags().DurationVar(&pollTimeout, "timeout", 10*time.Minute, "maximum time to wait for the job")
	cmd.Flags().BoolVar(&autoExecute, "auto-execute", false, "write matched transactions to the ledger without manual confirmation")

	return cmd
}

func printProcessResult(result *model.ProcessResult) {
	fmt.Printf("\nProcessed %d transactions:\n", result.Total())
	fmt.Printf("  matched:   %d\n", len(result.Matched))
	fmt.Printf("  uncertain: %d\n", len(result.Uncertain))
	fmt.Printf("  skipped:   %d\n", len(result.Skipped))
	fmt.Printf("  failed:    %d\n", len(result.Failed))

	for _, processed := range result.Matched {
		fmt.Printf("  ✓ %-40s → %s (%s)\n",
			processed.Transaction.Description,
			processed.Match.EntityName,
			processed.Match.MatchType)
	}
	for _, processed := range result.Uncertain {
		suggestion := processed.Suggestion
		if suggestion == "" {
			suggestion = "no suggestion"
		}
		fmt.Printf("  ? %-40s (%s)\n", processed.Transaction.Description, suggestion)
	}
	for _, processed := range result.Skipped {
		fmt.Printf("  - %-40s (%s)\n", processed.Transaction.Description, processed.SkipReason)
	}
	for _, processed := range result.Failed {
		fmt.Printf("  ✗ %-40s (%s)\n", processed.Transaction.Description, processed.Error)
	}
}

func printExecuteResult(result *model.ExecuteResult) {
	fmt.Printf("\nExecution complete: %d imported, %d failed, %d skipped\n",
		result.Imported, len(result.Failed), result.Skipped)
	for _, failure := range result.Failed {
		fmt.Printf("  ✗ %-40s (%s)\n", failure.Transaction.Transaction.Description, failure.Error)
	}
}
