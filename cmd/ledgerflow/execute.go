package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/session"
)

func executeCmd() *cobra.Command {
	var (
		pollInterval time.Duration
		pollTimeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "execute <confirmed.json>",
		Short: "Write confirmed transactions to the ledger",
		Long: `Write a list of confirmed transactions to the external ledger, one at a
time with a pause between writes. A failed write is recorded and the rest of
the batch proceeds; re-run with the failed subset to retry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			transactions, err := loadConfirmedTransactions(args[0])
			if err != nil {
				return err
			}

			svc, store, err := newImportService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessionID := svc.ExecuteImport(ctx, transactions)
			fmt.Printf("Started execution session %s (%d transactions)\n", sessionID, len(transactions))

			snapshot, err := pollSession(ctx, svc, sessionID, pollInterval, pollTimeout)
			if err != nil {
				return err
			}
			if snapshot.Status == session.StatusFailed {
				return fmt.Errorf("execution failed: %v", snapshot.Errors)
			}

			result, ok := snapshot.Result.(*model.ExecuteResult)
			if !ok {
				return fmt.Errorf("unexpected session result type %T", snapshot.Result)
			}

			printExecuteResult(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 500*time.Millisecond, "progress polling interval")
	cmd.Flags().DurationVar(&pollTimeout, "timeout", 30*time.Minute, "maximum time to wait for the job")

	return cmd
}
