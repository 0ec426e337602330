package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/config"
	"github.com/ledgerflow/ledgerflow/internal/model"
)

func entitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage the entity directory",
		Long: `View and manage the directory of known counterparties that the
matching waterfall resolves transactions against.`,
	}

	cmd.AddCommand(entitiesListCmd())
	cmd.AddCommand(entitiesAddCmd())
	cmd.AddCommand(entitiesDeleteCmd())

	return cmd
}

func entitiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known entities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entities, err := store.ListEntities(ctx)
			if err != nil {
				return err
			}

			if len(entities) == 0 {
				fmt.Println("No entities yet.")
				return nil
			}

			fmt.Printf("%-36s %-25s %-30s %s\n", "ID", "NAME", "ALIASES", "CATEGORY")
			for _, entity := range entities {
				fmt.Printf("%-36s %-25s %-30s %s\n",
					entity.ID, entity.Name, entity.Aliases, entity.DefaultCategory)
			}
			return nil
		},
	}
}

func entitiesAddCmd() *cobra.Command {
	var (
		aliases  string
		url      string
		category string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an entity to the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entity := &model.Entity{
				Name:            args[0],
				Aliases:         aliases,
				URL:             url,
				DefaultCategory: category,
			}
			if err := store.SaveEntity(ctx, entity); err != nil {
				return err
			}

			fmt.Printf("Saved entity %s (%s)\n", entity.Name, entity.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&aliases, "aliases", "", "comma-separated alternate names")
	cmd.Flags().StringVar(&url, "url", "", "ledger page URL for the entity")
	cmd.Flags().StringVar(&category, "category", "", "default classification hint")

	return cmd
}

func entitiesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteEntity(ctx, args[0]); err != nil {
				return err
			}

			fmt.Printf("Deleted entity %s\n", args[0])
			return nil
		},
	}
}
