package cmd

import (
	"context"

	coreconfig "github.com/AzielCF/az-pricing/core/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the pricing tables schema and exit",
	RunE:  runMigrations,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrations(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logrus.Infof("[MIGRATION] Migrating %s database %s...", coreconfig.Global.Database.Driver, coreconfig.Global.Database.Name)

	db, _, err := openStore(ctx, coreconfig.Global)
	if err != nil {
		return err
	}
	closeDB(db)

	logrus.Info("[MIGRATION] Pricing schema is up to date.")
	return nil
}
