package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fekuna/marketplace-catalog-service/config"
	catRepoPkg "github.com/fekuna/marketplace-catalog-service/internal/category/repository"
	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
	varRepoPkg "github.com/fekuna/marketplace-catalog-service/internal/variant/repository"
	varUCPkg "github.com/fekuna/marketplace-catalog-service/internal/variant/usecase"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Operate the catalog database and variant matrices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd())
	root.AddCommand(syncCmd("preview", "Show what a variant sync would change without writing", true))
	root.AddCommand(syncCmd("sync", "Synchronize a product's variants with its matrix", false))
	return root
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadEnv()
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.Migrate(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func syncCmd(use, short string, dryRun bool) *cobra.Command {
	var productID, sellerID, policy string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadEnv()
			configured, err := matrix.ParseDeletePolicy(cfg.Variant.DeletePolicy)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v, using restrict\n", err)
				configured = matrix.DeleteRestrict
			}
			var override matrix.DeletePolicy
			if policy != "" {
				if override, err = matrix.ParseDeletePolicy(policy); err != nil {
					return err
				}
			}

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			syncer := varUCPkg.NewSynchronizer(
				database.NewTxManager(db, cfg.Database.LockTimeout),
				varRepoPkg.NewPGRepository(db),
				catRepoPkg.NewPGRepository(db),
				varUCPkg.Config{
					MaxCombinations: cfg.Variant.MaxCombinations,
					NameSeparator:   cfg.Variant.NameSeparator,
					DeletePolicy:    configured,
					LockTTL:         cfg.Variant.LockTTL,
				},
				logger.NewNop(),
			)
			res, err := syncer.Run(cmd.Context(), productID, variant.SyncOptions{
				SellerID: sellerID,
				Policy:   override,
				DryRun:   dryRun,
			}, nil)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&productID, "product", "p", "", "product id")
	cmd.Flags().StringVar(&sellerID, "seller", "", "only touch the product if this seller owns it")
	cmd.Flags().StringVar(&policy, "policy", "", "delete policy for variants leaving the matrix (restrict, archive)")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func openDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	return database.Open(ctx, &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		SQLitePath:      cfg.Database.SQLitePath,
	})
}

func printResult(w io.Writer, res *variant.SyncResult) {
	p := res.Plan
	state := "preview"
	if res.Committed {
		state = "committed"
	}
	fmt.Fprintf(w, "product %s (%s): %d combination(s)\n", res.ProductID, state, p.Combinations)
	for _, v := range p.Create {
		fmt.Fprintf(w, "  + %s\n", v.Name)
	}
	for _, r := range p.Retain {
		if r.Renamed {
			fmt.Fprintf(w, "  ~ %s -> %s\n", r.Variant.VariantName, r.Name)
		}
	}
	for _, v := range p.Delete {
		fmt.Fprintf(w, "  - %s\n", v.VariantName)
	}
	for _, v := range p.Archive {
		fmt.Fprintf(w, "  x %s (archived)\n", v.VariantName)
	}
	for _, id := range res.AtRisk {
		fmt.Fprintf(w, "  ! %s is still referenced by orders or carts\n", id)
	}
}
