package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ridelink/config"
	"ridelink/notify"
	"ridelink/services"
	"ridelink/store"
	"ridelink/utils"
)

const serviceName = "ridelink"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app is what every subcommand works with once config is loaded.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func rootCmd() *cobra.Command {
	var (
		cfgPath string
		a       app
	)
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Campus ride-sharing marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "cannot load config:", err)
				return err
			}
			a.cfg = cfg
			a.log = utils.NewLogger(os.Stdout, serviceName, cfg.Log.Level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yml", "path to the YAML config file")

	root.AddCommand(
		serveCmd(&a),
		migrateCmd(&a),
		createAdminCmd(&a),
		recomputeRatingsCmd(&a),
		seedCmd(&a),
	)
	return root
}

// connect opens the database and brings the schema up to date.
func (a *app) connect() (*gorm.DB, func(), error) {
	db, err := config.ConnectDatabase(a.cfg.Database, a.log)
	if err != nil {
		a.log.Error("cannot create connection to db", "action", "connect to db", "error", err)
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := store.Migrate(db); err != nil {
		closeDB()
		a.log.Error("migration failed", "action", "migrate", "error", err)
		return nil, nil, err
	}
	return db, closeDB, nil
}

// services builds the service layer; n may be nil for offline commands.
func (a *app) services(db *gorm.DB, n notify.Notifier) (*services.Services, *utils.TokenService, error) {
	ttl, err := a.cfg.TokenTTL()
	if err != nil {
		return nil, nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	tokens := utils.NewTokenService(a.cfg.Auth.JWTSecret, ttl)
	svc := services.New(services.Deps{
		DB:       db,
		Log:      a.log,
		Notifier: n,
		Validate: utils.NewValidator(a.cfg.Auth.EmailSuffix),
		Location: loc,
	}, tokens, utils.LogSender{Logger: a.log})
	return svc, tokens, nil
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, closeDB, err := a.connect()
			if err != nil {
				return err
			}
			defer closeDB()
			a.log.Info("schema up to date", "action", "migrate")
			return nil
		},
	}
}

func createAdminCmd(a *app) *cobra.Command {
	var in services.AdminInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Provision an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := a.connect()
			if err != nil {
				return err
			}
			defer closeDB()
			svc, _, err := a.services(db, nil)
			if err != nil {
				return err
			}
			admin, err := svc.Auth.CreateAdmin(cmd.Context(), in)
			if err != nil {
				a.log.Error("cannot create admin", "action", "create admin", "email", in.Email, "error", err)
				return err
			}
			a.log.Info("admin created", "action", "create admin", "user_id", admin.ID, "email", admin.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.Email, "email", "", "login email")
	f.StringVar(&in.Password, "password", "", "login password")
	f.StringVar(&in.Phone, "phone", "", "phone number (+92...)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func recomputeRatingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-ratings",
		Short: "Rebuild every user's rating summaries from stored reviews",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := a.connect()
			if err != nil {
				return err
			}
			defer closeDB()
			svc, _, err := a.services(db, nil)
			if err != nil {
				return err
			}
			n, err := svc.Ratings.RecomputeAll(cmd.Context())
			if err != nil {
				a.log.Error("rating repair failed", "action", "recompute ratings", "users", n, "error", err)
				return err
			}
			a.log.Info("ratings recomputed", "action", "recompute ratings", "users", n)
			return nil
		},
	}
}

func seedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo accounts and rides for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := a.connect()
			if err != nil {
				return err
			}
			defer closeDB()
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}
			n, err := store.SeedDemo(cmd.Context(), db, time.Now(), loc)
			if err != nil {
				a.log.Error("seed failed", "action", "seed", "error", err)
				return err
			}
			a.log.Info("demo data seeded", "action", "seed", "created", n, "password", store.DemoPassword)
			return nil
		},
	}
}
