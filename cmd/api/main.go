package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/pkg/auth"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "clinic-api",
		Short:        "Clinic visit scheduling API",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: ./, ./config, /app/config)")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(tokenCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("migrate needs the postgres driver, configured %q", cfg.Database.Driver)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			db, err := postgres.NewDB(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			log.Info().Str("database", cfg.Database.Name).Msg("schema applied")
			return nil
		},
	}
}

// tokenCmd issues a bearer token signed with the configured secret. There is
// no login endpoint; operators hand these out.
func tokenCmd(configPath *string) *cobra.Command {
	var (
		subject   string
		role      string
		doctorID  string
		patientID string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			actor := model.Actor{Subject: subject, Role: model.Role(role)}
			switch actor.Role {
			case model.RoleAdmin, model.RoleStaff, model.RoleDoctor, model.RolePatient:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if doctorID != "" {
				if actor.DoctorID, err = uuid.Parse(doctorID); err != nil {
					return fmt.Errorf("invalid --doctor-id: %w", err)
				}
			}
			if patientID != "" {
				if actor.PatientID, err = uuid.Parse(patientID); err != nil {
					return fmt.Errorf("invalid --patient-id: %w", err)
				}
			}

			token, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL).GenerateAccessToken(actor)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "actor subject recorded in audit columns")
	cmd.Flags().StringVar(&role, "role", string(model.RoleStaff), "admin, staff, doctor or patient")
	cmd.Flags().StringVar(&doctorID, "doctor-id", "", "doctor record the actor acts as")
	cmd.Flags().StringVar(&patientID, "patient-id", "", "patient record the actor acts as")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
