package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/database"
	"github.com/justsurfingit/internship-tracker/internal/services"
	"github.com/spf13/cobra"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all users and jobs with demo data",
	Long: `Delete every user and job, then insert one demo account per role
(student, faculty, admin, company) and two demo jobs.

All demo accounts share the same password.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := openDB()
	if err != nil {
		return err
	}
	res, err := database.Seed(ctx, db, seedPassword, time.Now())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Inserted users:")
	for _, u := range res.Users {
		fmt.Fprintf(out, "  %-8s %-14s %s\n", u.Role, u.Name, u.Email)
	}
	fmt.Fprintln(out, "Inserted jobs:")
	for _, j := range res.Jobs {
		fmt.Fprintf(out, "  %s (%s)\n", j.Title, j.CompanyName)
	}
	pw := seedPassword
	if pw == "" {
		pw = database.DemoPassword
	}
	fmt.Fprintf(out, "Demo password: %s\n", pw)
	return nil
}

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the single admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		db, err := openDB()
		if err != nil {
			return err
		}
		svc := services.NewAuthService(db, nil, nil, nil, cfg.OTPTTL)
		user, err := svc.CreateAdmin(ctx, adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s <%s> created\n", user.Name, user.Email)
		return nil
	},
}

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export-internships",
	Short: "Write validated internships as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		db, err := openDB()
		if err != nil {
			return err
		}
		var w io.Writer = cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return services.NewExportService(db).WriteValidatedInternships(ctx, w)
	},
}

var gmailAuthCmd = &cobra.Command{
	Use:   "gmail-auth",
	Short: "Authorize the Gmail mail transport",
	Long: `Run the OAuth consent flow for the account that sends email when
MAIL_TRANSPORT=gmail, and store the resulting token in GMAIL_TOKEN_FILE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		oauthCfg, err := auth.GmailConfig(cfg.GmailCredentialsFile)
		if err != nil {
			return err
		}
		if err := auth.AuthorizeGmail(cmd.Context(), oauthCfg, cfg.GmailTokenFile, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.GmailTokenFile)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "", "Password for every demo account (default "+database.DemoPassword+")")

	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "Admin display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}
