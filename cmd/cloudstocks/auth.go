package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cloudstocks/internal/nav"
	"cloudstocks/internal/session"
	"cloudstocks/internal/views"
)

func newLoginCmd(opts *globalOpts) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			l := views.NewLogin(a.client, a.sess, nav.NewNavigator("/login"), a.log)
			if _, err := l.Submit(context.Background(), email, password); err != nil {
				return err
			}
			if msg := l.FormError(); msg != "" {
				return errors.New(msg)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(opts *globalOpts) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			r := views.NewRegister(a.client, a.sess, nav.NewNavigator("/register"), a.log)
			if _, err := r.Submit(context.Background(), email, password); err != nil {
				return err
			}
			if msg := r.FormError(); msg != "" {
				return errors.New(msg)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s; run login to sign in\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sess.Clear(); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if !a.sess.IsAuthenticated() {
				_, _ = fmt.Fprintln(out, "not logged in")
				return nil
			}
			who := "authenticated"
			if email, ok := a.sess.CurrentUser(); ok {
				who = email
			}
			tok, _ := a.sess.Token()
			if exp, err := session.TokenExpiry(tok); err == nil {
				_, _ = fmt.Fprintf(out, "%s (session expires %s)\n", who, humanize.Time(exp))
				return nil
			}
			_, _ = fmt.Fprintln(out, who)
			return nil
		},
	}
}
