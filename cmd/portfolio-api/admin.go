package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"portfolio-api/internal/client"
	"portfolio-api/internal/logger"

	"github.com/spf13/cobra"
)

type adminFlags struct {
	apiURL      string
	keyringDir  string
	keyringPass string
}

func newAdminCmd() *cobra.Command {
	flags := &adminFlags{}

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the admin session against a running API",
	}

	home, _ := os.UserHomeDir()
	cmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", envOr("PORTFOLIO_API_URL", "http://localhost:5000/api"), "API base URL")
	cmd.PersistentFlags().StringVar(&flags.keyringDir, "keyring-dir", filepath.Join(home, ".config", "portfolio-api"), "directory of the file keyring fallback")
	cmd.PersistentFlags().StringVar(&flags.keyringPass, "keyring-password", envOr("PORTFOLIO_KEYRING_PASSWORD", "portfolio-api"), "password of the file keyring fallback")

	cmd.AddCommand(
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newVerifyCmd(flags),
		newStatusCmd(flags),
		newListCmd(flags),
	)
	return cmd
}

func (f *adminFlags) client() (*client.Client, error) {
	ring, err := client.OpenKeyring(f.keyringDir, f.keyringPass)
	if err != nil {
		return nil, err
	}
	log := logger.New()
	session, err := client.NewSession(ring, log)
	if err != nil {
		return nil, err
	}
	return client.New(f.apiURL, session, log), nil
}

func newLoginCmd(flags *adminFlags) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			c, err := flags.client()
			if err != nil {
				return err
			}
			if err := c.Session().Login(cmd.Context(), email, password); err != nil {
				return err
			}

			if profile := c.Session().Admin(); profile != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", profile.Name, profile.Email)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", os.Getenv("ADMIN_EMAIL"), "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default $ADMIN_PASSWORD)")
	return cmd
}

func newLogoutCmd(flags *adminFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}
			if err := c.Session().Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newVerifyCmd(flags *adminFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the stored token with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}
			if !c.Session().VerifyToken(cmd.Context()) {
				return errors.New("not logged in or session expired")
			}
			if profile := c.Session().Admin(); profile != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Token valid for %s <%s>\n", profile.Name, profile.Email)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token valid")
			return nil
		},
	}
}

func newStatusCmd(flags *adminFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}
			session := c.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "State: %s\n", session.State())
			if profile := session.Admin(); profile != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin: %s <%s>\n", profile.Name, profile.Email)
			}
			return nil
		},
	}
}

func newListCmd(flags *adminFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List content, including drafts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "blogs",
		Short: "List every blog post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}
			blogs, err := c.ListAllBlogs(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tPUBLISHED\tVIEWS\tTITLE")
			for _, b := range blogs {
				fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\n", b.ID, b.Slug, b.Published, b.Views, b.Title.EN)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "projects",
		Short: "List every project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}
			projects, err := c.ListAllProjects(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tORDER\tPUBLISHED\tCATEGORY\tTITLE")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%d\t%t\t%s\t%s\n", p.ID, p.Order, p.Published, p.Category, p.Title.EN)
			}
			return w.Flush()
		},
	})

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
