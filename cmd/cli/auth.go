package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/infrastructure/auth"
)

var errNotLoggedIn = errors.New("not logged in")

func loginCmd(c *cli) *cobra.Command {
	var (
		user   string
		token  string
		secret string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the acting user (and API token) locally",
		Long: `Store the acting user in the session file. With --token the given JWT is used
for API calls; with --secret a token is signed locally with the server's JWT secret.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidateName(user); err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			if token != "" && secret != "" {
				return errors.New("use either --token or --secret, not both")
			}

			if secret != "" {
				signed, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{
					ID:   user,
					Name: user,
					Role: domain.Role(role),
				})
				if err != nil {
					return err
				}
				token = signed
			}

			sess := &Session{User: user, Token: token, CreatedAt: c.now().UTC()}
			if err := saveSession(c.sessionPath, sess); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Acting user")
	cmd.Flags().StringVar(&token, "token", "", "API token")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT secret used to sign a token locally")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Role for locally signed tokens: admin, operator or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Lifetime of locally signed tokens")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func logoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clearSession(c.sessionPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(c.sessionPath)
			if err != nil {
				return err
			}
			if sess == nil {
				return errNotLoggedIn
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:      %s\n", sess.User)
			fmt.Fprintf(out, "Logged in: %s\n", sess.CreatedAt.Format(time.RFC3339))

			if sess.Token == "" {
				fmt.Fprintln(out, "Token:     none")
				return nil
			}

			claims, err := peekClaims(sess.Token)
			if err != nil {
				fmt.Fprintf(out, "Token:     unreadable (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "Role:      %s\n", claims.Role)
			if claims.ExpiresAt != nil {
				state := "valid"
				if claims.ExpiresAt.Before(c.now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "Expires:   %s (%s)\n", claims.ExpiresAt.Format(time.RFC3339), state)
			}
			return nil
		},
	}
}

// peekClaims decodes a token without verifying it. The server verifies.
func peekClaims(token string) (*auth.Claims, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
