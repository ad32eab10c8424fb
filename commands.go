package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/guard"
	"github.com/ghaggin/storefront/internal/model"
	"github.com/ghaggin/storefront/internal/nav"
	"github.com/ghaggin/storefront/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var errNotLoggedIn = errors.New("not logged in")

// withClient builds the client graph and fills targets, which are pointers to
// provided types such as *session.Store.
func withClient(newPath func() config.Path, targets ...any) error {
	app := fx.New(clientDeps(newPath), fx.Populate(targets...))
	return app.Err()
}

func success(format string, args ...any) {
	fmt.Printf("%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func loginCmd(newPath func() config.Path) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("STOREFRONT_PASSWORD")
			}

			var store *session.Store
			if err := withClient(newPath, &store); err != nil {
				return err
			}

			sess, err := store.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			name := username
			if sess.User != nil {
				name = sess.User.Username
			}
			success("logged in as %s", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $STOREFRONT_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func registerCmd(newPath func() config.Path) *cobra.Command {
	var reg model.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reg.Password == "" {
				reg.Password = os.Getenv("STOREFRONT_PASSWORD")
			}

			var store *session.Store
			if err := withClient(newPath, &store); err != nil {
				return err
			}

			if err := store.Register(cmd.Context(), reg); err != nil {
				return err
			}
			success("registered %s, log in to continue", reg.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reg.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "account password (default $STOREFRONT_PASSWORD)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func logoutCmd(newPath func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token",
		RunE: func(_ *cobra.Command, _ []string) error {
			var store *session.Store
			if err := withClient(newPath, &store); err != nil {
				return err
			}

			store.Logout()
			success("logged out")
			return nil
		},
	}
}

func profileCmd(newPath func() config.Path) *cobra.Command {
	var update model.Profile

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the account profile, or update it with --email/--phone/--avatar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var store *session.Store
			if err := withClient(newPath, &store); err != nil {
				return err
			}
			if !store.IsAuthenticated() {
				return errNotLoggedIn
			}

			p, err := store.FetchProfile(cmd.Context())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("email") || flags.Changed("phone") || flags.Changed("avatar") {
				merged := *p
				if flags.Changed("email") {
					merged.Email = update.Email
				}
				if flags.Changed("phone") {
					merged.Phone = update.Phone
				}
				if flags.Changed("avatar") {
					merged.Avatar = update.Avatar
				}
				if p, err = store.UpdateProfile(cmd.Context(), merged); err != nil {
					return err
				}
			}

			printProfile(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&update.Email, "email", "", "new email address")
	cmd.Flags().StringVar(&update.Phone, "phone", "", "new phone number")
	cmd.Flags().StringVar(&update.Avatar, "avatar", "", "new avatar URL")
	return cmd
}

func printProfile(p *model.Profile) {
	label := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %d\n", label("id:      "), p.ID)
	fmt.Printf("%s %s\n", label("username:"), p.Username)
	if p.Email != "" {
		fmt.Printf("%s %s\n", label("email:   "), p.Email)
	}
	if p.Phone != "" {
		fmt.Printf("%s %s\n", label("phone:   "), p.Phone)
	}
	if p.Avatar != "" {
		fmt.Printf("%s %s\n", label("avatar:  "), p.Avatar)
	}
}

func statusCmd(newPath func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session token is stored and what it claims",
		RunE: func(_ *cobra.Command, _ []string) error {
			var state *session.State
			if err := withClient(newPath, &state); err != nil {
				return err
			}

			snap := state.Snapshot()
			if !snap.IsAuthenticated {
				fmt.Println(color.YellowString("not logged in"))
				return nil
			}

			fmt.Println(color.GreenString("logged in"))

			// The signature is the backend's business; only display the claims.
			var claims struct {
				Username string `json:"username"`
				jwt.RegisteredClaims
			}
			if _, _, err := jwt.NewParser().ParseUnverified(snap.Token, &claims); err != nil {
				fmt.Printf("token is not a JWT: %v\n", err)
				return nil
			}

			fmt.Printf("subject:  %s\n", claims.Subject)
			if claims.Username != "" {
				fmt.Printf("username: %s\n", claims.Username)
			}
			if claims.ExpiresAt != nil {
				exp := claims.ExpiresAt.Time
				if time.Now().After(exp) {
					fmt.Printf("expires:  %s %s\n", exp.Format(time.RFC3339), color.RedString("(expired)"))
				} else {
					fmt.Printf("expires:  %s\n", exp.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}

func openCmd(newPath func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Navigate to a page, subject to the route guard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				g     *guard.Guard
				state *session.State
				n     nav.Navigator
			)
			if err := withClient(newPath, &g, &state, &n); err != nil {
				return err
			}

			d := g.Navigate(cmd.Context(), args[0], state, n)
			name := d.Route.Name
			if name == "" {
				name = "unknown route"
			}
			fmt.Printf("%s: %s\n", name, d.Outcome)
			return nil
		},
	}
}
