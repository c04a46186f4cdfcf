// authctl is the command-line client of the bridge. It holds the session in
// a local state file (the CLI's browser-storage scope) and drives the
// client-side session stack against a running bridged server.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/authbridge/go-auth-bridge/rpc"
	"github.com/authbridge/go-auth-bridge/session"
)

var (
	serverURL string
	statePath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "authctl",
		Short:        "Authenticate against an auth bridge server",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "bridge server base URL")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "session state file (default: $XDG_STATE_HOME/authctl/auth_state.json)")

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		meCmd(),
		refreshCmd(),
		statusCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// stack is the assembled client side: the persisted store, the RPC channel
// reading its bearer token from that store, and the controller and query
// facade on top.
type stack struct {
	store      *session.Store
	client     *rpc.Client
	controller *session.Controller
	queries    *session.Queries
}

func buildStack() (*stack, error) {
	store, err := session.NewStore(session.NewFileBackend(resolveStatePath()))
	if err != nil {
		return nil, err
	}

	client, err := rpc.NewClient(serverURL, rpc.WithTokenSource(rpc.StoreTokenSource(store)))
	if err != nil {
		return nil, err
	}

	controller, err := session.NewController(store, client)
	if err != nil {
		return nil, err
	}

	queries, err := session.NewQueries(store, client)
	if err != nil {
		return nil, err
	}

	return &stack{store: store, client: client, controller: controller, queries: queries}, nil
}

func resolveStatePath() string {
	if statePath != "" {
		return statePath
	}
	if env := os.Getenv("AUTH_STATE_PATH"); env != "" {
		return env
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return session.StorageKey + ".json"
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "authctl", session.StorageKey+".json")
}

func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack()
			if err != nil {
				return err
			}
			defer s.queries.Close()

			result, err := s.controller.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			fmt.Printf("Logged in as %s %s (%s)\n", result.FirstName, result.LastName, result.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack()
			if err != nil {
				return err
			}
			defer s.queries.Close()

			s.controller.Logout()
			fmt.Println("Logged out")
			return nil
		},
	}
}

func meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack()
			if err != nil {
				return err
			}
			defer s.queries.Close()

			profile, err := s.queries.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if profile == nil {
				fmt.Println("Not logged in")
				return nil
			}

			fmt.Printf("%s %s\n", profile.FirstName, profile.LastName)
			fmt.Printf("  username: %s\n", profile.Username)
			fmt.Printf("  email:    %s\n", profile.Email)
			fmt.Printf("  id:       %d\n", profile.ID)
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack()
			if err != nil {
				return err
			}
			defer s.queries.Close()

			if _, err := s.controller.Refresh(cmd.Context()); err != nil {
				return err
			}

			fmt.Println("Session refreshed")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local session state and verify it with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack()
			if err != nil {
				return err
			}
			defer s.queries.Close()

			if !s.queries.IsAuthenticated() {
				fmt.Println("Logged out")
				return nil
			}

			if user := s.store.Get().User; user != nil {
				fmt.Printf("Logged in as %s\n", user.Username)
			} else {
				fmt.Println("Logged in")
			}

			identity, err := s.client.Session(cmd.Context())
			if err != nil {
				fmt.Println("Server verification failed: token invalid or expired")
				return nil
			}
			fmt.Printf("Server verified identity: %s <%s> (id %d)\n", identity.Username, identity.Email, identity.ID)
			return nil
		},
	}
}
