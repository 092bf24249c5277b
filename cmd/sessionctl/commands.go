package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/kvstore"
	"github.com/spf13/cobra"
)

// sessionView is the printable form of a snapshot. Tokens are reported as
// present or absent, never printed.
type sessionView struct {
	State           string          `json:"state"`
	Version         uint64          `json:"version"`
	IsAuthenticated bool            `json:"isAuthenticated"`
	User            *goSession.User `json:"user,omitempty"`
	HasAccessToken  bool            `json:"hasAccessToken"`
	HasRefreshToken bool            `json:"hasRefreshToken"`
	ExpiresAt       *time.Time      `json:"expiresAt,omitempty"`
}

func viewOf(m *goSession.Manager, s goSession.Session) sessionView {
	v := sessionView{
		State:           s.State.String(),
		Version:         s.Version,
		IsAuthenticated: s.IsAuthenticated,
		User:            s.User,
		HasAccessToken:  s.AccessToken != "",
		HasRefreshToken: s.RefreshToken != "",
	}
	if exp, ok := m.AccessTokenExpiry(); ok {
		v.ExpiresAt = &exp
	}
	return v
}

func (a *app) printSession(w io.Writer, v sessionView) error {
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	if !v.IsAuthenticated {
		_, err := fmt.Fprintf(w, "state:   %s\nversion: %d\n", v.State, v.Version)
		return err
	}
	fmt.Fprintf(w, "state:   %s\nversion: %d\nuser:    %s", v.State, v.Version, v.User.ID)
	if v.User.Role != "" {
		fmt.Fprintf(w, " (%s)", v.User.Role)
	}
	fmt.Fprintf(w, "\nrefresh: %t\n", v.HasRefreshToken)
	if v.ExpiresAt != nil {
		fmt.Fprintf(w, "expires: %s\n", v.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeFn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return a.printSession(cmd.OutOrStdout(), viewOf(m, m.Session()))
		},
	}
}

// userFlags collects the user record from flags.
type userFlags struct {
	id          string
	role        string
	name        string
	email       string
	permissions []string
	attributes  map[string]string
}

func (u *userFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&u.id, "user-id", "", "user id (required)")
	cmd.Flags().StringVar(&u.role, "role", "", "role name")
	cmd.Flags().StringVar(&u.name, "name", "", "display name")
	cmd.Flags().StringVar(&u.email, "email", "", "email address")
	cmd.Flags().StringSliceVar(&u.permissions, "perm", nil, "explicit grant resource:action (repeatable)")
	cmd.Flags().StringToStringVar(&u.attributes, "attr", nil, "profile attribute key=value (repeatable)")
	_ = cmd.MarkFlagRequired("user-id")
}

func (u *userFlags) user() *goSession.User {
	user := &goSession.User{
		ID:          u.id,
		Role:        u.role,
		Name:        u.name,
		Email:       u.email,
		Permissions: u.permissions,
	}
	if len(u.attributes) > 0 {
		user.Attributes = u.attributes
	}
	return user
}

func (a *app) loginCmd() *cobra.Command {
	var (
		user         userFlags
		accessToken  string
		refreshToken string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Persist a signed-in user and its tokens",
		Long: `login stores the user record and tokens obtained from the sign-in
endpoint. An empty --refresh-token removes any refresh token left by an
earlier session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if accessToken == "" {
				return errors.New("--access-token required")
			}
			m, closeFn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := a.origin(cmd.Context(), "login")
			if err := m.Login(ctx, user.user(), accessToken, refreshToken); err != nil {
				return err
			}
			return a.printSession(cmd.OutOrStdout(), viewOf(m, m.Session()))
		},
	}
	user.register(cmd)
	cmd.Flags().StringVar(&accessToken, "access-token", "", "access token (required)")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token remotely and clear the persisted session",
		Long: `logout always clears the local session. A remote revoke that fails or is
rejected is reported in the logs only. The command fails when the persisted
keys could not be removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeFn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			err = m.Logout(a.origin(cmd.Context(), "logout"))
			if printErr := a.printSession(cmd.OutOrStdout(), viewOf(m, m.Session())); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

func (a *app) updateUserCmd() *cobra.Command {
	var user userFlags
	cmd := &cobra.Command{
		Use:   "update-user",
		Short: "Replace the user record of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeFn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := m.UpdateUser(a.origin(cmd.Context(), "update-user"), user.user()); err != nil {
				return err
			}
			return a.printSession(cmd.OutOrStdout(), viewOf(m, m.Session()))
		},
	}
	user.register(cmd)
	return cmd
}

func (a *app) canCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "can <resource> <action>",
		Short: "Check a permission for the current user; exits 1 when denied",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			allowed := m.HasPermission(args[0], args[1])
			if allowed {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "denied")
			return errDenied
		},
	}
}

func (a *app) keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a fresh salt for encryption.salt",
		Long: `keygen prints a random base64 salt. Put it under encryption.salt in the
config file and export the passphrase in the variable named by
encryption.passphrase_env (default SESSIONCTL_PASSPHRASE) to encrypt the
stored session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			salt, err := kvstore.NewSalt()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(salt))
			return nil
		},
	}
}
