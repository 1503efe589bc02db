package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowtask/flowtask/internal/core/forms"
	"github.com/flowtask/flowtask/internal/core/taskview"
)

func loginCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Sign in and store the session",
		Args:        cobra.NoArgs,
		Annotations: action("Login"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd.Context())
			if err != nil {
				return err
			}

			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if email, err = p.valueOr(email, "Email", false); err != nil {
				return err
			}
			if password, err = p.valueOr(password, "Password", true); err != nil {
				return err
			}

			if err := (forms.LoginForm{Email: email, Password: password}).Validate(); err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			user := a.session.Current().User
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>.\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringP("email", "e", "", "Account email")
	cmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func registerCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Create an account and sign in",
		Args:        cobra.NoArgs,
		Annotations: action("Registration"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd.Context())
			if err != nil {
				return err
			}

			var form forms.RegisterForm
			form.Name, _ = cmd.Flags().GetString("name")
			form.Email, _ = cmd.Flags().GetString("email")
			form.Password, _ = cmd.Flags().GetString("password")
			form.ConfirmPassword = form.Password

			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if form.Name, err = p.valueOr(form.Name, "Name", false); err != nil {
				return err
			}
			if form.Email, err = p.valueOr(form.Email, "Email", false); err != nil {
				return err
			}
			prompted := form.Password == ""
			if prompted {
				if form.Password, err = p.secret("Password"); err != nil {
					return err
				}
				if form.ConfirmPassword, err = p.secret("Confirm password"); err != nil {
					return err
				}
			}

			if fb := form.Feedback(); prompted || !fb.Strength.IsStrong {
				renderStrength(cmd.ErrOrStderr(), fb.Strength)
			}
			if err := form.Validate(); err != nil {
				return err
			}

			if err := a.session.Register(cmd.Context(), form.Email, form.Name, form.Password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! You are signed in as %s.\n", form.Name, form.Email)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Display name")
	cmd.Flags().StringP("email", "e", "", "Account email")
	cmd.Flags().StringP("password", "p", "", "Password (prompted twice when omitted)")
	return cmd
}

func logoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Forget the stored session",
		Args:        cobra.NoArgs,
		Annotations: action("Logout"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func whoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			renderUser(cmd.OutOrStdout(), *s.User, painterFor(cmd.OutOrStdout()))
			return nil
		},
	}
}

func profileCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "profile",
		Short:       "Show your account and task statistics",
		Args:        cobra.NoArgs,
		Annotations: action("Loading your profile"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, s, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := a.tasks.Tasks(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderUser(out, *s.User, painterFor(out))
			if !s.User.CreatedAt.IsZero() {
				fmt.Fprintf(out, "Member since %s\n", s.User.CreatedAt.Format(dateLayout))
			}
			fmt.Fprintln(out)
			renderStats(out, taskview.ComputeStats(tasks, s.UserID()))
			return nil
		},
	}
}
