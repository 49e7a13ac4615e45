// Package admin implements the maintenance commands of the accounts CLI.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/repository"
	"github.com/vedran77/accounts/internal/service"
	"github.com/vedran77/accounts/pkg/validator"
)

var ErrUsage = errors.New("usage: accounts <list|create|delete> [flags]")

type CLI struct {
	Users  repository.UserRepository
	Hasher service.Hasher
	Out    io.Writer

	// ReadPassword prompts for a password without echo.
	ReadPassword func() ([]byte, error)

	now func() time.Time
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "list":
		return c.list(ctx)
	case "create":
		return c.create(ctx, args[1:])
	case "delete":
		return c.delete(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

func (c *CLI) list(ctx context.Context) error {
	users, err := c.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	tw := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tVERIFIED\tREGISTERED\tLAST LOGIN")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n", u.ID, u.Username, u.Email, u.Verified,
			u.RegistrationDate.Format(time.RFC3339), u.LastLoginDate.Format(time.RFC3339))
	}
	return tw.Flush()
}

// create adds an account without sending a verification email.
func (c *CLI) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(c.Out)
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email")
	verified := fs.Bool("verified", false, "mark the email as already verified")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprint(c.Out, "Password: ")
	raw, err := c.ReadPassword()
	fmt.Fprintln(c.Out)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password := string(raw)

	name := validator.NormalizeUsername(*username)
	addr := validator.NormalizeEmail(*email)
	if errs := validator.ValidateRegister(name, addr, password, password); errs.HasErrors() {
		return fmt.Errorf("invalid account: %s", formatErrors(errs))
	}

	hash, err := c.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := domain.NewUser(name, addr, hash, c.clock())
	if *verified {
		user.MarkVerified()
	}
	if err := c.Users.Create(ctx, user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Fprintf(c.Out, "Created user %s (%s)\n", user.Username, user.ID)
	return nil
}

func (c *CLI) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(c.Out)
	username := fs.String("username", "", "account username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := c.Users.GetByUsername(ctx, validator.NormalizeUsername(*username))
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %q: %w", *username, repository.ErrNotFound)
	}

	if err := c.Users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	fmt.Fprintf(c.Out, "Deleted user %s\n", user.Username)
	return nil
}

func (c *CLI) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func formatErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, field := range []string{"username", "email", "password"} {
		if msg := errs.Get(field); msg != "" {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}
