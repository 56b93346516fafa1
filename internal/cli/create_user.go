package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/bookmarks/internal/auth"
	"github.com/mrlokans/bookmarks/internal/config"
	"github.com/mrlokans/bookmarks/internal/database"
	"github.com/mrlokans/bookmarks/internal/database/users"
)

// CreateUserCommand creates a local account without going through the API.
type CreateUserCommand struct {
	Email        string
	Password     string
	DatabasePath string
	BcryptCost   int

	out io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{out: os.Stdout}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Email, "email", "", "Email address of the new user (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 12 characters (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the bookmarks database")
	fs.IntVar(&cmd.BcryptCost, "bcrypt-cost", 12, "bcrypt cost for the password hash")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -email <email> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a local user for AUTH_MODE=local.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("required flag -password not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath, "silent")
	if err != nil {
		return err
	}
	defer db.Close()

	// Only the password settings matter here; no tokens are issued.
	service := auth.NewService(users.NewRepository(db.DB), config.Auth{
		Mode:       config.AuthModeLocal,
		BcryptCost: cmd.BcryptCost,
	})

	user, err := service.CreateUser(context.Background(), cmd.Email, cmd.Password)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.out, "Created user %d (%s)\n", user.ID, user.Email)
	return nil
}
