package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookmarks/internal/auth"
	"github.com/mrlokans/bookmarks/internal/database"
	"github.com/mrlokans/bookmarks/internal/database/users"
)

func TestCreateUserCommand_ParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "ok", args: []string{"-email", "a@example.com", "-password", "long enough password"}},
		{name: "missing email", args: []string{"-password", "long enough password"}, wantErr: "-email"},
		{name: "missing password", args: []string{"-email", "a@example.com"}, wantErr: "-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCreateUserCommand().ParseFlags(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateUserCommand_Run(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bookmarks.db")
	var out bytes.Buffer

	cmd := NewCreateUserCommand()
	cmd.out = &out
	require.NoError(t, cmd.ParseFlags([]string{
		"-email", "Admin@Example.com",
		"-password", "long enough password",
		"-db", dbPath,
		"-bcrypt-cost", "4",
	}))
	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "admin@example.com")

	// Running again for the same email fails.
	err := cmd.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrUserExists)

	db, err := database.NewDatabase(dbPath, "silent")
	require.NoError(t, err)
	defer db.Close()
	user, err := users.NewRepository(db.DB).GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NoError(t, auth.CheckPassword("long enough password", user.PasswordHash))
}
