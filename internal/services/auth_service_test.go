package services_test

import (
	"context"
	"testing"

	"jewelconnect/internal/models"
	"jewelconnect/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(name string) services.RegisterInput {
	return services.RegisterInput{
		Email:    name + "@Example.com ",
		Username: name,
		Password: "correct horse battery",
		FullName: "  " + name + "  ",
		UserType: "designer",
	}
}

func TestRegister_FirstUserBecomesAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Register(ctx, registerInput("amara"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.User.Role)
	assert.Equal(t, "amara@example.com", first.User.Email)
	assert.Equal(t, "amara", first.User.FullName)
	assert.NotEmpty(t, first.AccessToken.Token)
	assert.NotEmpty(t, first.RefreshToken.Token)

	second, err := f.auth.Register(ctx, registerInput("bilal"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, second.User.Role)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, registerInput("amara"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*services.RegisterInput)
		want   error
	}{
		{"bad email", func(in *services.RegisterInput) { in.Email = "nope" }, services.ErrInvalidInput},
		{"short username", func(in *services.RegisterInput) { in.Username = "ab" }, services.ErrInvalidInput},
		{"short password", func(in *services.RegisterInput) { in.Password = "short" }, services.ErrInvalidInput},
		{"unknown user type", func(in *services.RegisterInput) { in.UserType = "wizard" }, services.ErrInvalidInput},
		{"email taken", func(in *services.RegisterInput) { in.Email = "AMARA@example.com" }, services.ErrEmailTaken},
		{"username taken", func(in *services.RegisterInput) { in.Username = "amara" }, services.ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registerInput("carlos")
			tt.mutate(&in)
			_, err := f.auth.Register(ctx, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, registerInput("amara"))
	require.NoError(t, err)

	t.Run("by email", func(t *testing.T) {
		s, err := f.auth.Login(ctx, "AMARA@example.com", "correct horse battery")
		require.NoError(t, err)
		assert.NotNil(t, s.User.LastLoginAt)
	})
	t.Run("by username", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "amara", "correct horse battery")
		assert.NoError(t, err)
	})
	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "amara", "wrong password!")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
	t.Run("unknown user", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "nobody", "correct horse battery")
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})
}

func TestLogin_SuspendedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.auth.Register(ctx, registerInput("amara"))
	require.NoError(t, err)

	s.User.Status = models.StatusSuspended
	require.NoError(t, f.mem.Users.UpdateAccess(ctx, s.User))

	_, err = f.auth.Login(ctx, "amara", "correct horse battery")
	assert.ErrorIs(t, err, services.ErrAccountDisabled)
}

func TestRefresh_RotatesAndBlocksReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.auth.Register(ctx, registerInput("amara"))
	require.NoError(t, err)

	rotated, err := f.auth.Refresh(ctx, s.RefreshToken.Token)
	require.NoError(t, err)
	assert.NotEqual(t, s.RefreshToken.JTI, rotated.RefreshToken.JTI)

	_, err = f.auth.Refresh(ctx, s.RefreshToken.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = f.auth.Refresh(ctx, s.AccessToken.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken, "access tokens are signed with a different secret")
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.auth.Register(ctx, registerInput("amara"))
	require.NoError(t, err)

	claims, err := f.auth.Authenticate(ctx, s.AccessToken.Token)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, claims, s.RefreshToken.Token))

	_, err = f.auth.Authenticate(ctx, s.AccessToken.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
	_, err = f.auth.Refresh(ctx, s.RefreshToken.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	assert.NoError(t, f.auth.Logout(ctx, nil, "garbage"))
}

func TestActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.auth.Register(ctx, registerInput("amara"))
	require.NoError(t, err)

	claims, err := f.auth.Authenticate(ctx, s.AccessToken.Token)
	require.NoError(t, err)

	a, err := f.auth.Actor(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, a.ID)
	assert.True(t, a.IsAdmin())

	require.NoError(t, f.mem.Users.SoftDelete(ctx, s.User.ID, s.User.CreatedAt))
	_, err = f.auth.Actor(ctx, claims)
	assert.ErrorIs(t, err, services.ErrAccountDisabled)
}
