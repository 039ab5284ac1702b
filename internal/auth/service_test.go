package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

type memUsers struct {
	users  map[int64]User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]User{}, nextID: 1}
}

func (m *memUsers) seed(t *testing.T, username, password, role string, active bool) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := User{
		ID:           m.nextID,
		Username:     username,
		PasswordHash: string(hash),
		FullName:     username,
		Role:         role,
		IsActive:     active,
	}
	m.users[u.ID] = u
	m.nextID++
	return u
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: user %s", shared.ErrNotFound, username)
}

func (m *memUsers) FindByID(_ context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return u, nil
}

func (m *memUsers) List(context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, u User) (int64, error) {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return 0, fmt.Errorf("%w: username %s", shared.ErrDuplicate, u.Username)
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memUsers) Update(_ context.Context, u User) error {
	if _, ok := m.users[u.ID]; !ok {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, u.ID)
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) SetPassword(_ context.Context, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func newTestService(repo RepositoryPort) *Service {
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour))
}

func TestLoginIssuesToken(t *testing.T) {
	repo := newMemUsers()
	repo.seed(t, "admin", "hunter42", RoleAdmin, true)
	svc := newTestService(repo)

	result, err := svc.Login(context.Background(), "admin", "hunter42")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "admin", result.User.Username)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	repo := newMemUsers()
	repo.seed(t, "admin", "hunter42", RoleAdmin, true)
	repo.seed(t, "parked", "hunter42", RoleStaff, false)
	svc := newTestService(repo)

	for _, tc := range []struct{ username, password string }{
		{"nobody", "hunter42"},
		{"admin", "wrong"},
		{"parked", "hunter42"},
	} {
		_, err := svc.Login(context.Background(), tc.username, tc.password)
		require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMemUsers()
	svc := newTestService(repo)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		Username: "clerk",
		Password: "secret1",
		FullName: "Warehouse Clerk",
		Role:     RoleStaff,
	})
	require.NoError(t, err)
	require.NotEqual(t, "secret1", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	require.True(t, user.IsActive)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newTestService(newMemUsers())

	cases := []CreateUserInput{
		{Username: "", Password: "secret1", Role: RoleStaff},
		{Username: "clerk", Password: "short", Role: RoleStaff},
		{Username: "clerk", Password: "secret1", Role: "superuser"},
	}
	for _, in := range cases {
		_, err := svc.CreateUser(context.Background(), in)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
}

func TestUpdateUserChangesRoleAndActive(t *testing.T) {
	repo := newMemUsers()
	seeded := repo.seed(t, "clerk", "secret1", RoleStaff, true)
	svc := newTestService(repo)

	updated, err := svc.UpdateUser(context.Background(), seeded.ID, UpdateUserInput{
		FullName: "Former Clerk",
		Role:     RoleViewer,
		IsActive: false,
	})
	require.NoError(t, err)
	require.Equal(t, RoleViewer, updated.Role)
	require.False(t, updated.IsActive)

	_, err = svc.Login(context.Background(), "clerk", "secret1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestChangePasswordRequiresLength(t *testing.T) {
	repo := newMemUsers()
	seeded := repo.seed(t, "clerk", "secret1", RoleStaff, true)
	svc := newTestService(repo)

	require.ErrorIs(t, svc.ChangePassword(context.Background(), seeded.ID, "short"), shared.ErrValidation)
	require.NoError(t, svc.ChangePassword(context.Background(), seeded.ID, "longenough"))

	_, err := svc.Login(context.Background(), "clerk", "longenough")
	require.NoError(t, err)
}
