package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomhub/meeting-room-backend/internal/auth"
	"github.com/roomhub/meeting-room-backend/internal/identity"
)

type fakeRepository struct {
	byID    map[string]*User
	byEmail map[string]*User
	touched []string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: make(map[string]*User), byEmail: make(map[string]*User)}
}

func (r *fakeRepository) Create(_ context.Context, u *User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailAlreadyUsed
	}
	u.ID = uuid.NewString()
	stored := *u
	r.byID[u.ID] = &stored
	r.byEmail[u.Email] = &stored
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepository) List(_ context.Context, _ Filter) ([]*User, int, error) {
	var out []*User
	for _, u := range r.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeRepository) TouchLastLogin(_ context.Context, id string) error {
	r.touched = append(r.touched, id)
	return nil
}

func newTestService() (Service, *fakeRepository) {
	repo := newFakeRepository()
	// Minimum cost keeps the hashing fast in tests
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(4)), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active member", func(t *testing.T) {
		svc, _ := newTestService()
		u, err := svc.Register(ctx, RegisterRequest{
			Email: "Alice@Example.com", Password: "correct horse", FullName: "Alice",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, identity.RoleMember, u.Role)
		assert.True(t, u.IsActive)
		assert.NotEqual(t, "correct horse", u.PasswordHash)
	})

	t.Run("rejects short password and empty email", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "short"})
		assert.ErrorIs(t, err, ErrPasswordTooShort)

		_, err = svc.Register(ctx, RegisterRequest{Email: "  ", Password: "long enough"})
		assert.ErrorIs(t, err, ErrEmailRequired)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "long enough"})
		require.NoError(t, err)
		_, err = svc.Register(ctx, RegisterRequest{Email: "A@B.com", Password: "long enough"})
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials touch last login", func(t *testing.T) {
		svc, repo := newTestService()
		u, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "long enough"})
		require.NoError(t, err)

		got, err := svc.Authenticate(ctx, "a@b.com", "long enough")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, []string{u.ID}, repo.touched)
	})

	t.Run("wrong password and unknown email look identical", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "long enough"})
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "a@b.com", "wrong password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "nobody@b.com", "long enough")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user denied", func(t *testing.T) {
		svc, repo := newTestService()
		u, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "long enough"})
		require.NoError(t, err)
		repo.byEmail[u.Email].IsActive = false

		_, err = svc.Authenticate(ctx, "a@b.com", "long enough")
		assert.ErrorIs(t, err, ErrInactiveUser)
	})
}
