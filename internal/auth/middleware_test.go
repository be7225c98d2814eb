package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users  map[string]*User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*User{}}
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUserStore) Create(ctx context.Context, u *User) (*User, error) {
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.users[u.Email] = u
	return u, nil
}

func identityProbe(t *testing.T, want *Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got, ok := IdentityFromContext(r.Context())
		if want == nil {
			assert.False(t, ok, "expected anonymous context")
		} else {
			require.True(t, ok, "expected identity in context")
			assert.Equal(t, want.UserID, got.UserID)
			assert.Equal(t, want.Email, got.Email)
			assert.Equal(t, want.Role, got.Role)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthenticateNoHeader(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	mw := Authenticate(tokens, newFakeUserStore())

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	mw(identityProbe(t, nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateValidToken(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	store := newFakeUserStore()
	user, err := store.Create(context.Background(), &User{Email: "ann@x.com", Role: RoleCustomer})
	require.NoError(t, err)

	raw, err := tokens.Issue("ann@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	mw := Authenticate(tokens, store)
	mw(identityProbe(t, &Identity{UserID: user.ID, Email: "ann@x.com", Role: RoleCustomer})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateBadTokenStaysAnonymous(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	mw := Authenticate(tokens, newFakeUserStore())

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	mw(identityProbe(t, nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateUnknownSubjectStaysAnonymous(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	raw, err := tokens.Issue("ghost@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	mw := Authenticate(tokens, newFakeUserStore())
	mw(identityProbe(t, nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func withTestIdentity(r *http.Request, id *Identity) *http.Request {
	return r.WithContext(WithIdentity(r.Context(), id))
}

func TestRequireRoleAnonymous(t *testing.T) {
	h := RequireRole(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}, RoleAdmin)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleForbidden(t *testing.T) {
	h := RequireRole(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}, RoleAdmin)

	req := withTestIdentity(httptest.NewRequest(http.MethodGet, "/anything", nil),
		&Identity{UserID: 1, Email: "ann@x.com", Role: RoleCustomer})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAllowed(t *testing.T) {
	called := false
	h := RequireRole(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}, RoleAdmin, RoleStaff)

	req := withTestIdentity(httptest.NewRequest(http.MethodGet, "/anything", nil),
		&Identity{UserID: 1, Email: "staff@x.com", Role: RoleStaff})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorizeRecordCustomerNotOwner(t *testing.T) {
	owns := func(ctx context.Context, recordID, userID int64) (bool, error) {
		return false, nil
	}
	req := withTestIdentity(httptest.NewRequest(http.MethodGet, "/anything", nil),
		&Identity{UserID: 1, Email: "ann@x.com", Role: RoleCustomer})
	rec := httptest.NewRecorder()

	allowed := AuthorizeRecord(rec, req, 42, owns, RoleAdmin, RoleStaff)

	assert.False(t, allowed)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthorizeRecordCustomerOwner(t *testing.T) {
	owns := func(ctx context.Context, recordID, userID int64) (bool, error) {
		return recordID == 42 && userID == 1, nil
	}
	req := withTestIdentity(httptest.NewRequest(http.MethodGet, "/anything", nil),
		&Identity{UserID: 1, Email: "ann@x.com", Role: RoleCustomer})
	rec := httptest.NewRecorder()

	assert.True(t, AuthorizeRecord(rec, req, 42, owns, RoleAdmin, RoleStaff))
}

func TestAuthorizeRecordPrivilegedSkipsOwnership(t *testing.T) {
	owns := func(ctx context.Context, recordID, userID int64) (bool, error) {
		t.Fatal("ownership lookup should not run for privileged roles")
		return false, nil
	}
	req := withTestIdentity(httptest.NewRequest(http.MethodGet, "/anything", nil),
		&Identity{UserID: 9, Email: "staff@x.com", Role: RoleStaff})
	rec := httptest.NewRecorder()

	assert.True(t, AuthorizeRecord(rec, req, 42, owns, RoleAdmin, RoleStaff))
}
