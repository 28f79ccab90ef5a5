/*
identity.go - Account and session store

PURPOSE:
  Owns the application accounts and the single signed-in session. Both are
  loaded from the key-value store on construction and written through after
  every change. Passwords are stored as bcrypt hashes only.

INVARIANTS:
  - Emails are unique, compared case-insensitively
  - At least one admin exists once one has been created
  - The signed-in user cannot delete their own account
  - The session always reflects the current role, permissions and password
    of the account it belongs to

SESSION:
  There is at most one signed-in user (a shared workstation model). Login
  replaces it, Logout clears it. Any change to the signed-in account rewrites
  the session snapshot in the same operation.

USAGE:
  ids, err := access.NewIdentityStore(ctx, kvStore, access.WithBcryptCost(12))
  _, err = ids.EnsureAdmin(ctx, "admin@school.test", "change-me-now")
  u, err := ids.Login(ctx, email, password)

SEE ALSO:
  - permissions.go: Permissions, roles and HasPermission
  - api/auth.go: HTTP login and capability middleware
*/
package access

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/fee-engine/kv"
	"github.com/warp/fee-engine/validation"
)

// Keys the identity documents are stored under.
const (
	UsersKey   = "feeManager_appUsersData"
	SessionKey = "feeManager_loggedInFeeUser"
)

// Account is the persisted form of a user.
type Account struct {
	Email        string      `json:"email"`
	PasswordHash string      `json:"passwordHash"`
	Role         Role        `json:"role"`
	Permissions  Permissions `json:"permissions"`
}

// User returns the session view of a.
func (a Account) User() User {
	return User{Email: a.Email, Role: a.Role, Permissions: a.Permissions}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type passwordChange struct {
	NewPassword string `json:"newPassword" validate:"min=8,max=72"`
}

// =============================================================================
// IDENTITY STORE
// =============================================================================

// IdentityStore owns the accounts and the signed-in session. It is safe for
// concurrent use.
type IdentityStore struct {
	mu       sync.RWMutex
	store    kv.Store
	accounts []Account
	session  *User

	log  *zap.Logger
	cost int
}

// IdentityOption configures an IdentityStore.
type IdentityOption func(*IdentityStore)

// WithIdentityLogger sets the logger for account and session events.
func WithIdentityLogger(l *zap.Logger) IdentityOption {
	return func(s *IdentityStore) { s.log = l }
}

// WithBcryptCost sets the bcrypt cost used for new hashes.
func WithBcryptCost(cost int) IdentityOption {
	return func(s *IdentityStore) { s.cost = cost }
}

// NewIdentityStore loads accounts and the session from store.
// A session whose account no longer exists is dropped.
func NewIdentityStore(ctx context.Context, store kv.Store, opts ...IdentityOption) (*IdentityStore, error) {
	s := &IdentityStore{
		store: store,
		log:   zap.NewNop(),
		cost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	var accounts []Account
	if _, err := kv.LoadJSON(ctx, store, UsersKey, &accounts); err != nil {
		return nil, err
	}
	s.accounts = accounts

	var session User
	found, err := kv.LoadJSON(ctx, store, SessionKey, &session)
	if err != nil {
		return nil, err
	}
	if found {
		if i := s.indexOf(session.Email); i >= 0 {
			u := s.accounts[i].User()
			s.session = &u
		}
	}
	return s, nil
}

// =============================================================================
// READS
// =============================================================================

// Users returns every account's session view in registration order.
func (s *IdentityStore) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = a.User()
	}
	return out
}

// User returns the account with the given email.
func (s *IdentityStore) User(email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(email)
	if i < 0 {
		return User{}, ErrUserNotFound
	}
	return s.accounts[i].User(), nil
}

// CurrentUser returns the signed-in user, or nil.
func (s *IdentityStore) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil
	}
	u := *s.session
	return &u
}

// =============================================================================
// REGISTRATION AND SESSION
// =============================================================================

// Register creates a user-role account with the default permission bundle.
func (s *IdentityStore) Register(ctx context.Context, email, password string) (User, error) {
	in := credentials{Email: strings.TrimSpace(email), Password: password}
	if err := validation.Struct(in); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(in.Email) >= 0 {
		return User{}, ErrEmailExists
	}

	hash, err := HashPassword(in.Password, s.cost)
	if err != nil {
		return User{}, err
	}
	a := Account{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         RoleUser,
		Permissions:  DefaultUserPermissions(),
	}

	next := append(s.snapshot(), a)
	if err := s.commit(ctx, next, s.session); err != nil {
		return User{}, err
	}

	s.log.Info("user registered", zap.String("email", a.Email))
	return a.User(), nil
}

// Login verifies the credentials and makes the account the signed-in user.
func (s *IdentityStore) Login(ctx context.Context, email, password string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(email)
	if i < 0 || !VerifyPassword(s.accounts[i].PasswordHash, password) {
		s.log.Warn("login failed", zap.String("email", strings.TrimSpace(email)))
		return User{}, ErrInvalidCredentials
	}

	u := s.accounts[i].User()
	if err := s.saveSession(ctx, &u); err != nil {
		return User{}, err
	}

	s.log.Info("user logged in", zap.String("email", u.Email))
	return u, nil
}

// Logout clears the session. It succeeds when nobody is signed in.
func (s *IdentityStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.session
	if err := s.saveSession(ctx, nil); err != nil {
		return err
	}
	if prev != nil {
		s.log.Info("user logged out", zap.String("email", prev.Email))
	}
	return nil
}

// =============================================================================
// ACCOUNT MUTATIONS
// =============================================================================

// ChangeRole sets the role and resets the permissions to the role's bundle.
// Demoting the only admin fails with ErrLastAdmin.
func (s *IdentityStore) ChangeRole(ctx context.Context, email string, role Role) (User, error) {
	if !role.Valid() {
		return User{}, ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(email)
	if i < 0 {
		return User{}, ErrUserNotFound
	}
	if s.accounts[i].Role == RoleAdmin && role != RoleAdmin && s.adminCount() == 1 {
		return User{}, ErrLastAdmin
	}

	next := s.snapshot()
	next[i].Role = role
	next[i].Permissions = BundleForRole(role)

	if err := s.commit(ctx, next, s.refreshed(next[i])); err != nil {
		return User{}, err
	}

	s.log.Info("user role changed",
		zap.String("email", next[i].Email),
		zap.String("role", string(role)))
	return next[i].User(), nil
}

// UpdatePermissions overwrites the account's permission set. The role is
// left alone.
func (s *IdentityStore) UpdatePermissions(ctx context.Context, email string, perms Permissions) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(email)
	if i < 0 {
		return User{}, ErrUserNotFound
	}

	next := s.snapshot()
	next[i].Permissions = perms

	if err := s.commit(ctx, next, s.refreshed(next[i])); err != nil {
		return User{}, err
	}

	s.log.Info("user permissions updated", zap.String("email", next[i].Email))
	return next[i].User(), nil
}

// ChangePassword replaces the password after checking the old one.
func (s *IdentityStore) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if err := validation.Struct(passwordChange{NewPassword: newPassword}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(email)
	if i < 0 {
		return ErrUserNotFound
	}
	if !VerifyPassword(s.accounts[i].PasswordHash, oldPassword) {
		return ErrWrongPassword
	}

	hash, err := HashPassword(newPassword, s.cost)
	if err != nil {
		return err
	}
	next := s.snapshot()
	next[i].PasswordHash = hash

	if err := s.commit(ctx, next, s.refreshed(next[i])); err != nil {
		return err
	}

	s.log.Info("user password changed", zap.String("email", next[i].Email))
	return nil
}

// DeleteUser removes an account. The signed-in user and the only admin
// cannot be deleted.
func (s *IdentityStore) DeleteUser(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && sameEmail(s.session.Email, email) {
		return ErrSelfDeletion
	}
	i := s.indexOf(email)
	if i < 0 {
		return ErrUserNotFound
	}
	if s.accounts[i].Role == RoleAdmin && s.adminCount() == 1 {
		return ErrLastAdmin
	}

	next := s.snapshot()
	removed := next[i]
	next = append(next[:i], next[i+1:]...)

	if err := s.commit(ctx, next, s.session); err != nil {
		return err
	}

	s.log.Info("user deleted", zap.String("email", removed.Email))
	return nil
}

// EnsureAdmin guarantees an admin exists. When none does, the account for
// email is promoted, or created with password if it is missing. It reports
// whether anything changed.
func (s *IdentityStore) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adminCount() > 0 {
		return false, nil
	}

	next := s.snapshot()
	session := s.session
	if i := s.indexOf(email); i >= 0 {
		next[i].Role = RoleAdmin
		next[i].Permissions = AdminPermissions()
		session = s.refreshed(next[i])
	} else {
		in := credentials{Email: strings.TrimSpace(email), Password: password}
		if err := validation.Struct(in); err != nil {
			return false, err
		}
		hash, err := HashPassword(in.Password, s.cost)
		if err != nil {
			return false, err
		}
		next = append(next, Account{
			Email:        in.Email,
			PasswordHash: hash,
			Role:         RoleAdmin,
			Permissions:  AdminPermissions(),
		})
	}

	if err := s.commit(ctx, next, session); err != nil {
		return false, err
	}

	s.log.Info("bootstrap admin ensured", zap.String("email", strings.TrimSpace(email)))
	return true, nil
}

// =============================================================================
// INTERNALS (callers hold s.mu)
// =============================================================================

func (s *IdentityStore) indexOf(email string) int {
	for i, a := range s.accounts {
		if sameEmail(a.Email, email) {
			return i
		}
	}
	return -1
}

func (s *IdentityStore) adminCount() int {
	n := 0
	for _, a := range s.accounts {
		if a.Role == RoleAdmin {
			n++
		}
	}
	return n
}

func (s *IdentityStore) snapshot() []Account {
	out := make([]Account, len(s.accounts), len(s.accounts)+1)
	copy(out, s.accounts)
	return out
}

// refreshed returns the session to keep after a changes: a's new view when a
// is the signed-in account, the current session otherwise.
func (s *IdentityStore) refreshed(a Account) *User {
	if s.session == nil || !sameEmail(s.session.Email, a.Email) {
		return s.session
	}
	u := a.User()
	return &u
}

// commit persists accounts and, when it changed, the session. If the
// session write fails the previous accounts document is restored.
func (s *IdentityStore) commit(ctx context.Context, accounts []Account, session *User) error {
	if err := kv.SaveJSON(ctx, s.store, UsersKey, accounts); err != nil {
		s.log.Error("failed to persist accounts", zap.Error(err))
		return err
	}
	if session != s.session {
		if err := s.saveSession(ctx, session); err != nil {
			if rerr := kv.SaveJSON(ctx, s.store, UsersKey, s.accounts); rerr != nil {
				s.log.Error("failed to restore accounts", zap.Error(rerr))
			}
			return err
		}
	}
	s.accounts = accounts
	return nil
}

func (s *IdentityStore) saveSession(ctx context.Context, u *User) error {
	var err error
	if u == nil {
		err = s.store.Remove(ctx, SessionKey)
	} else {
		err = kv.SaveJSON(ctx, s.store, SessionKey, u)
	}
	if err != nil {
		s.log.Error("failed to persist session", zap.Error(err))
		return err
	}
	s.session = u
	return nil
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
