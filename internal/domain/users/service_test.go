package users

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"pet-adoption/internal/ports/storage"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = storage.ErrNotFound

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Account
	// lookupErr simula una caída del store en las búsquedas.
	lookupErr error
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Account{}}
}

func (r *testRepo) Create(ctx context.Context, a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.User.ID] = a
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return Account{}, r.lookupErr
	}
	a, ok := r.byID[id]
	if !ok {
		return Account{}, errRepoNotFound
	}
	return a, nil
}

func (r *testRepo) GetByUsername(ctx context.Context, username string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return Account{}, r.lookupErr
	}
	for _, a := range r.byID {
		if a.User.Username == username {
			return a, nil
		}
	}
	return Account{}, errRepoNotFound
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.User.Email == email {
			return a, nil
		}
	}
	return Account{}, errRepoNotFound
}

func (r *testRepo) List(ctx context.Context) ([]Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.Username < out[j].User.Username })
	return out, nil
}

func (r *testRepo) ListByRole(ctx context.Context, role Role) ([]Account, error) {
	all, _ := r.List(ctx)
	out := make([]Account, 0)
	for _, a := range all {
		if a.Profile.Role == role {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.User.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[a.User.ID] = a
	return nil
}

func (r *testRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return errRepoNotFound
	}
	a.User.IsActive = active
	a.User.UpdatedAt = at
	a.Profile.Status = StatusFor(active)
	r.byID[id] = a
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// plainHasher evita el costo de bcrypt en tests unitarios.
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "h:" + pw, nil }
func (plainHasher) Check(pw, hash string) bool     { return hash == "h:"+pw }

// countingHasher registra cada Check para verificar que Login siempre compara.
type countingHasher struct {
	plainHasher
	mu     sync.Mutex
	checks []string
}

func (h *countingHasher) Check(pw, hash string) bool {
	h.mu.Lock()
	h.checks = append(h.checks, hash)
	h.mu.Unlock()
	return h.plainHasher.Check(pw, hash)
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, plainHasher{}, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func mustRegister(t *testing.T, svc *Service, username, role string) Account {
	t.Helper()
	a, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return a
}

func TestRegister_CreatesUserAndProfile(t *testing.T) {
	svc, _ := newTestService()

	a := mustRegister(t, svc, "ana", "user")

	if a.User.ID == "" || a.Profile.UserID != a.User.ID {
		t.Fatalf("expected profile bound to user, got %+v", a)
	}
	if a.Profile.Role != RoleUser {
		t.Fatalf("expected role user, got %s", a.Profile.Role)
	}
	if !a.User.IsActive || a.Profile.Status != StatusActive {
		t.Fatalf("expected new account active")
	}
	if a.User.PasswordHash == "password123" {
		t.Fatalf("password must be stored hashed")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"short password", RegisterInput{Username: "a", Password: "short", Role: "user"}, ErrInvalidInput},
		{"unknown role", RegisterInput{Username: "a", Password: "password123", Role: "vet"}, ErrInvalidInput},
		{"empty username", RegisterInput{Username: "  ", Password: "password123", Role: "user"}, ErrInvalidInput},
		{"bad email", RegisterInput{Username: "a", Email: "nope", Password: "password123", Role: "user"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	mustRegister(t, svc, "ana", "user")

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ana", Password: "password123", Role: "doctor"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLogin_GenericFailure(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustRegister(t, svc, "ana", "user")

	if _, err := svc.Login(ctx, LoginInput{Username: "ana", Password: "password123", Role: "user"}); err != nil {
		t.Fatalf("expected login ok, got %v", err)
	}

	// rol declarado distinto
	if _, err := svc.Login(ctx, LoginInput{Username: "ana", Password: "password123", Role: "admin"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("role mismatch: expected ErrInvalidCredentials, got %v", err)
	}
	// password incorrecto
	if _, err := svc.Login(ctx, LoginInput{Username: "ana", Password: "wrong-pass", Role: "user"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password: expected ErrInvalidCredentials, got %v", err)
	}
	// usuario inexistente
	if _, err := svc.Login(ctx, LoginInput{Username: "nobody", Password: "password123", Role: "user"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	// cuenta inactiva
	if _, err := svc.Deactivate(ctx, a.User.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Username: "ana", Password: "password123", Role: "user"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("inactive: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestActivateDeactivate_KeepsFlagsInSync(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustRegister(t, svc, "ana", "user")

	if _, err := svc.Activate(ctx, a.User.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	got, err := svc.Deactivate(ctx, a.User.ID)
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if got.User.IsActive || got.Profile.Status != StatusInactive {
		t.Fatalf("expected inactive/inactive, got %v/%s", got.User.IsActive, got.Profile.Status)
	}

	if _, err := svc.Activate(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActorOf_RejectsInactive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustRegister(t, svc, "doc", "doctor")

	actor, err := svc.ActorOf(ctx, a.User.ID)
	if err != nil || actor.Role != "doctor" {
		t.Fatalf("expected doctor actor, got %+v err=%v", actor, err)
	}

	_, _ = svc.Deactivate(ctx, a.User.ID)
	if _, err := svc.ActorOf(ctx, a.User.ID); err == nil {
		t.Fatalf("expected error for inactive account")
	}
}

func TestDoctors_Lifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	mustRegister(t, svc, "ana", "user")

	phone := " 555-1234 "
	d, err := svc.AddDoctor(ctx, DoctorInput{
		Username: "dr-house",
		Email:    "house@example.com",
		Password: "password123",
		Phone:    &phone,
	})
	if err != nil {
		t.Fatalf("AddDoctor: %v", err)
	}
	if d.Profile.Role != RoleDoctor || d.Profile.Phone == nil || *d.Profile.Phone != "555-1234" {
		t.Fatalf("unexpected doctor: %+v", d.Profile)
	}

	docs, _ := svc.ListDoctors(ctx)
	if len(docs) != 1 {
		t.Fatalf("expected 1 doctor, got %d", len(docs))
	}

	spec := "surgery"
	up, err := svc.UpdateDoctor(ctx, d.User.ID, UpdateDoctorInput{Specialization: &spec})
	if err != nil {
		t.Fatalf("UpdateDoctor: %v", err)
	}
	if up.Profile.Specialization == nil || *up.Profile.Specialization != "surgery" {
		t.Fatalf("expected specialization updated")
	}
	if up.Profile.Phone == nil {
		t.Fatalf("phone must be untouched when nil")
	}

	if err := svc.DeleteDoctor(ctx, d.User.ID); err != nil {
		t.Fatalf("DeleteDoctor: %v", err)
	}
	if _, err := svc.GetByID(ctx, d.User.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected doctor deleted, got %v", err)
	}
}

func TestDeleteDoctor_RejectsNonDoctor(t *testing.T) {
	svc, _ := newTestService()
	a := mustRegister(t, svc, "ana", "user")

	if err := svc.DeleteDoctor(context.Background(), a.User.ID); !errors.Is(err, ErrNotDoctor) {
		t.Fatalf("expected ErrNotDoctor, got %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustRegister(t, svc, "ana", "user")

	if err := svc.SetPassword(ctx, a.User.ID, "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.SetPassword(ctx, a.User.ID, "new-password"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Username: "ana", Password: "new-password", Role: "user"}); err != nil {
		t.Fatalf("expected login with new password, got %v", err)
	}
}

func TestLogin_UnknownUserStillComparesHash(t *testing.T) {
	hasher := &countingHasher{}
	svc := NewService(newTestRepo(), hasher, nil)
	ctx := context.Background()

	if _, err := svc.Login(ctx, LoginInput{Username: "nobody", Password: "password123", Role: "user"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(hasher.checks) != 1 {
		t.Fatalf("expected one hash comparison for unknown user, got %d", len(hasher.checks))
	}
	if hasher.checks[0] == "" {
		t.Fatalf("comparison must run against a real hash")
	}

	// el hash de relleno se calcula una sola vez
	_, _ = svc.Login(ctx, LoginInput{Username: "ghost", Password: "password123", Role: "user"})
	if len(hasher.checks) != 2 || hasher.checks[1] != hasher.checks[0] {
		t.Fatalf("expected the same dummy hash reused, got %v", hasher.checks)
	}
}

func TestLogin_StoreFailureIsNotBadCredentials(t *testing.T) {
	svc, repo := newTestService()
	outage := errors.New("connection refused")
	repo.lookupErr = outage

	_, err := svc.Login(context.Background(), LoginInput{Username: "ana", Password: "password123", Role: "user"})
	if !errors.Is(err, outage) || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestGetByID_StoreFailureIsNotNotFound(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	outage := errors.New("connection refused")
	repo.lookupErr = outage
	_, err := svc.GetByID(ctx, "missing")
	if errors.Is(err, ErrNotFound) || !errors.Is(err, outage) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestDeleteDoctor_RunsHooksBeforeDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.AddDoctor(ctx, DoctorInput{Username: "dr-who", Email: "who@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("AddDoctor: %v", err)
	}

	var released []string
	svc.OnDelete(func(ctx context.Context, userID string) error {
		// la cuenta sigue existiendo mientras corren los hooks
		if _, err := svc.GetByID(ctx, userID); err != nil {
			t.Errorf("hook ran after delete: %v", err)
		}
		released = append(released, userID)
		return nil
	})

	if err := svc.DeleteDoctor(ctx, d.User.ID); err != nil {
		t.Fatalf("DeleteDoctor: %v", err)
	}
	if len(released) != 1 || released[0] != d.User.ID {
		t.Fatalf("expected hook for %s, got %v", d.User.ID, released)
	}
}

func TestDeleteDoctor_HookFailureKeepsAccount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.AddDoctor(ctx, DoctorInput{Username: "dr-who", Email: "who@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("AddDoctor: %v", err)
	}
	svc.OnDelete(func(ctx context.Context, userID string) error { return errors.New("boom") })

	if err := svc.DeleteDoctor(ctx, d.User.ID); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := svc.GetByID(ctx, d.User.ID); err != nil {
		t.Fatalf("doctor must survive failed cascade: %v", err)
	}
}
