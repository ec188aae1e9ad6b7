package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pet-adoption/internal/domain/messaging"
	"pet-adoption/internal/domain/passwordreset"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/requests"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/storage"
)

func TestRequestRepo_PendingUniqueUnderConcurrency(t *testing.T) {
	repo := NewRequestRepo()
	ctx := context.Background()

	var ok, dup int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, requests.Request{
				ID:          string(rune('a' + i)),
				Kind:        requests.KindClearance,
				PetID:       "pet-1",
				RequesterID: "u1",
				Status:      requests.StatusPending,
			})
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, requests.ErrDuplicatePending):
				atomic.AddInt32(&dup, 1)
			}
		}(i)
	}
	wg.Wait()

	if ok != 1 || dup != 19 {
		t.Fatalf("expected 1 created / 19 duplicates, got %d / %d", ok, dup)
	}
}

func TestRequestRepo_ForDoctorFilter(t *testing.T) {
	repo := NewRequestRepo()
	ctx := context.Background()
	doc := "doc"
	other := "other"

	_ = repo.Create(ctx, requests.Request{ID: "1", Kind: requests.KindClearance, PetID: "p", RequesterID: "a", Status: requests.StatusPending})
	_ = repo.Create(ctx, requests.Request{ID: "2", Kind: requests.KindClearance, PetID: "p", RequesterID: "b", Status: requests.StatusPending, DoctorID: &doc})
	_ = repo.Create(ctx, requests.Request{ID: "3", Kind: requests.KindClearance, PetID: "p", RequesterID: "c", Status: requests.StatusPending, DoctorID: &other})
	_ = repo.Create(ctx, requests.Request{ID: "4", Kind: requests.KindBuyer, PetID: "p", RequesterID: "d", Status: requests.StatusPending})

	got, err := repo.List(ctx, requests.Filter{ForDoctor: doc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected assigned + unassigned clearance, got %d", len(got))
	}
}

func TestResetTokenStore_ConsumeOnce(t *testing.T) {
	s := NewResetTokenStore()
	ctx := context.Background()
	_ = s.Save(ctx, passwordreset.Token{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)})

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Consume(ctx, "tok"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one consumer, got %d", wins)
	}
	if _, err := s.Get(ctx, "tok"); !errors.Is(err, passwordreset.ErrTokenNotFound) {
		t.Fatalf("expected token gone, got %v", err)
	}
}

func TestRevocationStore(t *testing.T) {
	s := NewRevocationStore()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Revoke(ctx, "jti-1", now.Add(time.Minute))

	if revoked, _ := s.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("expected revoked")
	}
	now = now.Add(2 * time.Minute)
	if revoked, _ := s.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("revocation must lapse with the token")
	}
}

func TestUserRepo_SetActiveAndConflict(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	a := users.Account{
		User:    users.User{ID: "u1", Username: "Ana", IsActive: true},
		Profile: users.Profile{UserID: "u1", Role: users.RoleUser, Status: users.StatusActive},
	}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := a
	dup.User.ID = "u2"
	dup.User.Username = "ana"
	if err := repo.Create(ctx, dup); !errors.Is(err, users.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := repo.SetActive(ctx, "u1", false, time.Now()); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, _ := repo.GetByID(ctx, "u1")
	if got.User.IsActive || got.Profile.Status != users.StatusInactive {
		t.Fatalf("flags diverged: %v / %s", got.User.IsActive, got.Profile.Status)
	}
}

func TestMessageRepo_ThreadOrder(t *testing.T) {
	repo := NewMessageRepo()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = repo.Create(ctx, messaging.Message{ID: "m2", PetID: "p", SenderID: "b", ReceiverID: "a", CreatedAt: base.Add(time.Second)})
	_ = repo.Create(ctx, messaging.Message{ID: "m1", PetID: "p", SenderID: "a", ReceiverID: "b", CreatedAt: base})
	_ = repo.Create(ctx, messaging.Message{ID: "m3", PetID: "p", SenderID: "a", ReceiverID: "c", CreatedAt: base})

	got, _ := repo.ListThread(ctx, "p", "a", "b")
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("unexpected thread: %+v", got)
	}
}

func TestRequestRepo_TransitionIsCompareAndSet(t *testing.T) {
	repo := NewRequestRepo()
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, requests.Request{ID: "r1", Kind: requests.KindBuyer, PetID: "p", RequesterID: "b", Status: requests.StatusPending})

	var won int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		to := requests.StatusApproved
		if i%2 == 1 {
			to = requests.StatusRejected
		}
		wg.Add(1)
		go func(to requests.Status) {
			defer wg.Done()
			ok, err := repo.Transition(ctx, "r1", requests.StatusPending, to, "seller", at)
			if err != nil {
				t.Errorf("Transition: %v", err)
			}
			if ok {
				atomic.AddInt32(&won, 1)
			}
		}(to)
	}
	wg.Wait()
	if won != 1 {
		t.Fatalf("expected exactly one transition, got %d", won)
	}

	// volver a Pending limpia la decisión
	got, _ := repo.GetByID(ctx, "r1")
	if ok, err := repo.Transition(ctx, "r1", got.Status, requests.StatusPending, "", at); err != nil || !ok {
		t.Fatalf("reopen: ok=%v err=%v", ok, err)
	}
	got, _ = repo.GetByID(ctx, "r1")
	if got.DecidedAt != nil || got.DecidedBy != nil {
		t.Fatalf("reopened request must not keep decision fields: %+v", got)
	}

	if _, err := repo.Transition(ctx, "missing", requests.StatusPending, requests.StatusApproved, "x", at); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestRequestRepo_AssignDoctorOnlyUnassigned(t *testing.T) {
	repo := NewRequestRepo()
	ctx := context.Background()
	at := time.Now()
	_ = repo.Create(ctx, requests.Request{ID: "r1", Kind: requests.KindClearance, PetID: "p", RequesterID: "b", Status: requests.StatusPending})

	if ok, _ := repo.AssignDoctor(ctx, "r1", "doc", true, at); !ok {
		t.Fatalf("first claim must win")
	}
	if ok, _ := repo.AssignDoctor(ctx, "r1", "doc2", true, at); ok {
		t.Fatalf("second claim must not steal the request")
	}
	if ok, _ := repo.AssignDoctor(ctx, "r1", "doc2", false, at); !ok {
		t.Fatalf("reassignment must succeed while pending")
	}

	_, _ = repo.Transition(ctx, "r1", requests.StatusPending, requests.StatusApproved, "doc2", at)
	if ok, _ := repo.AssignDoctor(ctx, "r1", "doc", false, at); ok {
		t.Fatalf("decided request must not be reassigned")
	}
}

func TestRequestRepo_DeleteByUser(t *testing.T) {
	repo := NewRequestRepo()
	ctx := context.Background()
	doc := "doc"

	_ = repo.Create(ctx, requests.Request{ID: "assigned", Kind: requests.KindClearance, PetID: "p", RequesterID: "b", Status: requests.StatusPending, DoctorID: &doc})
	_ = repo.Create(ctx, requests.Request{ID: "own", Kind: requests.KindClearance, PetID: "p", RequesterID: "doc", Status: requests.StatusPending})

	if err := repo.DeleteByUser(ctx, "doc"); err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	if _, err := repo.GetByID(ctx, "own"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected own request deleted, got %v", err)
	}
	got, err := repo.GetByID(ctx, "assigned")
	if err != nil || got.DoctorID != nil {
		t.Fatalf("expected assignment cleared, got %+v err=%v", got, err)
	}

	// el doctor borrado ya no aparece en la cola de nadie; cualquier doctor la ve sin asignar
	queue, _ := repo.List(ctx, requests.Filter{ForDoctor: "doc2"})
	if len(queue) != 1 || queue[0].ID != "assigned" {
		t.Fatalf("expected released clearance in doc2 queue, got %+v", queue)
	}
}

func TestPetRepo_SetAdoptedOnce(t *testing.T) {
	repo := NewPetRepo()
	ctx := context.Background()
	at := time.Now()
	_ = repo.Create(ctx, pets.Pet{ID: "p1", Name: "Rex", OwnerUserID: "s", SellerUserID: "s", IsApproved: true})

	first, second := "buyer-1", "buyer-2"
	if ok, err := repo.SetAdopted(ctx, "p1", &first, at); err != nil || !ok {
		t.Fatalf("first adoption: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.SetAdopted(ctx, "p1", &second, at); err != nil || ok {
		t.Fatalf("second adoption must be refused: ok=%v err=%v", ok, err)
	}

	// un Update con una copia vieja no deshace la adopción
	_ = repo.Update(ctx, pets.Pet{ID: "p1", Name: "Rex II", OwnerUserID: "s", SellerUserID: "s", IsApproved: true})
	got, _ := repo.GetByID(ctx, "p1")
	if !got.IsAdopted || got.BuyerUserID == nil || *got.BuyerUserID != first || got.Name != "Rex II" {
		t.Fatalf("unexpected pet after stale update: %+v", got)
	}

	if _, err := repo.SetAdopted(ctx, "missing", nil, at); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestMessageRepo_DeleteByUser(t *testing.T) {
	repo := NewMessageRepo()
	ctx := context.Background()
	now := time.Now()

	_ = repo.Create(ctx, messaging.Message{ID: "1", PetID: "p", SenderID: "doc", ReceiverID: "s", Content: "a", CreatedAt: now})
	_ = repo.Create(ctx, messaging.Message{ID: "2", PetID: "p", SenderID: "s", ReceiverID: "doc", Content: "b", CreatedAt: now})
	_ = repo.Create(ctx, messaging.Message{ID: "3", PetID: "p", SenderID: "u", ReceiverID: "s", Content: "c", CreatedAt: now})

	if err := repo.DeleteByUser(ctx, "doc"); err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	left, _ := repo.ListByPets(ctx, []string{"p"})
	if len(left) != 1 || left[0].ID != "3" {
		t.Fatalf("expected only unrelated message left, got %+v", left)
	}
}
