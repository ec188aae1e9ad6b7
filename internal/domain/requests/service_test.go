package requests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"pet-adoption/internal/adapters/capabilities/rolepolicy"
	"pet-adoption/internal/authz"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	mu     sync.Mutex
	byID   map[string]Request
	getErr error
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Request{}}
}

func (r *testRepo) Create(ctx context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.byID {
		if x.IsPending() && x.Kind == req.Kind && x.PetID == req.PetID && x.RequesterID == req.RequesterID {
			return ErrDuplicatePending
		}
	}
	r.byID[req.ID] = req
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return Request{}, r.getErr
	}
	req, ok := r.byID[id]
	if !ok {
		return Request{}, storage.ErrNotFound
	}
	return req, nil
}

func (r *testRepo) Transition(ctx context.Context, id string, from, to Status, decidedBy string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return false, storage.ErrNotFound
	}
	if req.Status != from {
		return false, nil
	}
	req.Status, req.UpdatedAt = to, at
	req.DecidedAt, req.DecidedBy = nil, nil
	if to != StatusPending {
		req.DecidedAt, req.DecidedBy = &at, &decidedBy
	}
	r.byID[id] = req
	return true, nil
}

func (r *testRepo) AssignDoctor(ctx context.Context, id, doctorID string, onlyUnassigned bool, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return false, storage.ErrNotFound
	}
	if !req.IsPending() || (onlyUnassigned && req.DoctorID != nil) {
		return false, nil
	}
	req.DoctorID, req.UpdatedAt = &doctorID, at
	r.byID[id] = req
	return true, nil
}

func (r *testRepo) find(kind Kind, petID, requesterID string, pendingOnly bool) (Request, bool) {
	items, _ := r.List(context.Background(), Filter{Kind: kind, RequesterID: requesterID, PetIDs: []string{petID}})
	for _, req := range items {
		if !pendingOnly || req.IsPending() {
			return req, true
		}
	}
	return Request{}, false
}

func (r *testRepo) FindOpen(ctx context.Context, kind Kind, petID, requesterID string) (Request, bool, error) {
	req, ok := r.find(kind, petID, requesterID, true)
	return req, ok, nil
}

func (r *testRepo) FindLatest(ctx context.Context, kind Kind, petID, requesterID string) (Request, bool, error) {
	req, ok := r.find(kind, petID, requesterID, false)
	return req, ok, nil
}

func (r *testRepo) List(ctx context.Context, f Filter) ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var petSet map[string]bool
	if f.PetIDs != nil {
		petSet = map[string]bool{}
		for _, id := range f.PetIDs {
			petSet[id] = true
		}
	}
	out := make([]Request, 0)
	for _, req := range r.byID {
		if f.Kind != "" && req.Kind != f.Kind {
			continue
		}
		if f.RequesterID != "" && req.RequesterID != f.RequesterID {
			continue
		}
		if petSet != nil && !petSet[req.PetID] {
			continue
		}
		if f.ForDoctor != "" && req.DoctorID != nil && *req.DoctorID != f.ForDoctor {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, req := range r.byID {
		if req.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *testRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, req := range r.byID {
		if req.RequesterID == userID {
			delete(r.byID, id)
		} else if req.DoctorID != nil && *req.DoctorID == userID {
			req.DoctorID = nil
			r.byID[id] = req
		}
	}
	return nil
}

type fakePets struct {
	mu       sync.Mutex
	byID     map[string]pets.Pet
	adoptErr error
}

func (f *fakePets) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func (f *fakePets) ListBySeller(ctx context.Context, sellerID string) ([]pets.Pet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pets.Pet, 0)
	for _, p := range f.byID {
		if p.SellerUserID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePets) Adopt(ctx context.Context, petID, buyerID string) (pets.Pet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adoptErr != nil {
		return pets.Pet{}, f.adoptErr
	}
	p := f.byID[petID]
	if p.IsAdopted {
		return pets.Pet{}, pets.ErrAlreadyAdopted
	}
	p.IsAdopted = true
	p.BuyerUserID = &buyerID
	f.byID[petID] = p
	return p, nil
}

type fakeDoctors map[string]bool

func (f fakeDoctors) IsDoctor(ctx context.Context, id string) (bool, error) { return f[id], nil }

var (
	admin  = authz.Actor{UserID: "admin", Role: "admin"}
	seller = authz.Actor{UserID: "seller", Role: "user"}
	buyer  = authz.Actor{UserID: "buyer", Role: "user"}
	doc    = authz.Actor{UserID: "doc", Role: "doctor"}
	doc2   = authz.Actor{UserID: "doc2", Role: "doctor"}
)

func newTestService() (*Service, *fakePets) {
	svc, fp, _ := newTestServiceWithRepo()
	return svc, fp
}

func newTestServiceWithRepo() (*Service, *fakePets, *testRepo) {
	fp := &fakePets{byID: map[string]pets.Pet{
		"pet-1":   {ID: "pet-1", Name: "Rex", OwnerUserID: "seller", SellerUserID: "seller", IsApproved: true},
		"pending": {ID: "pending", Name: "Hidden", OwnerUserID: "seller", SellerUserID: "seller"},
	}}
	repo := newTestRepo()
	svc := NewService(repo, fp, fakeDoctors{"doc": true, "doc2": true}, rolepolicy.NewResolver(nil), nil)

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc, fp, repo
}

func TestCreate_ClearanceDedupesPending(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, created, err := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, StatusPending, first.Status)

	second, created, err := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	all, _ := svc.ListAll(ctx, KindClearance)
	assert.Len(t, all, 1)
}

func TestCreate_AfterDecisionAllowsNewRequest(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, _, err := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)
	_, err = svc.Decide(ctx, first.ID, admin, StatusRejected)
	require.NoError(t, err)

	_, created, err := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreate_Rules(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.Create(ctx, CreateInput{Kind: KindBuyer, PetID: "pet-1", RequesterID: "seller"})
	assert.ErrorIs(t, err, ErrInvalidInput, "own pet")

	_, _, err = svc.Create(ctx, CreateInput{Kind: KindAdoption, PetID: "pending", RequesterID: "buyer"})
	assert.ErrorIs(t, err, ErrBadState, "unapproved pet")

	_, _, err = svc.Create(ctx, CreateInput{Kind: KindSeller, PetID: "pet-1", RequesterID: "buyer"})
	assert.ErrorIs(t, err, ErrForbidden, "seller request by non-seller")

	_, _, err = svc.Create(ctx, CreateInput{Kind: KindBuyer, PetID: "missing", RequesterID: "buyer"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer", DoctorID: "buyer"})
	assert.ErrorIs(t, err, ErrInvalidInput, "doctor_id must be a doctor")

	_, _, err = svc.Create(ctx, CreateInput{Kind: "grooming", PetID: "pet-1", RequesterID: "buyer"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecide_BuyerBySellerAdoptsPet(t *testing.T) {
	svc, fp := newTestService()
	ctx := context.Background()

	req, _, err := svc.Create(ctx, CreateInput{Kind: KindBuyer, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)

	_, err = svc.Decide(ctx, req.ID, buyer, StatusApproved)
	assert.ErrorIs(t, err, ErrForbidden, "requester cannot decide")
	_, err = svc.Decide(ctx, req.ID, admin, StatusApproved)
	assert.ErrorIs(t, err, ErrForbidden, "buyer requests belong to the seller")

	got, err := svc.Decide(ctx, req.ID, seller, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)
	require.NotNil(t, got.DecidedBy)
	assert.Equal(t, "seller", *got.DecidedBy)

	p, _ := fp.GetByID(ctx, "pet-1")
	assert.True(t, p.IsAdopted)
	require.NotNil(t, p.BuyerUserID)
	assert.Equal(t, "buyer", *p.BuyerUserID)
}

func TestDecide_TerminalIsConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, _, err := svc.Create(ctx, CreateInput{Kind: KindAdoption, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)
	_, err = svc.Decide(ctx, req.ID, seller, StatusRejected)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, req.ID, seller, StatusApproved)
	assert.ErrorIs(t, err, ErrBadState)

	_, err = svc.Decide(ctx, req.ID, seller, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecide_SellerRequestNeedsAdmin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, _, err := svc.Create(ctx, CreateInput{Kind: KindSeller, PetID: "pet-1", RequesterID: "seller"})
	require.NoError(t, err)

	_, err = svc.Decide(ctx, req.ID, seller, StatusApproved)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Decide(ctx, req.ID, admin, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)
}

func TestClearance_AssignAndDecide(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, _, err := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)

	// sin asignar: el doctor no decide
	_, err = svc.Decide(ctx, req.ID, doc, StatusApproved)
	assert.ErrorIs(t, err, ErrForbidden)

	// un doctor toma la solicitud
	got, err := svc.Assign(ctx, req.ID, doc, "")
	require.NoError(t, err)
	require.NotNil(t, got.DoctorID)
	assert.Equal(t, "doc", *got.DoctorID)

	// otro doctor no puede robarla
	_, err = svc.Assign(ctx, req.ID, doc2, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Decide(ctx, req.ID, doc2, StatusApproved)
	assert.ErrorIs(t, err, ErrForbidden)

	// admin reasigna
	got, err = svc.Assign(ctx, req.ID, admin, "doc2")
	require.NoError(t, err)
	assert.Equal(t, "doc2", *got.DoctorID)

	got, err = svc.Decide(ctx, req.ID, doc2, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)

	_, err = svc.Assign(ctx, req.ID, admin, "doc")
	assert.ErrorIs(t, err, ErrBadState)
}

func TestListForDoctor_AssignedAndUnassigned(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, _, _ := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})
	b, _, _ := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "other", DoctorID: "doc2"})
	_, _, _ = svc.Create(ctx, CreateInput{Kind: KindBuyer, PetID: "pet-1", RequesterID: "buyer"})

	mine, err := svc.ListForDoctor(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	theirs, err := svc.ListForDoctor(ctx, "doc2")
	require.NoError(t, err)
	ids := []string{theirs[0].ID, theirs[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestListForSellerAndMine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _, _ = svc.Create(ctx, CreateInput{Kind: KindBuyer, PetID: "pet-1", RequesterID: "buyer"})
	_, _, _ = svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})

	incoming, err := svc.ListForSeller(ctx, "seller", KindBuyer)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	none, err := svc.ListForSeller(ctx, "buyer", "")
	require.NoError(t, err)
	assert.Empty(t, none)

	mine, err := svc.ListMine(ctx, "buyer", "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	status, found, err := svc.ClearanceStatus(ctx, "pet-1", "buyer")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, string(StatusPending), status)
}

func TestDeleteByPet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, _, _ := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, svc.DeleteByPet(ctx, "pet-1"))

	_, err := svc.Get(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecide_ConcurrentDecisionsOnlyOneWins(t *testing.T) {
	svc, fp := newTestService()
	ctx := context.Background()
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }

	req, _, err := svc.Create(ctx, CreateInput{Kind: KindBuyer, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)

	targets := []Status{StatusApproved, StatusRejected, StatusApproved, StatusRejected}
	results := make([]error, len(targets))
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to Status) {
			defer wg.Done()
			<-start
			_, results[i] = svc.Decide(ctx, req.ID, seller, to)
		}(i, to)
	}
	close(start)
	wg.Wait()

	var winner Status
	wins := 0
	for i, err := range results {
		if err == nil {
			wins++
			winner = targets[i]
			continue
		}
		assert.ErrorIs(t, err, ErrBadState)
	}
	require.Equal(t, 1, wins, "exactly one decision must win")

	stored, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, stored.Status)

	p, _ := fp.GetByID(ctx, "pet-1")
	assert.Equal(t, winner == StatusApproved, p.IsAdopted, "adoption must match the stored decision")
}

func TestDecide_AdoptFailureKeepsRequestPending(t *testing.T) {
	svc, fp := newTestService()
	ctx := context.Background()

	req, _, err := svc.Create(ctx, CreateInput{Kind: KindAdoption, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)

	outage := errors.New("pets store unavailable")
	fp.adoptErr = outage
	_, err = svc.Decide(ctx, req.ID, seller, StatusApproved)
	require.ErrorIs(t, err, outage)

	stored, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Nil(t, stored.DecidedBy)
	assert.Nil(t, stored.DecidedAt)

	// al volver el store la misma solicitud se puede aprobar
	fp.adoptErr = nil
	got, err := svc.Decide(ctx, req.ID, seller, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)
}

func TestDecide_PetAdoptedMeanwhileIsConflict(t *testing.T) {
	svc, fp := newTestService()
	ctx := context.Background()

	req, _, err := svc.Create(ctx, CreateInput{Kind: KindBuyer, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)

	// otro comprador ganó la adopción después de la lectura de la mascota
	fp.adoptErr = pets.ErrAlreadyAdopted
	_, err = svc.Decide(ctx, req.ID, seller, StatusApproved)
	assert.ErrorIs(t, err, ErrBadState)

	stored, _ := svc.Get(ctx, req.ID)
	assert.Equal(t, StatusPending, stored.Status, "request must not read Approved without an adoption")
}

func TestAssign_ConcurrentClaimsOnlyOneWins(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }

	req, _, err := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer"})
	require.NoError(t, err)

	doctors := []authz.Actor{doc, doc2}
	results := make([]error, len(doctors))
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i, d := range doctors {
		wg.Add(1)
		go func(i int, d authz.Actor) {
			defer wg.Done()
			<-start
			_, results[i] = svc.Assign(ctx, req.ID, d, "")
		}(i, d)
	}
	close(start)
	wg.Wait()

	var winner string
	wins := 0
	for i, err := range results {
		if err == nil {
			wins++
			winner = doctors[i].UserID
			continue
		}
		assert.ErrorIs(t, err, ErrForbidden)
	}
	require.Equal(t, 1, wins)

	stored, _ := svc.Get(ctx, req.ID)
	require.NotNil(t, stored.DoctorID)
	assert.Equal(t, winner, *stored.DoctorID)
}

func TestDeleteByUser_ReleasesAssignedClearance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	assigned, _, err := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "buyer", DoctorID: "doc"})
	require.NoError(t, err)
	own, _, err := svc.Create(ctx, CreateInput{Kind: KindClearance, PetID: "pet-1", RequesterID: "doc"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByUser(ctx, "doc"))

	_, err = svc.Get(ctx, own.ID)
	assert.ErrorIs(t, err, ErrNotFound, "requests made by the deleted user go away")

	released, err := svc.Get(ctx, assigned.ID)
	require.NoError(t, err)
	assert.Nil(t, released.DoctorID)

	got, err := svc.Assign(ctx, assigned.ID, doc2, "")
	require.NoError(t, err, "another doctor can claim the released clearance")
	assert.Equal(t, "doc2", *got.DoctorID)
}

func TestGet_StoreFailureIsNotNotFound(t *testing.T) {
	svc, _, repo := newTestServiceWithRepo()
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	outage := errors.New("connection reset")
	repo.getErr = outage
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, outage)
	assert.NotErrorIs(t, err, ErrNotFound)
}
