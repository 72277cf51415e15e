package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/db"
	"github.com/Novice130/At-tayyibun/internal/models"
)

// fakeStore is an in-memory Store implementation.
type fakeStore struct {
	users    map[uuid.UUID]*models.User // keyed by internal id
	profiles map[uuid.UUID]*models.Profile
	photos   map[uuid.UUID]*models.Photo // primary photo per user
	requests map[uuid.UUID]*models.InfoRequest
	tokens   map[string]*models.ShareToken

	recentClosed bool
	createErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uuid.UUID]*models.User),
		profiles: make(map[uuid.UUID]*models.Profile),
		photos:   make(map[uuid.UUID]*models.Photo),
		requests: make(map[uuid.UUID]*models.InfoRequest),
		tokens:   make(map[string]*models.ShareToken),
	}
}

func (f *fakeStore) addUser(name string) *models.User {
	u := &models.User{
		ID:       uuid.New(),
		PublicID: uuid.New(),
		Email:    name + "@example.com",
		Name:     name,
		Active:   true,
	}
	f.users[u.ID] = u
	f.profiles[u.ID] = &models.Profile{UserID: u.ID, FirstName: name, Phone: "+15550000000"}
	return u
}

func (f *fakeStore) GetUserByPublicID(_ context.Context, publicID uuid.UUID) (*models.User, error) {
	for _, u := range f.users {
		if u.PublicID == publicID {
			return u, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) GetProfileByUserID(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, db.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeStore) GetPrimaryPhoto(_ context.Context, userID uuid.UUID) (*models.Photo, error) {
	p, ok := f.photos[userID]
	if !ok {
		return nil, db.ErrPhotoNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateInfoRequest(_ context.Context, req *models.InfoRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.requests {
		if r.RequesterID == req.RequesterID && r.Status == models.StatusPending {
			return db.ErrPendingExists
		}
	}
	req.ID = uuid.New()
	req.Status = models.StatusPending
	req.CreatedAt = time.Now()
	f.requests[req.ID] = req
	return nil
}

func (f *fakeStore) GetInfoRequestByID(_ context.Context, id uuid.UUID) (*models.InfoRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, db.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) GetPendingRequestByRequester(_ context.Context, requesterID uuid.UUID) (*models.InfoRequest, error) {
	for _, r := range f.requests {
		if r.RequesterID == requesterID && r.Status == models.StatusPending {
			return r, nil
		}
	}
	return nil, db.ErrRequestNotFound
}

func (f *fakeStore) HasRecentClosedRequest(_ context.Context, _, _ uuid.UUID, _ time.Time) (bool, error) {
	return f.recentClosed, nil
}

func (f *fakeStore) ApproveInfoRequest(_ context.Context, id uuid.UUID, granted models.ShareScope, respondedAt time.Time, tokens []*models.ShareToken) error {
	r, ok := f.requests[id]
	if !ok || r.Status != models.StatusPending {
		return db.ErrRequestNotPending
	}
	r.Status = models.StatusApproved
	r.GrantedScope = granted
	r.RespondedAt = &respondedAt
	for _, tok := range tokens {
		tok.ID = uuid.New()
		f.tokens[tok.Token] = tok
	}
	return nil
}

func (f *fakeStore) DenyInfoRequest(_ context.Context, id uuid.UUID, respondedAt time.Time) error {
	r, ok := f.requests[id]
	if !ok || r.Status != models.StatusPending {
		return db.ErrRequestNotPending
	}
	r.Status = models.StatusDenied
	r.RespondedAt = &respondedAt
	return nil
}

func (f *fakeStore) ExpireInfoRequest(_ context.Context, id uuid.UUID) error {
	r, ok := f.requests[id]
	if !ok || r.Status != models.StatusPending {
		return db.ErrRequestNotPending
	}
	r.Status = models.StatusExpired
	return nil
}

func (f *fakeStore) RedeemShareToken(_ context.Context, token string, now time.Time) (*models.ShareToken, error) {
	tok, ok := f.tokens[token]
	if !ok {
		return nil, db.ErrTokenNotFound
	}
	if tok.RedeemedAt != nil || now.After(tok.ExpiresAt) {
		return nil, db.ErrTokenSpent
	}
	tok.RedeemedAt = &now
	cp := *tok
	return &cp, nil
}

// fakeLocker tracks held locks in memory.
type fakeLocker struct {
	held       map[uuid.UUID]bool
	acquireErr error
	acquires   int
	releases   int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[uuid.UUID]bool)}
}

func (f *fakeLocker) Acquire(_ context.Context, requesterID uuid.UUID, _ time.Duration) (bool, error) {
	f.acquires++
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held[requesterID] {
		return false, nil
	}
	f.held[requesterID] = true
	return true, nil
}

func (f *fakeLocker) Release(_ context.Context, requesterID uuid.UUID) error {
	f.releases++
	delete(f.held, requesterID)
	return nil
}

// fakeSigner returns deterministic URLs.
type fakeSigner struct{}

func (fakeSigner) SignedGetURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://signed.example/" + objectKey, nil
}

func newTestService(store *fakeStore, locker *fakeLocker) *Service {
	return NewService(store, locker, fakeSigner{}, nil, Options{
		ExpiryWindow: 24 * time.Hour,
		TokenTTL:     24 * time.Hour,
		SignedURLTTL: time.Hour,
	})
}

func TestCreateRequest(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")

	req, err := svc.Create(ctx, requester, target.PublicID, models.SharePhoto|models.SharePhone)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if req.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.TargetID != target.ID {
		t.Errorf("target = %v, want %v", req.TargetID, target.ID)
	}
	if !locker.held[requester.ID] {
		t.Error("expected requester lock to be held")
	}
	if req.ExpiresAt.Before(time.Now().Add(23 * time.Hour)) {
		t.Errorf("expires_at too soon: %v", req.ExpiresAt)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")

	if _, err := svc.Create(ctx, requester, target.PublicID, models.ShareNone); !errors.Is(err, ErrEmptyScope) {
		t.Errorf("empty scope: err = %v, want ErrEmptyScope", err)
	}

	if _, err := svc.Create(ctx, requester, requester.PublicID, models.SharePhone); !errors.Is(err, ErrSelfRequest) {
		t.Errorf("self request: err = %v, want ErrSelfRequest", err)
	}

	if _, err := svc.Create(ctx, requester, uuid.New(), models.SharePhone); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("unknown target: err = %v, want ErrTargetNotFound", err)
	}

	target.Active = false
	if _, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("inactive target: err = %v, want ErrTargetNotFound", err)
	}

	if locker.acquires != 0 {
		t.Errorf("validation failures must not touch the lock, got %d acquires", locker.acquires)
	}
}

func TestCreateRequestConflict(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	first := store.addUser("aisha")
	second := store.addUser("maryam")

	if _, err := svc.Create(ctx, requester, first.PublicID, models.SharePhone); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Second request while the first is pending must conflict, even against
	// a different target.
	if _, err := svc.Create(ctx, requester, second.PublicID, models.SharePhone); !errors.Is(err, ErrActiveRequestExists) {
		t.Errorf("err = %v, want ErrActiveRequestExists", err)
	}
}

func TestCreateRequestStaleLockRecovery(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")

	// Lock held in Redis with no pending request behind it (crash between
	// lock and insert). Create must clear it and proceed.
	locker.held[requester.ID] = true

	req, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone)
	if err != nil {
		t.Fatalf("Create failed to recover stale lock: %v", err)
	}
	if req.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if locker.acquires != 2 {
		t.Errorf("acquires = %d, want 2 (initial failure plus retry)", locker.acquires)
	}
}

func TestCreateRequestReleasesLockOnInsertFailure(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")

	store.createErr = errors.New("insert blew up")

	if _, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone); err == nil {
		t.Fatal("expected Create to fail")
	}
	if locker.held[requester.ID] {
		t.Error("lock must be released when the insert fails")
	}
}

func TestCreateRequestCooldown(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := NewService(store, locker, fakeSigner{}, nil, Options{Cooldown: time.Hour})
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")
	store.recentClosed = true

	if _, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone); !errors.Is(err, ErrCooldownActive) {
		t.Errorf("err = %v, want ErrCooldownActive", err)
	}
}

func TestRespondApprove(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")
	store.photos[target.ID] = &models.Photo{ID: uuid.New(), UserID: target.ID, ObjectKey: "photos/x.jpg", Uploaded: true, IsPrimary: true}

	req, err := svc.Create(ctx, requester, target.PublicID, models.SharePhoto|models.SharePhone|models.ShareEmail)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Target grants a narrower scope than requested.
	updated, err := svc.Respond(ctx, target, req.ID, true, models.SharePhoto|models.SharePhone)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if updated.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved", updated.Status)
	}
	if updated.GrantedScope != models.SharePhoto|models.SharePhone {
		t.Errorf("granted = %v", updated.GrantedScope)
	}
	if len(store.tokens) != 2 {
		t.Errorf("minted %d tokens, want 2", len(store.tokens))
	}
	for _, tok := range store.tokens {
		if tok.RequestID != req.ID || tok.TargetID != target.ID {
			t.Errorf("token wired to wrong request: %+v", tok)
		}
	}
	if locker.held[requester.ID] {
		t.Error("lock must be released after approval")
	}
}

func TestRespondApproveDefaultGrant(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")

	req, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone|models.ShareEmail)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Approving without an explicit grant shares the full requested scope.
	updated, err := svc.Respond(ctx, target, req.ID, true, models.ShareNone)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if updated.GrantedScope != models.SharePhone|models.ShareEmail {
		t.Errorf("granted = %v, want full requested scope", updated.GrantedScope)
	}
	if len(store.tokens) != 2 {
		t.Errorf("minted %d tokens, want 2", len(store.tokens))
	}
}

func TestRespondApproveSkipsPhotoWithoutPrimary(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha") // no primary photo

	req, err := svc.Create(ctx, requester, target.PublicID, models.SharePhoto|models.ShareEmail)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Respond(ctx, target, req.ID, true, models.ShareAll); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	if len(store.tokens) != 1 {
		t.Fatalf("minted %d tokens, want 1 (photo skipped)", len(store.tokens))
	}
	for _, tok := range store.tokens {
		if tok.Kind != models.ShareKindEmail {
			t.Errorf("token kind = %q, want email", tok.Kind)
		}
	}
}

func TestRespondDeny(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")

	req, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Respond(ctx, target, req.ID, false, models.ShareNone)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if updated.Status != models.StatusDenied {
		t.Errorf("status = %q, want denied", updated.Status)
	}
	if len(store.tokens) != 0 {
		t.Errorf("deny must not mint tokens, got %d", len(store.tokens))
	}
	if locker.held[requester.ID] {
		t.Error("lock must be released after denial")
	}

	// Requester can open a new request immediately.
	if _, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone); err != nil {
		t.Errorf("Create after denial failed: %v", err)
	}
}

func TestRespondGuards(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")
	stranger := store.addUser("omar")

	req, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Respond(ctx, target, uuid.New(), false, models.ShareNone); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("unknown request: err = %v, want ErrRequestNotFound", err)
	}
	if _, err := svc.Respond(ctx, stranger, req.ID, false, models.ShareNone); !errors.Is(err, ErrNotRequestTarget) {
		t.Errorf("wrong target: err = %v, want ErrNotRequestTarget", err)
	}
	if _, err := svc.Respond(ctx, target, req.ID, true, models.ShareEmail); !errors.Is(err, ErrEmptyGrant) {
		t.Errorf("disjoint grant: err = %v, want ErrEmptyGrant", err)
	}

	if _, err := svc.Respond(ctx, target, req.ID, false, models.ShareNone); err != nil {
		t.Fatalf("deny failed: %v", err)
	}
	if _, err := svc.Respond(ctx, target, req.ID, false, models.ShareNone); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("double respond: err = %v, want ErrAlreadyProcessed", err)
	}
}

func TestRespondExpiredRequest(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")

	req, err := svc.Create(ctx, requester, target.PublicID, models.SharePhone)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Push the deadline into the past.
	store.requests[req.ID].ExpiresAt = time.Now().Add(-time.Minute)

	if _, err := svc.Respond(ctx, target, req.ID, true, models.SharePhone); !errors.Is(err, ErrRequestExpired) {
		t.Fatalf("err = %v, want ErrRequestExpired", err)
	}

	// The side effect must match what the sweeper would have done.
	if store.requests[req.ID].Status != models.StatusExpired {
		t.Errorf("status = %q, want expired", store.requests[req.ID].Status)
	}
	if locker.held[requester.ID] {
		t.Error("lock must be released when expiry is detected")
	}
}

func TestRedeem(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	requester := store.addUser("rahim")
	target := store.addUser("aisha")
	store.photos[target.ID] = &models.Photo{ID: uuid.New(), UserID: target.ID, ObjectKey: "photos/a/b.jpg", Uploaded: true, IsPrimary: true}

	req, err := svc.Create(ctx, requester, target.PublicID, models.ShareAll)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Respond(ctx, target, req.ID, true, models.ShareAll); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	byKind := make(map[string]string)
	for value, tok := range store.tokens {
		byKind[tok.Kind] = value
	}

	photoRes, err := svc.Redeem(ctx, byKind[models.ShareKindPhoto])
	if err != nil {
		t.Fatalf("photo redeem failed: %v", err)
	}
	if photoRes.PhotoURL != "https://signed.example/photos/a/b.jpg" {
		t.Errorf("photo url = %q", photoRes.PhotoURL)
	}

	phoneRes, err := svc.Redeem(ctx, byKind[models.ShareKindPhone])
	if err != nil {
		t.Fatalf("phone redeem failed: %v", err)
	}
	if phoneRes.Phone != "+15550000000" {
		t.Errorf("phone = %q", phoneRes.Phone)
	}

	emailRes, err := svc.Redeem(ctx, byKind[models.ShareKindEmail])
	if err != nil {
		t.Fatalf("email redeem failed: %v", err)
	}
	if emailRes.Email != target.Email {
		t.Errorf("email = %q, want %q", emailRes.Email, target.Email)
	}

	// Second use of any token must fail with the merged sentinel.
	if _, err := svc.Redeem(ctx, byKind[models.ShareKindPhone]); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("spent token: err = %v, want ErrTokenInvalid", err)
	}
	if _, err := svc.Redeem(ctx, "no-such-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("unknown token: err = %v, want ErrTokenInvalid", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestService(store, locker)
	ctx := context.Background()

	store.tokens["stale"] = &models.ShareToken{
		ID:        uuid.New(),
		Token:     "stale",
		RequestID: uuid.New(),
		TargetID:  uuid.New(),
		Kind:      models.ShareKindEmail,
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	if _, err := svc.Redeem(ctx, "stale"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestGenerateTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := generateToken()
		if err != nil {
			t.Fatalf("generateToken failed: %v", err)
		}
		if len(tok) < 40 {
			t.Fatalf("token too short: %q", tok)
		}
		if seen[tok] {
			t.Fatal("duplicate token generated")
		}
		seen[tok] = true
	}
}
