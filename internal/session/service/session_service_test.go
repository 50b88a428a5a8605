package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/platform/logging"
	"identity-platform/backend/internal/platform/pagination"
	"identity-platform/backend/internal/security"
	"identity-platform/backend/internal/session/domain"
	"identity-platform/backend/internal/session/repository"
)

var start = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

// memRepo is an in-memory repository.Repository with the same compare-and-swap revocation as the real stores.
type memRepo struct {
	mu      sync.Mutex
	byToken map[string]domain.Props
	ids     map[string]entity.ID
	saveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{byToken: make(map[string]domain.Props), ids: make(map[string]entity.ID)}
}

func (m *memRepo) Save(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	key := s.AccessToken().String()
	p := s.Props()
	if p.RevokedAt == nil {
		m.byToken[key] = p
		m.ids[key] = s.ID()
		return nil
	}
	stored, ok := m.byToken[key]
	if !ok || stored.RevokedAt != nil {
		return repository.ErrStaleSession
	}
	m.byToken[key] = p
	return nil
}

func (m *memRepo) FindByAccessToken(ctx context.Context, token domain.AccessToken) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byToken[token.String()]
	if !ok {
		return nil, nil
	}
	return domain.Restore(m.ids[token.String()], p)
}

func (m *memRepo) FindActiveByRecipientAndToken(ctx context.Context, recipientID entity.ID, token domain.AccessToken, now time.Time) (*domain.Session, error) {
	s, err := m.FindByAccessToken(ctx, token)
	if err != nil || s == nil {
		return nil, err
	}
	if !s.RecipientID().Equal(recipientID) || !s.IsActive(now) {
		return nil, nil
	}
	return s, nil
}

func (m *memRepo) ListActiveByRecipient(ctx context.Context, recipientID entity.ID, now time.Time, page pagination.Params) ([]domain.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Summary
	for k, p := range m.byToken {
		if p.RecipientID.Equal(recipientID) && p.RevokedAt == nil && now.Before(p.ExpiresAt) {
			out = append(out, domain.Summary{ID: m.ids[k], RecipientID: recipientID, CreatedAt: p.CreatedAt, ExpiresAt: p.ExpiresAt})
		}
	}
	return out, nil
}

// fakeEncrypter returns sequential tokens valid for ttl from the clock's now.
type fakeEncrypter struct {
	clock    clockwork.Clock
	ttl      time.Duration
	n        int
	payloads []security.Payload
	err      error
}

func (f *fakeEncrypter) Encrypt(payload security.Payload) (security.Token, error) {
	if f.err != nil {
		return security.Token{}, f.err
	}
	f.n++
	f.payloads = append(f.payloads, payload)
	return security.Token{
		AccessToken: "token-" + string(rune('a'+f.n-1)),
		ExpiresAt:   f.clock.Now().Add(f.ttl),
	}, nil
}

func setup(t *testing.T, ttl time.Duration) (*SessionService, *memRepo, *fakeEncrypter, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(start)
	repo := newMemRepo()
	enc := &fakeEncrypter{clock: clock, ttl: ttl}
	return NewSessionService(repo, enc, clock, nil, logging.Discard()), repo, enc, clock
}

func leftIs(t *testing.T, e interface{ IsLeft() bool }, err error, target error) {
	t.Helper()
	if !e.IsLeft() {
		t.Fatalf("want Left(%v), got Right", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("want %v, got %v", target, err)
	}
}

func TestIssueSession_Success(t *testing.T) {
	svc, repo, enc, _ := setup(t, 10*time.Minute)
	recipient := entity.MustParseID("user-1")

	res := svc.IssueSession(context.Background(), recipient, security.Payload{"role": "member"})
	if !res.IsRight() {
		t.Fatalf("IssueSession: %v", res.LeftValue())
	}
	issued := res.RightValue()
	if issued.AccessToken.String() != "token-a" || !issued.ExpiresAt.Equal(start.Add(10*time.Minute)) {
		t.Errorf("issued = %+v", issued)
	}
	if enc.payloads[0][security.SubjectClaim] != "user-1" || enc.payloads[0]["role"] != "member" {
		t.Errorf("payload = %v", enc.payloads[0])
	}
	stored, _ := repo.FindByAccessToken(context.Background(), issued.AccessToken)
	if stored == nil || !stored.IsActive(start) || !stored.CreatedAt().Equal(start) {
		t.Fatalf("stored session = %+v", stored)
	}
}

func TestIssueSession_AlreadyExpiredToken(t *testing.T) {
	svc, repo, _, _ := setup(t, -time.Second)

	res := svc.IssueSession(context.Background(), entity.MustParseID("user-1"), nil)
	leftIs(t, res, res.LeftValue(), apperr.ErrSessionExpired)
	if len(repo.byToken) != 0 {
		t.Error("no session must be stored")
	}
}

func TestIssueSession_ZeroLifetimeToken(t *testing.T) {
	svc, _, _, _ := setup(t, 0)
	res := svc.IssueSession(context.Background(), entity.MustParseID("user-1"), nil)
	leftIs(t, res, res.LeftValue(), apperr.ErrSessionExpired)
}

func TestIssueSession_EncrypterFailure(t *testing.T) {
	svc, _, enc, _ := setup(t, time.Minute)
	boom := errors.New("hsm unavailable")
	enc.err = boom
	res := svc.IssueSession(context.Background(), entity.MustParseID("user-1"), nil)
	leftIs(t, res, res.LeftValue(), boom)
}

func TestValidateSession(t *testing.T) {
	svc, _, _, clock := setup(t, 10*time.Minute)
	ctx := context.Background()
	issued := svc.IssueSession(ctx, entity.MustParseID("user-1"), nil).RightValue()

	res := svc.ValidateSession(ctx, issued.AccessToken.String())
	if !res.IsRight() || !res.RightValue().ID().Equal(issued.SessionID) {
		t.Fatalf("ValidateSession = %v", res.Value())
	}

	unknown := svc.ValidateSession(ctx, "nope")
	leftIs(t, unknown, unknown.LeftValue(), apperr.ErrResourceNotFound)

	blank := svc.ValidateSession(ctx, "  ")
	leftIs(t, blank, blank.LeftValue(), apperr.ErrInvalidAccessToken)

	clock.Advance(10 * time.Minute)
	expired := svc.ValidateSession(ctx, issued.AccessToken.String())
	leftIs(t, expired, expired.LeftValue(), apperr.ErrSessionExpired)
}

func TestRevokeSession_TwiceFailsNotFound(t *testing.T) {
	svc, _, _, clock := setup(t, 10*time.Minute)
	ctx := context.Background()
	recipient := entity.MustParseID("user-1")
	issued := svc.IssueSession(ctx, recipient, nil).RightValue()
	clock.Advance(time.Minute)

	first := svc.RevokeSession(ctx, recipient, issued.AccessToken.String())
	if !first.IsRight() {
		t.Fatalf("first revoke: %v", first.LeftValue())
	}
	second := svc.RevokeSession(ctx, recipient, issued.AccessToken.String())
	leftIs(t, second, second.LeftValue(), apperr.ErrResourceNotFound)

	validated := svc.ValidateSession(ctx, issued.AccessToken.String())
	leftIs(t, validated, validated.LeftValue(), apperr.ErrSessionExpired)
}

func TestRevokeSession_NotFoundCases(t *testing.T) {
	svc, _, _, clock := setup(t, 10*time.Minute)
	ctx := context.Background()
	owner := entity.MustParseID("user-1")
	issued := svc.IssueSession(ctx, owner, nil).RightValue()

	testCases := []struct {
		name      string
		recipient entity.ID
		token     string
		advance   time.Duration
	}{
		{"unknown token", owner, "missing", 0},
		{"other recipient", entity.MustParseID("user-2"), issued.AccessToken.String(), 0},
		{"expired session", owner, issued.AccessToken.String(), 11 * time.Minute},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clock.Advance(tc.advance)
			res := svc.RevokeSession(ctx, tc.recipient, tc.token)
			leftIs(t, res, res.LeftValue(), apperr.ErrResourceNotFound)
		})
	}
}

func TestRevokeSession_LostRaceIsNotFound(t *testing.T) {
	svc, repo, _, _ := setup(t, 10*time.Minute)
	ctx := context.Background()
	recipient := entity.MustParseID("user-1")
	issued := svc.IssueSession(ctx, recipient, nil).RightValue()

	repo.saveErr = repository.ErrStaleSession
	res := svc.RevokeSession(ctx, recipient, issued.AccessToken.String())
	leftIs(t, res, res.LeftValue(), apperr.ErrResourceNotFound)
}

func TestRevokeSession_ConcurrentRevokesOneWins(t *testing.T) {
	svc, _, _, _ := setup(t, 10*time.Minute)
	ctx := context.Background()
	recipient := entity.MustParseID("user-1")
	issued := svc.IssueSession(ctx, recipient, nil).RightValue()

	const n = 8
	results := make([]either.Either[error, struct{}], n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.RevokeSession(ctx, recipient, issued.AccessToken.String())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, r := range results {
		if r.IsRight() {
			wins++
		} else if !errors.Is(r.LeftValue(), apperr.ErrResourceNotFound) {
			t.Errorf("unexpected failure: %v", r.LeftValue())
		}
	}
	if wins != 1 {
		t.Errorf("successful revokes = %d, want 1", wins)
	}
}

func TestLogoutUser_DelegatesToRevoke(t *testing.T) {
	svc, _, _, _ := setup(t, 10*time.Minute)
	ctx := context.Background()
	recipient := entity.MustParseID("user-1")
	issued := svc.IssueSession(ctx, recipient, nil).RightValue()

	if res := svc.LogoutUser(ctx, recipient, issued.AccessToken.String()); !res.IsRight() {
		t.Fatalf("LogoutUser: %v", res.LeftValue())
	}
	again := svc.LogoutUser(ctx, recipient, issued.AccessToken.String())
	leftIs(t, again, again.LeftValue(), apperr.ErrResourceNotFound)
}

func TestListSessions(t *testing.T) {
	svc, _, _, _ := setup(t, 10*time.Minute)
	ctx := context.Background()
	recipient := entity.MustParseID("user-1")
	svc.IssueSession(ctx, recipient, nil)
	svc.IssueSession(ctx, recipient, nil)
	svc.IssueSession(ctx, entity.MustParseID("user-2"), nil)

	res := svc.ListSessions(ctx, recipient, 1, 10)
	if !res.IsRight() || len(res.RightValue()) != 2 {
		t.Fatalf("ListSessions = %v", res.Value())
	}

	bad := svc.ListSessions(ctx, recipient, 1, 1000)
	leftIs(t, bad, bad.LeftValue(), apperr.ErrInvalidPaginationParams)
}
