package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipul43/jobtrail/internal/coverage"
	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/progress"
	"github.com/vipul43/jobtrail/internal/store"
)

const testIdentity = "user@example.com"

type fakeMailbox struct {
	mu       sync.Mutex
	queries  []string
	messages []models.Message
}

func (f *fakeMailbox) Search(ctx context.Context, q string) (*SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if strings.HasPrefix(q, `subject:("application"`) {
		return &SearchResult{Messages: f.messages}, nil
	}
	var out []models.Message
	for _, m := range f.messages {
		name := strings.Fields(m.Subject)[0]
		if strings.Contains(q, fmt.Sprintf("%q", name)) {
			out = append(out, m)
		}
	}
	return &SearchResult{Messages: out}, nil
}

func (f *fakeMailbox) Identity(ctx context.Context) (string, error) {
	return testIdentity, nil
}

func (f *fakeMailbox) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type fakeOpener struct {
	mailbox Mailbox
	err     error
}

func (f *fakeOpener) Open(ctx context.Context, userID string) (Mailbox, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.mailbox, nil
}

type fakeExtractor struct {
	detectFunc  func(ctx context.Context, lines []string, limit int) ([]string, error)
	extractFunc func(ctx context.Context, company string, msgs []models.Message) ([]models.PositionRecord, error)
}

func (f *fakeExtractor) DetectCompanies(ctx context.Context, lines []string, limit int) ([]string, error) {
	return f.detectFunc(ctx, lines, limit)
}

func (f *fakeExtractor) ExtractPositions(ctx context.Context, company string, msgs []models.Message) ([]models.PositionRecord, error) {
	return f.extractFunc(ctx, company, msgs)
}

// Subjects start with the company name so the fake mailbox can route company queries
func testMessages() []models.Message {
	return []models.Message{
		models.NewMessage("1", "Acme Careers <careers@acme.com>", "Acme application received",
			"Thank you for applying for Software Engineer.", "2025-05-01"),
		models.NewMessage("2", "jobs@globex.com", "Globex application update",
			"We have received your application.", "2025-05-03"),
	}
}

func testExtractor() *fakeExtractor {
	return &fakeExtractor{
		detectFunc: func(ctx context.Context, lines []string, limit int) ([]string, error) {
			return []string{"Acme", "Globex"}, nil
		},
		extractFunc: func(ctx context.Context, company string, msgs []models.Message) ([]models.PositionRecord, error) {
			if company == "Globex" {
				return nil, errors.New("model unavailable")
			}
			return []models.PositionRecord{{
				Position:      "Software Engineer",
				SubmittedDate: "2025-05-01",
				Outcome:       models.OutcomePending,
			}}, nil
		},
	}
}

func newTestProcessor(mb Mailbox, cache store.Store, ex Extractor) *RunProcessor {
	p := NewRunProcessor(&fakeOpener{mailbox: mb}, cache, ex, RunConfig{Concurrency: 2})
	p.now = func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) }
	return p
}

func seed(t *testing.T, cache store.Store, start, end models.Date, companies ...models.CompanyRecord) {
	t.Helper()
	_, err := cache.Update(context.Background(), testIdentity, func(*models.CacheEntry) (*models.CacheEntry, error) {
		return &models.CacheEntry{EarliestDate: start, LatestDate: end, Companies: companies}, nil
	})
	require.NoError(t, err)
}

func drain(r *progress.Reporter) []progress.Event {
	var events []progress.Event
	for e := range r.Events() {
		events = append(events, e)
	}
	return events
}

func TestRun_MissClassifiesAndStores(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	cache := store.NewMemory()
	reporter := progress.NewReporter(64)

	res, err := newTestProcessor(mb, cache, testExtractor()).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-01-01", End: "2025-06-01",
	}, reporter)
	require.NoError(t, err)

	assert.Equal(t, coverage.Miss, res.Decision.Kind)
	assert.False(t, res.FromCache)
	assert.Equal(t, 1, res.CompaniesFound, "the failing company is skipped")

	queries := mb.Queries()
	require.NotEmpty(t, queries)
	assert.Contains(t, queries[0], "after:2025/01/01 before:2025/06/02")

	entry, err := cache.Load(context.Background(), testIdentity)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.Date("2025-01-01"), entry.EarliestDate)
	assert.Equal(t, models.Date("2025-06-01"), entry.LatestDate)
	require.Len(t, entry.Companies, 1)
	assert.Equal(t, "Acme", entry.Companies[0].Name)
	assert.Equal(t, 1, entry.Companies[0].EmailCount)
	assert.Equal(t, 1, entry.TotalApplications)

	events := drain(reporter)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, last.Final)
	assert.NoError(t, last.Err)
	for _, e := range events[:len(events)-1] {
		assert.False(t, e.Final)
	}
}

func TestRun_FullHitDoesNotFetch(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	cache := store.NewMemory()
	seed(t, cache, "2025-01-01", "2025-06-01", models.CompanyRecord{Name: "Initech"})

	res, err := newTestProcessor(mb, cache, testExtractor()).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-03-01", End: "2025-04-01",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, coverage.FullHit, res.Decision.Kind)
	assert.True(t, res.FromCache)
	assert.Empty(t, mb.Queries())
	require.Len(t, res.Entry.Companies, 1)
	assert.Equal(t, "Initech", res.Entry.Companies[0].Name)
}

func TestRun_ExtendEarlierFetchesOnlyTheGap(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	cache := store.NewMemory()
	seed(t, cache, "2025-03-01", "2025-06-01")

	res, err := newTestProcessor(mb, cache, testExtractor()).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-01-01", End: "2025-04-01",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, coverage.ExtendEarlier, res.Decision.Kind)
	assert.Contains(t, mb.Queries()[0], "after:2025/01/01 before:2025/03/01")
	assert.Equal(t, models.Date("2025-01-01"), res.Entry.EarliestDate)
	assert.Equal(t, models.Date("2025-06-01"), res.Entry.LatestDate)
}

func TestRun_PreservesManualRecords(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	cache := store.NewMemory()
	apps := NewApplicationService(cache)

	_, err := apps.AddPosition(context.Background(), testIdentity, "Initech", PositionInput{Position: "Analyst"})
	require.NoError(t, err)
	_, err = apps.AddPosition(context.Background(), testIdentity, "acme", PositionInput{Position: "Intern", Outcome: "offer"})
	require.NoError(t, err)

	res, err := newTestProcessor(mb, cache, testExtractor()).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-01-01", End: "2025-06-01",
	}, nil)
	require.NoError(t, err)

	// the entry had no covered range yet, so the whole request is fetched
	assert.Equal(t, coverage.FullRefetch, res.Decision.Kind)

	byName := make(map[string]models.CompanyRecord)
	for _, c := range res.Entry.Companies {
		byName[c.NameKey()] = c
	}
	require.Contains(t, byName, "initech")
	assert.True(t, byName["initech"].Manual)

	acme := byName["acme"]
	require.Len(t, acme.Positions, 2)
	assert.Equal(t, "Software Engineer", acme.Positions[0].Position)
	assert.Equal(t, "Intern", acme.Positions[1].Position)
	assert.True(t, acme.Positions[1].Manual)
	assert.Equal(t, models.OutcomeOffer, acme.Positions[1].Outcome)
}

func TestRun_RepeatedRunsDoNotDuplicatePositions(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	cache := store.NewMemory()
	p := newTestProcessor(mb, cache, testExtractor())

	_, err := p.Run(context.Background(), RunRequest{UserID: "user-123", Start: "2025-01-01", End: "2025-06-01"}, nil)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), RunRequest{UserID: "user-123", ForceRefresh: true}, nil)
	require.NoError(t, err)

	assert.Equal(t, coverage.ExtendLater, res.Decision.Kind)
	assert.Equal(t, models.Date("2025-06-15"), res.Entry.LatestDate)
	require.Len(t, res.Entry.Companies, 1)
	assert.Len(t, res.Entry.Companies[0].Positions, 1)
}

func TestRun_NotAuthenticatedFailsFast(t *testing.T) {
	cache := store.NewMemory()
	reporter := progress.NewReporter(8)
	p := NewRunProcessor(&fakeOpener{err: fmt.Errorf("%w: no account", ErrNotAuthenticated)}, cache, testExtractor(), RunConfig{})

	_, err := p.Run(context.Background(), RunRequest{UserID: "user-123"}, reporter)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	entry, _ := cache.Load(context.Background(), testIdentity)
	assert.Nil(t, entry)

	events := drain(reporter)
	require.Len(t, events, 1)
	assert.True(t, events[0].Final)
	assert.ErrorIs(t, events[0].Err, ErrNotAuthenticated)
}

func TestRun_InvalidRange(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	_, err := newTestProcessor(mb, store.NewMemory(), testExtractor()).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-06-01", End: "2025-01-01",
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Empty(t, mb.Queries())
}

func TestRun_CancellationCommitsNothing(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	cache := store.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ex := testExtractor()
	ex.extractFunc = func(ctx context.Context, company string, msgs []models.Message) ([]models.PositionRecord, error) {
		cancel()
		return nil, ctx.Err()
	}

	_, err := newTestProcessor(mb, cache, ex).Run(ctx, RunRequest{
		UserID: "user-123", Start: "2025-01-01", End: "2025-06-01",
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	entry, err := cache.Load(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRun_PanicInOneCompanyIsContained(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	ex := testExtractor()
	ex.extractFunc = func(ctx context.Context, company string, msgs []models.Message) ([]models.PositionRecord, error) {
		if company == "Globex" {
			panic("unexpected reply shape")
		}
		return []models.PositionRecord{{Position: "Engineer", Outcome: models.OutcomePending}}, nil
	}

	res, err := newTestProcessor(mb, store.NewMemory(), ex).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-01-01", End: "2025-06-01",
	}, nil)
	require.NoError(t, err)
	require.Len(t, res.Entry.Companies, 1)
	assert.Equal(t, "Acme", res.Entry.Companies[0].Name)
}

func TestRun_EmptySearchStillRecordsCoverage(t *testing.T) {
	mb := &fakeMailbox{}
	ex := testExtractor()
	ex.detectFunc = func(ctx context.Context, lines []string, limit int) ([]string, error) {
		t.Fatal("company detection should not run without mail")
		return nil, nil
	}

	res, err := newTestProcessor(mb, store.NewMemory(), ex).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-01-01", End: "2025-02-01",
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Entry.Companies)
	assert.Equal(t, models.Date("2025-01-01"), res.Entry.EarliestDate)
	assert.Equal(t, models.Date("2025-02-01"), res.Entry.LatestDate)
}

type mockStore struct {
	store.Store
	loadFunc func(ctx context.Context, userID string) (*models.CacheEntry, error)
}

func (m *mockStore) Load(ctx context.Context, userID string) (*models.CacheEntry, error) {
	return m.loadFunc(ctx, userID)
}

func TestRun_UnreadableCacheIsTreatedAsEmpty(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	backing := store.NewMemory()
	seed(t, backing, "2025-01-01", "2025-06-01")
	cache := &mockStore{
		Store: backing,
		loadFunc: func(ctx context.Context, userID string) (*models.CacheEntry, error) {
			return nil, errors.New("invalid character '}' in companies column")
		},
	}

	res, err := newTestProcessor(mb, cache, testExtractor()).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-02-01", End: "2025-03-01",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, coverage.Miss, res.Decision.Kind)
	assert.NotEmpty(t, mb.Queries())

	entry, err := backing.Load(context.Background(), testIdentity)
	require.NoError(t, err)
	require.Len(t, entry.Companies, 1)
	assert.Equal(t, "Acme", entry.Companies[0].Name)
}

func TestRun_CacheLoadCancelled(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	ctx, cancel := context.WithCancel(context.Background())
	cache := &mockStore{
		Store: store.NewMemory(),
		loadFunc: func(ctx context.Context, userID string) (*models.CacheEntry, error) {
			cancel()
			return nil, fmt.Errorf("failed to load cache entry: %w", ctx.Err())
		},
	}

	_, err := newTestProcessor(mb, cache, testExtractor()).Run(ctx, RunRequest{
		UserID: "user-123", Start: "2025-01-01", End: "2025-06-01",
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mb.Queries())
}

func TestRun_FutureEndIsNotRecordedAsCovered(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	cache := store.NewMemory()

	res, err := newTestProcessor(mb, cache, testExtractor()).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-01-01", End: "2030-01-01",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.Date("2025-06-15"), res.Entry.LatestDate)
}

func TestRun_RefreshReplacesCoveragePastToday(t *testing.T) {
	mb := &fakeMailbox{messages: testMessages()}
	cache := store.NewMemory()
	seed(t, cache, "2025-01-01", "2030-01-01")

	res, err := newTestProcessor(mb, cache, testExtractor()).Run(context.Background(), RunRequest{
		UserID: "user-123", Start: "2025-03-01", End: "2025-06-15", ForceRefresh: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, coverage.FullRefetch, res.Decision.Kind)
	assert.Equal(t, models.Date("2025-03-01"), res.Entry.EarliestDate)
	assert.Equal(t, models.Date("2025-06-15"), res.Entry.LatestDate)
}
