package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vipul43/jobtrail/internal/classify"
	"github.com/vipul43/jobtrail/internal/coverage"
	"github.com/vipul43/jobtrail/internal/merge"
	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/progress"
	"github.com/vipul43/jobtrail/internal/query"
	"github.com/vipul43/jobtrail/internal/store"
	"github.com/vipul43/jobtrail/internal/synth"
)

const (
	DefaultMaxCompanies = 15
	DefaultLookbackDays = 365
)

// Extractor turns mail into company names and position records.
// *synth.Synthesizer is the production implementation.
type Extractor interface {
	DetectCompanies(ctx context.Context, lines []string, limit int) ([]string, error)
	ExtractPositions(ctx context.Context, company string, msgs []models.Message) ([]models.PositionRecord, error)
}

// RunConfig tunes a RunProcessor. Zero values fall back to the defaults.
type RunConfig struct {
	MaxCompanies int
	LookbackDays int
	Concurrency  int
}

// RunRequest asks for classification over [Start, End]. Either bound may be
// zero to leave it open.
type RunRequest struct {
	UserID       string
	Start        models.Date
	End          models.Date
	ForceRefresh bool
}

// RunResult describes what a run did and the entry it left behind
type RunResult struct {
	Identity          string
	Decision          coverage.Decision
	Entry             *models.CacheEntry
	FromCache         bool
	Partial           bool
	CompaniesFound    int
	ApplicationsFound int
}

func (r *RunResult) summary() (string, map[string]interface{}) {
	totals := r.Entry.Totals()
	data := map[string]interface{}{
		"from_cache":         r.FromCache,
		"partial":            r.Partial,
		"companies_found":    r.CompaniesFound,
		"applications_found": r.ApplicationsFound,
		"total_companies":    totals.Companies,
		"total_applications": totals.Applications,
	}
	if r.FromCache {
		return fmt.Sprintf("Loaded from cache (%d companies, %d applications)", totals.Companies, totals.Applications), data
	}
	return fmt.Sprintf("Done (%d companies, %d applications)", totals.Companies, totals.Applications), data
}

// RunProcessor executes the classification pipeline for one user: plan the
// fetch window, classify each detected company, and merge everything into
// the cache in a single update.
type RunProcessor struct {
	opener    MailboxOpener
	store     store.Store
	extractor Extractor
	locks     *store.KeyedMutex
	cfg       RunConfig
	now       func() time.Time
}

func NewRunProcessor(opener MailboxOpener, cache store.Store, extractor Extractor, cfg RunConfig) *RunProcessor {
	if cfg.MaxCompanies <= 0 {
		cfg.MaxCompanies = DefaultMaxCompanies
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &RunProcessor{
		opener:    opener,
		store:     cache,
		extractor: extractor,
		locks:     store.NewKeyedMutex(),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run executes one request. The reporter, which may be nil, always receives
// a final event. Nothing is written unless every company has been processed.
func (p *RunProcessor) Run(ctx context.Context, req RunRequest, reporter *progress.Reporter) (result *RunResult, err error) {
	defer func() {
		if err != nil {
			reporter.Finish("Run failed", nil, err)
			return
		}
		message, data := result.summary()
		reporter.Finish(message, data, nil)
	}()

	mailbox, err := p.opener.Open(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	identity, err := mailbox.Identity(ctx)
	if err != nil {
		return nil, err
	}

	unlock := p.locks.Lock(identity)
	defer unlock()

	today := models.DateOf(p.now())
	requested, err := coverage.ResolveRequest(req.Start, req.End, today, p.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	entry, err := p.store.Load(ctx, identity)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Warning: treating unreadable cache for %s as empty: %v", identity, err)
		entry = nil
	}

	decision := coverage.Plan(coverage.StoredRange(entry), requested, req.ForceRefresh, today)
	log.Printf("Run for %s: requested %s, %s", identity, requested, decision)

	result = &RunResult{Identity: identity, Decision: decision}
	if !decision.NeedsFetch() {
		result.Entry = entry
		result.FromCache = true
		return result, nil
	}

	found, partial, err := p.classify(ctx, mailbox, decision.Window, reporter)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	result.Partial = partial
	result.CompaniesFound = len(found)
	result.ApplicationsFound = models.ComputeTotals(found).Applications

	reporter.Emit(progress.StepClassifying, "Classifying by stage...", nil)

	stored, err := p.store.Update(ctx, identity, func(current *models.CacheEntry) (*models.CacheEntry, error) {
		next := current.Clone()
		if next == nil {
			next = &models.CacheEntry{UserID: identity}
		}
		next.Companies, _ = merge.Companies(next.Companies, found)

		covered := decision.Coverage
		if r := coverage.StoredRange(current); r != nil && r.Settled(today) {
			covered = covered.Union(*r)
		}
		next.EarliestDate = covered.Start
		next.LatestDate = covered.End
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save results: %w", err)
	}
	result.Entry = stored

	reporter.Emit(progress.StepBuilding,
		fmt.Sprintf("Building your dashboard... (%d companies, %d applications)", result.CompaniesFound, result.ApplicationsFound),
		map[string]interface{}{
			"companies_found":    result.CompaniesFound,
			"applications_found": result.ApplicationsFound,
		})

	return result, nil
}

// classify runs the broad search, detects companies and extracts positions
// for each of them. Companies that fail are logged and left out.
func (p *RunProcessor) classify(ctx context.Context, mailbox Mailbox, window models.Window, reporter *progress.Reporter) ([]models.CompanyRecord, bool, error) {
	reporter.Emit(progress.StepFetching, "Fetching email data...", nil)

	broad, err := mailbox.Search(ctx, query.Broad(window))
	if err != nil {
		return nil, false, fmt.Errorf("failed to search mailbox: %w", err)
	}
	if broad.Partial {
		log.Printf("Warning: broad search over %s returned a partial result (%d messages)", window, len(broad.Messages))
	}

	reporter.Emit(progress.StepFetching, fmt.Sprintf("Found %d emails", len(broad.Messages)),
		map[string]interface{}{"email_count": len(broad.Messages)})
	if len(broad.Messages) == 0 {
		return []models.CompanyRecord{}, broad.Partial, nil
	}

	reporter.Emit(progress.StepScanning, "Scanning for job applications...", nil)
	lines := synth.ApplicationLines(broad.Messages)
	reporter.Emit(progress.StepScanning, fmt.Sprintf("Found %d unique applications", len(lines)),
		map[string]interface{}{"application_count": len(lines)})

	reporter.Emit(progress.StepDetecting, "Detecting companies...", nil)
	companies, err := p.extractor.DetectCompanies(ctx, lines, p.cfg.MaxCompanies)
	if err != nil {
		return nil, false, fmt.Errorf("failed to detect companies: %w", err)
	}
	reporter.Emit(progress.StepDetecting, fmt.Sprintf("Detected %d companies", len(companies)),
		map[string]interface{}{"companies": companies, "company_count": len(companies)})

	records := make([]*models.CompanyRecord, len(companies))
	partials := make([]bool, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, company := range companies {
		i, company := i, company
		reporter.Emit(progress.StepAnalyzing, fmt.Sprintf("AI analyzing %s... (%d/%d)", company, i+1, len(companies)),
			map[string]interface{}{"current_company": company, "progress": i + 1, "total": len(companies)})

		g.Go(func() error {
			record, partial, err := p.processCompany(gctx, mailbox, company, broad.Messages, window)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("Error analyzing %s: %v", company, err)
				return nil
			}
			records[i] = record
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, fmt.Errorf("run cancelled: %w", err)
	}

	found := make([]models.CompanyRecord, 0, len(records))
	partial := broad.Partial
	for i, record := range records {
		partial = partial || partials[i]
		if record != nil {
			found = append(found, *record)
		}
	}
	return found, partial, nil
}

// processCompany classifies one company. A nil record means nothing usable
// was found.
func (p *RunProcessor) processCompany(ctx context.Context, mailbox Mailbox, company string, refMsgs []models.Message, window models.Window) (record *models.CompanyRecord, partial bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", company, r)
		}
	}()

	res, err := mailbox.Search(ctx, query.Build(company, refMsgs, window))
	if err != nil {
		return nil, false, fmt.Errorf("failed to search for %s: %w", company, err)
	}
	if res.Partial {
		log.Printf("Warning: search for %s returned a partial result (%d messages)", company, len(res.Messages))
	}

	validated := query.Validate(company, res.Messages)
	prepared := classify.Prepare(validated)
	if len(prepared) == 0 {
		return nil, res.Partial, nil
	}

	positions, err := p.extractor.ExtractPositions(ctx, company, prepared)
	if err != nil {
		return nil, res.Partial, err
	}
	if len(positions) == 0 {
		return nil, res.Partial, nil
	}

	return &models.CompanyRecord{
		Name:       company,
		Positions:  positions,
		EmailCount: len(validated),
	}, res.Partial, nil
}
