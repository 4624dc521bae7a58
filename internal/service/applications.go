package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/store"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrCompanyExists   = errors.New("company already exists")
	ErrPositionIndex   = errors.New("position index out of range")
)

// PositionInput is a user-entered position. Dates are YYYY-MM-DD or empty.
type PositionInput struct {
	Position            string `validate:"max=200"`
	SubmittedDate       string `validate:"omitempty,datetime=2006-01-02"`
	AptitudeTestDate    string `validate:"omitempty,datetime=2006-01-02"`
	SimulationTestDate  string `validate:"omitempty,datetime=2006-01-02"`
	CodingTestDate      string `validate:"omitempty,datetime=2006-01-02"`
	VideoInterviewDate  string `validate:"omitempty,datetime=2006-01-02"`
	HumanInterviewCount int    `validate:"gte=0,lte=100"`
	Outcome             string `validate:"omitempty,oneof=pending rejected offer"`
}

func (in PositionInput) record() models.PositionRecord {
	return models.PositionRecord{
		Position:            strings.TrimSpace(in.Position),
		SubmittedDate:       models.ParseDate(in.SubmittedDate),
		AptitudeTestDate:    models.ParseDate(in.AptitudeTestDate),
		SimulationTestDate:  models.ParseDate(in.SimulationTestDate),
		CodingTestDate:      models.ParseDate(in.CodingTestDate),
		VideoInterviewDate:  models.ParseDate(in.VideoInterviewDate),
		HumanInterviewCount: in.HumanInterviewCount,
		Outcome:             models.ParseOutcome(in.Outcome),
		Manual:              true,
	}
}

// Stats summarizes a user's applications
type Stats struct {
	TotalCompanies    int `json:"total_companies"`
	TotalApplications int `json:"total_applications"`
	Offers            int `json:"offers"`
	Rejections        int `json:"rejections"`
	InProgress        int `json:"in_progress"`
	Interviews        int `json:"interviews"`
	AptitudeTests     int `json:"aptitude_tests"`
	SimulationTests   int `json:"simulation_tests"`
	CodingTests       int `json:"coding_tests"`
	VideoInterviews   int `json:"video_interviews"`
	ResponseRate      int `json:"response_rate"`
}

// ApplicationService is the manual editing surface over the cache. Every
// change goes through Store.Update and marks what it touches as manual so
// automated runs never remove it.
type ApplicationService struct {
	store    store.Store
	validate *validator.Validate
}

func NewApplicationService(cache store.Store) *ApplicationService {
	return &ApplicationService{
		store:    cache,
		validate: validator.New(),
	}
}

// List returns the user's companies and totals. A missing entry is empty.
func (s *ApplicationService) List(ctx context.Context, userID string) ([]models.CompanyRecord, models.Totals, error) {
	entry, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, models.Totals{}, fmt.Errorf("failed to load applications: %w", err)
	}
	if entry == nil {
		return []models.CompanyRecord{}, models.Totals{}, nil
	}
	return entry.Companies, entry.Totals(), nil
}

// AddPosition appends a manual position, creating the company when needed
func (s *ApplicationService) AddPosition(ctx context.Context, userID, company string, in PositionInput) (*models.CacheEntry, error) {
	company = strings.TrimSpace(company)
	if err := s.validateCompany(company); err != nil {
		return nil, err
	}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(companies []models.CompanyRecord) ([]models.CompanyRecord, error) {
		i := indexOf(companies, company)
		if i < 0 {
			companies = append(companies, models.CompanyRecord{Name: company})
			i = len(companies) - 1
		}
		companies[i].Manual = true
		companies[i].Positions = append(companies[i].Positions, in.record())
		return companies, nil
	})
}

// UpdatePosition replaces the position at index; the result is manual
func (s *ApplicationService) UpdatePosition(ctx context.Context, userID, company string, index int, in PositionInput) (*models.CacheEntry, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(companies []models.CompanyRecord) ([]models.CompanyRecord, error) {
		i := indexOf(companies, company)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, company)
		}
		if index < 0 || index >= len(companies[i].Positions) {
			return nil, fmt.Errorf("%w: %d", ErrPositionIndex, index)
		}
		companies[i].Manual = true
		companies[i].Positions[index] = in.record()
		return companies, nil
	})
}

// RenameCompany changes a company's display name. Renaming onto another
// existing company is refused.
func (s *ApplicationService) RenameCompany(ctx context.Context, userID, oldName, newName string) (*models.CacheEntry, error) {
	newName = strings.TrimSpace(newName)
	if err := s.validateCompany(newName); err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(companies []models.CompanyRecord) ([]models.CompanyRecord, error) {
		i := indexOf(companies, oldName)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, oldName)
		}
		if j := indexOf(companies, newName); j >= 0 && j != i {
			return nil, fmt.Errorf("%w: %s", ErrCompanyExists, newName)
		}
		companies[i].Name = newName
		companies[i].Manual = true
		return companies, nil
	})
}

// DeleteCompany removes a company and all of its positions
func (s *ApplicationService) DeleteCompany(ctx context.Context, userID, company string) (*models.CacheEntry, error) {
	return s.mutate(ctx, userID, func(companies []models.CompanyRecord) ([]models.CompanyRecord, error) {
		i := indexOf(companies, company)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, company)
		}
		return append(companies[:i], companies[i+1:]...), nil
	})
}

// DeletePosition removes one position. A company left without positions is removed too.
func (s *ApplicationService) DeletePosition(ctx context.Context, userID, company string, index int) (*models.CacheEntry, error) {
	return s.mutate(ctx, userID, func(companies []models.CompanyRecord) ([]models.CompanyRecord, error) {
		i := indexOf(companies, company)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, company)
		}
		positions := companies[i].Positions
		if index < 0 || index >= len(positions) {
			return nil, fmt.Errorf("%w: %d", ErrPositionIndex, index)
		}
		companies[i].Positions = append(positions[:index], positions[index+1:]...)
		if len(companies[i].Positions) == 0 {
			return append(companies[:i], companies[i+1:]...), nil
		}
		return companies, nil
	})
}

// Stats computes outcome counts and the response rate, which counts
// interviews, offers and rejections against all applications.
func (s *ApplicationService) Stats(ctx context.Context, userID string) (Stats, error) {
	companies, totals, err := s.List(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		TotalCompanies:    totals.Companies,
		TotalApplications: totals.Applications,
	}
	for _, c := range companies {
		for _, p := range c.Positions {
			switch p.Outcome {
			case models.OutcomeOffer:
				st.Offers++
			case models.OutcomeRejected:
				st.Rejections++
			}
			st.Interviews += p.HumanInterviewCount
			if !p.AptitudeTestDate.IsZero() {
				st.AptitudeTests++
			}
			if !p.SimulationTestDate.IsZero() {
				st.SimulationTests++
			}
			if !p.CodingTestDate.IsZero() {
				st.CodingTests++
			}
			if !p.VideoInterviewDate.IsZero() {
				st.VideoInterviews++
			}
		}
	}
	st.InProgress = st.TotalApplications - st.Offers - st.Rejections
	if st.TotalApplications > 0 {
		rate := float64(st.Interviews+st.Offers+st.Rejections) / float64(st.TotalApplications) * 100
		st.ResponseRate = int(math.RoundToEven(rate))
	}
	return st, nil
}

func (s *ApplicationService) mutate(ctx context.Context, userID string, fn func([]models.CompanyRecord) ([]models.CompanyRecord, error)) (*models.CacheEntry, error) {
	return s.store.Update(ctx, userID, func(current *models.CacheEntry) (*models.CacheEntry, error) {
		next := current.Clone()
		if next == nil {
			next = &models.CacheEntry{UserID: userID}
		}
		companies, err := fn(next.Companies)
		if err != nil {
			return nil, err
		}
		next.Companies = companies
		return next, nil
	})
}

func (s *ApplicationService) validateCompany(name string) error {
	if err := s.validate.Var(name, "required,max=200"); err != nil {
		return fmt.Errorf("invalid company name: %w", err)
	}
	return nil
}

func (s *ApplicationService) validateInput(in PositionInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}
	return nil
}

func indexOf(companies []models.CompanyRecord, name string) int {
	key := models.CompanyKey(name)
	for i, c := range companies {
		if c.NameKey() == key {
			return i
		}
	}
	return -1
}
