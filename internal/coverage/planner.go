package coverage

import (
	"errors"
	"fmt"

	"github.com/vipul43/jobtrail/internal/models"
)

// FarPast stands in for an open request start
const FarPast models.Date = "2000-01-01"

// ErrInvalidRange is returned when a request ends before it starts
var ErrInvalidRange = errors.New("start date is after end date")

// Kind is the planner's verdict for one request
type Kind int

const (
	Miss Kind = iota
	FullHit
	ExtendEarlier
	ExtendLater
	FullRefetch
)

func (k Kind) String() string {
	switch k {
	case Miss:
		return "MISS"
	case FullHit:
		return "FULL_HIT"
	case ExtendEarlier:
		return "EXTEND_EARLIER"
	case ExtendLater:
		return "EXTEND_LATER"
	case FullRefetch:
		return "FULL_REFETCH"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Range is an inclusive span of calendar days
type Range struct {
	Start models.Date
	End   models.Date
}

// Valid reports whether both ends are known and ordered
func (r Range) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start <= r.End
}

// Settled reports whether r is valid and ends no later than today. A range
// reaching into the future claims days that were never fetched.
func (r Range) Settled(today models.Date) bool {
	return r.Valid() && !today.Before(r.End)
}

// Contains reports whether other lies entirely inside r
func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Union returns the smallest range covering both
func (r Range) Union(other Range) Range {
	return Range{Start: models.MinDate(r.Start, other.Start), End: models.MaxDate(r.End, other.End)}
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start, r.End)
}

// Decision says what to fetch and which covered range to record after a
// successful merge. Window is meaningless for FullHit.
type Decision struct {
	Kind     Kind
	Window   models.Window
	Coverage Range
}

// NeedsFetch reports whether the decision requires fetching mail
func (d Decision) NeedsFetch() bool {
	return d.Kind != FullHit
}

func (d Decision) String() string {
	if d.Kind == FullHit {
		return d.Kind.String()
	}
	return fmt.Sprintf("%s window=%s coverage=%s", d.Kind, d.Window, d.Coverage)
}

// ResolveRequest fills open request bounds. With neither bound set the
// request covers the last lookbackDays days; an open start is FarPast and
// an open end is today. Bounds after today are pulled back to today.
func ResolveRequest(start, end, today models.Date, lookbackDays int) (Range, error) {
	switch {
	case start.IsZero() && end.IsZero():
		start = today.AddDays(-lookbackDays)
		end = today
	case start.IsZero():
		start = FarPast
	case end.IsZero():
		end = today
	}
	r := Range{Start: start, End: end}
	if !r.Valid() {
		return Range{}, fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	if today.Before(r.End) {
		r.End = today
	}
	if today.Before(r.Start) {
		r.Start = today
	}
	return r, nil
}

// Plan decides how to satisfy req given the stored covered range, which is
// nil when the user has no cache entry. A forced refresh fetches from the
// stored latest day up to today. A stored range ending after today is
// replaced by the request.
func Plan(stored *Range, req Range, refresh bool, today models.Date) Decision {
	if stored == nil {
		return Decision{Kind: Miss, Window: inclusive(req), Coverage: req}
	}

	if !stored.Valid() {
		// an inverted or partial range cannot be extended, only replaced
		return Decision{Kind: FullRefetch, Window: inclusive(req), Coverage: req}
	}

	if refresh {
		w := Range{Start: stored.End, End: today}
		if win := inclusive(w); !win.Empty() {
			return Decision{Kind: ExtendLater, Window: win, Coverage: stored.Union(w)}
		}
	}

	if !stored.Settled(today) {
		// the stored end lies past today, so nothing after the original
		// fetch date is known to be covered
		return Decision{Kind: FullRefetch, Window: inclusive(req), Coverage: req}
	}

	switch {
	case stored.Contains(req):
		return Decision{Kind: FullHit, Coverage: *stored}
	case req.Start < stored.Start && req.End > stored.End:
		return Decision{Kind: FullRefetch, Window: inclusive(req), Coverage: stored.Union(req)}
	case req.Start < stored.Start:
		return Decision{
			Kind:     ExtendEarlier,
			Window:   models.Window{Start: req.Start, End: stored.Start, EndExclusive: true},
			Coverage: Range{Start: req.Start, End: stored.End},
		}
	default:
		return Decision{
			Kind:     ExtendLater,
			Window:   models.Window{Start: stored.End, End: req.End},
			Coverage: Range{Start: stored.Start, End: req.End},
		}
	}
}

// StoredRange extracts the covered range of an entry, or nil when there is no entry
func StoredRange(e *models.CacheEntry) *Range {
	if e == nil {
		return nil
	}
	return &Range{Start: e.EarliestDate, End: e.LatestDate}
}

func inclusive(r Range) models.Window {
	return models.Window{Start: r.Start, End: r.End}
}
