package ballots

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	DefaultPageSize   = 40
	MaxSearchLength   = 200
	MaxCompanyFilters = 100
	maxPage           = 1_000_000
)

type SortField string

const (
	SortStartDate SortField = "start_date"
	SortEndDate   SortField = "end_date"
	SortName      SortField = "name"
	SortVoteCount SortField = "vote_count"
)

func (f SortField) Valid() bool {
	switch f {
	case SortStartDate, SortEndDate, SortName, SortVoteCount:
		return true
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type ListFilter struct {
	Search     string
	Status     StatusFilter
	CompanyIDs []string
}

type ListSort struct {
	Field     SortField
	Direction SortDirection
}

type ListQuery struct {
	Filter ListFilter
	Sort   ListSort
	Page   int
}

// ListParams is a validated query resolved against a fixed instant, so the
// count and the page are computed under one predicate.
type ListParams struct {
	Search     string
	Status     StatusFilter
	CompanyIDs []string
	Now        time.Time
	Sort       ListSort
	Limit      int
	Offset     int
}

type Page struct {
	Items      []Summary
	TotalCount int64
	Page       int
	PageSize   int
	HasNext    bool
	HasPrev    bool
}

func newPage(items []Summary, total int64, page, size int) *Page {
	if items == nil {
		items = []Summary{}
	}
	return &Page{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		HasNext:    int64(page+1)*int64(size) < total,
		HasPrev:    page > 0,
	}
}

func normalizeListQuery(query ListQuery, pageSize int, now time.Time) (ListParams, error) {
	search := strings.TrimSpace(query.Filter.Search)
	if utf8.RuneCountInString(search) > MaxSearchLength {
		return ListParams{}, fmt.Errorf("%w: search longer than %d characters", ErrInvalidFilter, MaxSearchLength)
	}
	if !utf8.ValidString(search) || strings.IndexFunc(search, unicode.IsControl) >= 0 {
		return ListParams{}, fmt.Errorf("%w: search contains invalid characters", ErrInvalidFilter)
	}

	status := query.Filter.Status
	switch status {
	case "":
		status = StatusFilterAll
	case StatusFilterAll, StatusFilterOpen, StatusFilterClosed:
	default:
		return ListParams{}, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, status)
	}

	companyIDs, err := normalizeCompanyIDs(query.Filter.CompanyIDs)
	if err != nil {
		return ListParams{}, err
	}

	sort, err := normalizeSort(query.Sort)
	if err != nil {
		return ListParams{}, err
	}

	if query.Page < 0 || query.Page > maxPage {
		return ListParams{}, fmt.Errorf("%w: page out of range", ErrInvalidFilter)
	}

	return ListParams{
		Search:     search,
		Status:     status,
		CompanyIDs: companyIDs,
		Now:        now.UTC(),
		Sort:       sort,
		Limit:      pageSize,
		Offset:     query.Page * pageSize,
	}, nil
}

func normalizeCompanyIDs(ids []string) ([]string, error) {
	if len(ids) > MaxCompanyFilters {
		return nil, fmt.Errorf("%w: too many company ids", ErrInvalidFilter)
	}

	result := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid company id %q", ErrInvalidFilter, id)
		}
		id = parsed.String()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}

func normalizeSort(sort ListSort) (ListSort, error) {
	if sort.Field == "" {
		sort.Field = SortStartDate
	}
	if !sort.Field.Valid() {
		return ListSort{}, fmt.Errorf("%w: unsupported sort field %q", ErrInvalidFilter, sort.Field)
	}

	switch sort.Direction {
	case "":
		if sort.Field == SortName {
			sort.Direction = SortAsc
		} else {
			sort.Direction = SortDesc
		}
	case SortAsc, SortDesc:
	default:
		return ListSort{}, fmt.Errorf("%w: unsupported sort direction %q", ErrInvalidFilter, sort.Direction)
	}
	return sort, nil
}
