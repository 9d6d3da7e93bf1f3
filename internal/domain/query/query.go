// Package query turns untyped request parameters into a normalized query plan.
package query

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Reserved parameter names that never become filter predicates.
const (
	ParamFilter = "filter"
	ParamSearch = "search"
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamSort   = "sort"
	ParamSelect = "select"
)

// DefaultSortField is used when no sort is requested.
const DefaultSortField = "createdAt"

var reserved = map[string]bool{
	ParamFilter: true, ParamSearch: true, ParamPage: true,
	ParamLimit: true, ParamSort: true, ParamSelect: true,
}

// Operators that execute server-side code are stripped from filters.
var forbiddenOperators = map[string]bool{
	"$where": true, "$function": true, "$accumulator": true,
}

// Params are the raw list/delete parameters of a request.
type Params struct {
	Filter string
	Search string
	Page   string
	Limit  string
	Sort   string
	Select string
	// Loose holds every non-reserved key as an equality predicate.
	Loose map[string][]string
}

// ParamsFromValues splits URL query values into reserved and loose parameters.
func ParamsFromValues(values map[string][]string) Params {
	first := func(k string) string {
		if v := values[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return Params{
		Filter: first(ParamFilter),
		Search: first(ParamSearch),
		Page:   first(ParamPage),
		Limit:  first(ParamLimit),
		Sort:   first(ParamSort),
		Select: first(ParamSelect),
		Loose:  lo.OmitBy(values, func(k string, _ []string) bool { return reserved[k] }),
	}
}

// SortField is one sort key.
type SortField struct {
	Field string
	Desc  bool
}

// Plan is a normalized query.
type Plan struct {
	Filter     map[string]any
	Page       int
	Limit      int
	Skip       int64
	Sort       []SortField
	Projection []string
	// FilterIgnored is set when the filter blob was present but unusable.
	FilterIgnored bool
}

// Pages returns ceil(total/limit).
func (p Plan) Pages(total int64) int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

// Builder builds plans with configured page size bounds.
type Builder struct {
	defaultLimit int
	maxLimit     int
	// maxPage keeps (page-1)*maxLimit within int64.
	maxPage int
}

// NewBuilder creates a Builder. Non-positive values fall back to 20 and 100.
func NewBuilder(defaultLimit, maxLimit int) Builder {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	maxPage := int(min(math.MaxInt64/int64(maxLimit), int64(math.MaxInt)))
	return Builder{defaultLimit: defaultLimit, maxLimit: maxLimit, maxPage: maxPage}
}

// Build creates a full list plan: filter, pagination, sort and projection.
func (b Builder) Build(p Params) Plan {
	plan := b.Filter(p)

	plan.Page = min(positiveInt(p.Page, 1), b.maxPage)
	plan.Limit = min(positiveInt(p.Limit, b.defaultLimit), b.maxLimit)
	plan.Skip = int64(plan.Page-1) * int64(plan.Limit)
	plan.Sort = parseSort(p.Sort)
	plan.Projection = splitList(p.Select)
	return plan
}

// Filter creates a filter-only plan, as used by bulk deletes.
// Predicates apply in order: filter blob, loose parameters, text search.
func (b Builder) Filter(p Params) Plan {
	var plan Plan
	filter := make(map[string]any)

	if p.Filter != "" {
		var blob map[string]any
		if err := json.Unmarshal([]byte(p.Filter), &blob); err != nil || blob == nil {
			plan.FilterIgnored = true
		} else {
			for k, v := range blob {
				filter[k] = v
			}
		}
	}

	for k, vals := range p.Loose {
		if k == "" || strings.HasPrefix(k, "$") || len(vals) == 0 {
			continue
		}
		if len(vals) == 1 {
			filter[k] = vals[0]
		} else {
			filter[k] = map[string]any{"$in": lo.ToAnySlice(vals)}
		}
	}

	if p.Search != "" {
		filter["$text"] = withSearch(filter["$text"], p.Search)
	}

	plan.Filter = sanitize(filter).(map[string]any)
	return plan
}

// withSearch folds the search term into an existing $text predicate, keeping
// its options. A query may carry a single $text, so the terms are joined.
func withSearch(existing any, search string) map[string]any {
	text, ok := existing.(map[string]any)
	if !ok {
		return map[string]any{"$search": search}
	}
	out := maps.Clone(text)
	if prev, _ := text["$search"].(string); strings.TrimSpace(prev) != "" {
		out["$search"] = prev + " " + search
	} else {
		out["$search"] = search
	}
	return out
}

func sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if forbiddenOperators[k] {
				continue
			}
			out[k] = sanitize(val)
		}
		return out
	case []any:
		return lo.Map(t, func(item any, _ int) any { return sanitize(item) })
	default:
		return v
	}
}

func parseSort(raw string) []SortField {
	fields := splitList(raw)
	if len(fields) == 0 {
		return []SortField{{Field: DefaultSortField, Desc: true}}
	}
	out := make([]SortField, 0, len(fields))
	for _, f := range fields {
		desc := strings.HasPrefix(f, "-")
		name := strings.TrimLeft(f, "-+")
		if name == "" {
			continue
		}
		out = append(out, SortField{Field: name, Desc: desc})
	}
	if len(out) == 0 {
		return []SortField{{Field: DefaultSortField, Desc: true}}
	}
	return out
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	return lo.FilterMap(parts, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}
