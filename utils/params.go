package utils

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// TotalPages is ceil(total/limit), zero when there is nothing to page through.
func (p Pagination) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

func ParsePagination(q url.Values) (Pagination, error) {
	page, err := positiveInt(q, "page", DefaultPage)
	if err != nil {
		return Pagination{}, err
	}
	limit, err := positiveInt(q, "limit", DefaultLimit)
	if err != nil {
		return Pagination{}, err
	}
	// skip+limit must stay representable for every store.
	if int64(page-1) > (math.MaxInt64-int64(limit))/int64(limit) {
		return Pagination{}, ValidationError("Invalid page parameter.")
	}
	return Pagination{Page: page, Limit: limit}, nil
}

func positiveInt(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ValidationError("Invalid " + key + " parameter.")
	}
	return n, nil
}

// OptionalFloat parses key when present; ok is false for an absent parameter.
func OptionalFloat(q url.Values, key string) (v float64, ok bool, err error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, ValidationError("Invalid " + key + " parameter.")
	}
	return v, true, nil
}
