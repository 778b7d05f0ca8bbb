package handlers

import (
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

// dateQuery parses an optional YYYY-MM-DD query parameter, falling back to def.
func dateQuery(c *gin.Context, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return domain.DateOnly(def), nil
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

// optionalDateQuery parses a YYYY-MM-DD query parameter, returning nil when absent.
func optionalDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d.Time, nil
}

// reportRange resolves ?range=month|quarter|ytd|custom&from&to, relative to today.
func reportRange(c *gin.Context, today time.Time) (domain.DateRange, error) {
	from, err := optionalDateQuery(c, "from")
	if err != nil {
		return domain.DateRange{}, err
	}
	to, err := optionalDateQuery(c, "to")
	if err != nil {
		return domain.DateRange{}, err
	}
	kind := domain.RangeKind(c.Query("range"))
	if kind == "" && from == nil && to == nil {
		kind = domain.RangeMonth
	}
	ref := today
	if to != nil && kind != domain.RangeCustom && kind != "" {
		ref = *to
	}
	return domain.ResolveRange(kind, ref, from, to)
}
