package ai

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

type auditorChain struct {
	primary  Auditor
	fallback Auditor
}

// WithFallback returns an auditor that first tries the primary implementation and
// falls back to the provided auditor when the primary is unavailable or produces
// an unusable response.
func WithFallback(primary, fallback Auditor) Auditor {
	if isNil(primary) {
		return fallback
	}
	if isNil(fallback) {
		return primary
	}
	return &auditorChain{primary: primary, fallback: fallback}
}

func (c *auditorChain) Enabled() bool {
	if c == nil {
		return false
	}
	if c.primary != nil && c.primary.Enabled() {
		return true
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return true
	}
	return false
}

func (c *auditorChain) Audit(ctx context.Context, input AuditInput) (Audit, error) {
	if c == nil {
		return Audit{}, ErrDisabled
	}
	if c.primary != nil && c.primary.Enabled() {
		audit, err := c.primary.Audit(ctx, input)
		if err == nil && strings.TrimSpace(audit.Narrative) != "" {
			return audit, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return Audit{}, ctx.Err()
			}
			logrus.WithError(err).WithField("business", input.Listing.Name).Warn("policy auditor unavailable; using fallback report")
		}
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return c.fallback.Audit(ctx, input)
	}
	return Audit{}, ErrDisabled
}

// isNil catches typed nil pointers stored in the interface, e.g. a (*Client)(nil).
func isNil(a Auditor) bool {
	if a == nil {
		return true
	}
	if c, ok := a.(*Client); ok && c == nil {
		return true
	}
	return false
}
