package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type Source string

const (
	SourceStored  Source = "stored"
	SourceBuiltin Source = "builtin"
	SourceDefault Source = "default"
)

// Resolution is the configuration that applies to a category. Fallback is set
// whenever no stored, active configuration was used.
type Resolution struct {
	Config   domain.CategoryConfig `json:"config"`
	Fallback bool                  `json:"fallback"`
	Source   Source                `json:"source"`
}

// ConfigFinder looks up a stored configuration by category name, ignoring case.
type ConfigFinder interface {
	FindConfigByCategoryName(ctx context.Context, name string) (*domain.CategoryConfig, error)
}

// Resolver is stateless and safe for concurrent use.
type Resolver struct {
	finder ConfigFinder
	log    *logrus.Logger
}

// NewResolver builds a Resolver. A nil finder resolves from the built-in tables only.
func NewResolver(finder ConfigFinder, logger *logrus.Logger) *Resolver {
	return &Resolver{
		finder: finder,
		log:    logger,
	}
}

// Resolve never fails: lookup problems degrade to the built-in or global default.
func (r *Resolver) Resolve(ctx context.Context, categoryName string) Resolution {
	name := strings.TrimSpace(categoryName)
	if name == "" {
		return Resolution{Config: DefaultConfig(), Fallback: true, Source: SourceDefault}
	}

	fallback, source := fallbackConfig(name)

	stored, err := r.lookup(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.log.Debugf("Resolver: No stored configuration for category '%s', using %s", name, source)
		} else {
			r.log.Warnf("Resolver: Lookup failed for category '%s', using %s: %v", name, source, err)
		}
		return Resolution{Config: fallback, Fallback: true, Source: source}
	}
	if !stored.IsActive {
		r.log.Debugf("Resolver: Stored configuration for category '%s' is inactive, using %s", name, source)
		return Resolution{Config: fallback, Fallback: true, Source: source}
	}

	return Resolution{Config: overlay(*stored, fallback), Fallback: false, Source: SourceStored}
}

func (r *Resolver) lookup(ctx context.Context, name string) (cfg *domain.CategoryConfig, err error) {
	if r.finder == nil {
		return nil, fmt.Errorf("category config for '%s' %w", name, domain.ErrNotFound)
	}
	defer func() {
		if p := recover(); p != nil {
			cfg, err = nil, fmt.Errorf("config lookup panicked: %v", p)
		}
	}()

	cfg, err = r.finder.FindConfigByCategoryName(ctx, name)
	if err == nil && cfg == nil {
		err = fmt.Errorf("category config for '%s' %w", name, domain.ErrNotFound)
	}
	return cfg, err
}

// overlay takes the stored configuration wholesale; only lists that were never
// configured are taken from the fallback.
func overlay(stored, fallback domain.CategoryConfig) domain.CategoryConfig {
	out := stored.Clone()
	if out.Dimensions == nil {
		out.Dimensions = fallback.Dimensions
	}
	if out.Fields == nil {
		out.Fields = fallback.Fields
	}
	if out.SuggestedTypes == nil {
		out.SuggestedTypes = fallback.SuggestedTypes
	}
	return out
}
