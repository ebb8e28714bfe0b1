package checks

import (
	"errors"
	"fmt"

	"costscope/internal/models"
)

// ErrDuplicateCheck is returned by Register when a check with the same name
// is already present. The process must not proceed with an inconsistent
// catalog, so callers treat this as fatal at startup.
var ErrDuplicateCheck = errors.New("check already registered")

// Registry is the process-wide catalog of available checks, indexed by
// name, type, and provider. Registration is a one-time startup activity:
// build the registry once (see BuildRegistry), hand it to the Runner, and
// treat it as read-only during analysis runs. With writes confined to
// initialization no locking is required.
type Registry struct {
	byName     map[string]Check
	byType     map[models.CheckType][]Check
	byProvider map[models.Provider][]Check
	order      []Check
}

// NewRegistry returns an empty registry ready for registration.
func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]Check),
		byType:     make(map[models.CheckType][]Check),
		byProvider: make(map[models.Provider][]Check),
	}
}

// Register adds a check to the catalog and its indexes. A duplicate name
// fails with ErrDuplicateCheck.
func (r *Registry) Register(c Check) error {
	name := c.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateCheck)
	}
	r.byName[name] = c
	r.order = append(r.order, c)
	r.byType[c.Type()] = append(r.byType[c.Type()], c)
	for _, p := range c.SupportedProviders() {
		r.byProvider[p] = append(r.byProvider[p], c)
	}
	return nil
}

// Get returns the check registered under name, or nil.
func (r *Registry) Get(name string) Check {
	return r.byName[name]
}

// ListAll returns every check in registration order.
func (r *Registry) ListAll() []Check {
	out := make([]Check, len(r.order))
	copy(out, r.order)
	return out
}

// ListByType returns the checks producing the given finding category.
func (r *Registry) ListByType(t models.CheckType) []Check {
	return r.byType[t]
}

// ListByProvider returns the checks whose SupportedProviders contains p.
func (r *Registry) ListByProvider(p models.Provider) []Check {
	return r.byProvider[p]
}

// ListByTypes returns the union of checks for the given categories,
// de-duplicated by name, in first-seen order.
func (r *Registry) ListByTypes(types ...models.CheckType) []Check {
	seen := make(map[string]struct{})
	var out []Check
	for _, t := range types {
		for _, c := range r.byType[t] {
			if _, dup := seen[c.Name()]; dup {
				continue
			}
			seen[c.Name()] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Catalog returns the descriptive listing of every registered check.
func (r *Registry) Catalog() []models.CheckInfo {
	out := make([]models.CheckInfo, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, Info(c))
	}
	return out
}
