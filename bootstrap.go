package gatehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/resource"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
)

// TenantLister enumerates known tenants for the bootstrap warm-up pass.
// Tenant records live outside the core, so the host supplies this.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]Tenant, error)
}

// seedRole is one default role plus the grants it is seeded with.
type seedRole struct {
	slug        string
	name        string
	description string
	grants      [][2]string // (resource, action) pairs
}

// wildcardGrant is the full-access grant seeded for owner and admin.
var wildcardGrant = [][2]string{{string(resource.Wildcard), string(resource.ActionAny)}}

// memberGrants covers day-to-day work on the business objects.
var memberGrants = [][2]string{
	{string(resource.TypeCustomer), string(resource.ActionRead)},
	{string(resource.TypeCustomer), string(resource.ActionWrite)},
	{string(resource.TypeReward), string(resource.ActionRead)},
	{string(resource.TypeReward), string(resource.ActionWrite)},
	{string(resource.TypeCampaign), string(resource.ActionRead)},
	{string(resource.TypeCampaign), string(resource.ActionWrite)},
}

// viewerGrants is read-only access to the business objects.
var viewerGrants = [][2]string{
	{string(resource.TypeCustomer), string(resource.ActionRead)},
	{string(resource.TypeReward), string(resource.ActionRead)},
	{string(resource.TypeCampaign), string(resource.ActionRead)},
}

// defaultSeedRoles is the role set seeded for every new tenant. Organization
// and project tenants get the same set; the two levels are bootstrapped
// independently, with no inheritance across the hierarchy.
var defaultSeedRoles = []seedRole{
	{slug: "owner", name: "Owner", description: "Full access, including tenant administration", grants: wildcardGrant},
	{slug: "admin", name: "Admin", description: "Full access", grants: wildcardGrant},
	{slug: "member", name: "Member", description: "Read and write business objects", grants: memberGrants},
	{slug: "viewer", name: "Viewer", description: "Read-only access", grants: viewerGrants},
}

// Bootstrapper seeds default roles and policy rules for new tenants.
//
// Bootstrap is idempotent: roles are looked up by slug before creation and
// rules by exact tuple, and the store's uniqueness guarantees resolve the
// race when two processes bootstrap the same tenant concurrently. All state
// is owned by the instance, never package-global.
type Bootstrapper struct {
	engine  *Engine
	logger  *slog.Logger
	metrics *Metrics

	mu       sync.Mutex
	done     map[string]struct{}
	warmedUp bool
}

// NewBootstrapper creates a bootstrapper backed by the engine's store.
func NewBootstrapper(engine *Engine) *Bootstrapper {
	return &Bootstrapper{
		engine:  engine,
		logger:  engine.logger,
		metrics: engine.metrics,
		done:    make(map[string]struct{}),
	}
}

// Bootstrap seeds the default roles and rules for a tenant. Calling it again
// for the same tenant is a no-op; partial earlier runs are completed, never
// duplicated. Returns the number of rules seeded in this run.
func (b *Bootstrapper) Bootstrap(ctx context.Context, tenantID string, level TenantLevel) (int, error) {
	if tenantID == "" || tenantID == rule.GlobalTenant {
		return 0, errors.New("gatehouse: bootstrap requires a concrete tenant")
	}

	b.mu.Lock()
	if _, ok := b.done[tenantID]; ok {
		b.mu.Unlock()
		return 0, nil
	}
	b.mu.Unlock()

	seeded := 0
	for _, sr := range defaultSeedRoles {
		r, err := b.ensureRole(ctx, tenantID, sr)
		if err != nil {
			return seeded, fmt.Errorf("gatehouse bootstrap %s: %w", tenantID, err)
		}
		for _, grant := range sr.grants {
			n, err := b.ensureRule(ctx, tenantID, r.ID.String(), grant[0], grant[1])
			if err != nil {
				return seeded, fmt.Errorf("gatehouse bootstrap %s: %w", tenantID, err)
			}
			seeded += n
		}
	}

	b.mu.Lock()
	b.done[tenantID] = struct{}{}
	b.mu.Unlock()

	b.logger.Info("tenant policies bootstrapped",
		slog.String("tenant_id", tenantID),
		slog.String("level", string(level)),
		slog.Int("rules_seeded", seeded),
	)
	b.metrics.observeBootstrap(level)
	if b.engine.plugins != nil {
		b.engine.plugins.EmitTenantBootstrapped(ctx, tenantID, string(level), seeded)
	}
	return seeded, nil
}

// WarmUp re-runs the bootstrap for every known tenant that has zero recorded
// rules, catching tenants created while the policy store was unavailable. It
// runs at most once per instance lifetime.
func (b *Bootstrapper) WarmUp(ctx context.Context, lister TenantLister) error {
	b.mu.Lock()
	if b.warmedUp {
		b.mu.Unlock()
		return nil
	}
	b.warmedUp = true
	b.mu.Unlock()

	tenants, err := lister.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse warm-up: %w", err)
	}
	for _, t := range tenants {
		n, err := b.engine.store.CountRulesByTenant(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("gatehouse warm-up: %w", err)
		}
		if n > 0 {
			continue
		}
		b.logger.Warn("tenant has no policies, re-seeding",
			slog.String("tenant_id", t.ID),
			slog.String("level", string(t.Level)),
		)
		if _, err := b.Bootstrap(ctx, t.ID, t.Level); err != nil {
			return err
		}
	}
	return nil
}

// ensureRole finds the seed role by slug or creates it as a system role.
func (b *Bootstrapper) ensureRole(ctx context.Context, tenantID string, sr seedRole) (*role.Role, error) {
	r, err := b.engine.store.GetRoleBySlug(ctx, tenantID, sr.slug)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrRoleNotFound) {
		return nil, err
	}

	now := time.Now()
	r = &role.Role{
		ID:          id.NewRoleID(),
		TenantID:    tenantID,
		Name:        sr.name,
		Slug:        sr.slug,
		Description: sr.description,
		IsSystem:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := b.engine.store.CreateRole(ctx, r); err != nil {
		// Lost a creation race: the concurrent winner's role is the one.
		existing, getErr := b.engine.store.GetRoleBySlug(ctx, tenantID, sr.slug)
		if getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return r, nil
}

// ensureRule inserts the rule tuple if absent. Returns 1 when a rule was
// inserted by this call, 0 when it already existed (including losing the
// insert race to a concurrent bootstrap).
func (b *Bootstrapper) ensureRule(ctx context.Context, tenantID, subject, res, action string) (int, error) {
	t := rule.Tuple{TenantID: tenantID, Subject: subject, Resource: res, Action: action}
	ok, err := b.engine.store.HasRule(ctx, t)
	if err != nil {
		return 0, err
	}
	if ok {
		return 0, nil
	}

	r := &rule.Rule{
		ID:        id.NewRuleID(),
		TenantID:  tenantID,
		Subject:   subject,
		Resource:  res,
		Action:    action,
		CreatedAt: time.Now(),
	}
	if err := b.engine.store.CreateRule(ctx, r); err != nil {
		if errors.Is(err, ErrDuplicateRule) {
			return 0, nil
		}
		return 0, err
	}
	return 1, nil
}
