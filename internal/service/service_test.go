package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"inventory-audit/internal/domain"
)

type fakeAssetRepo struct {
	mu     sync.Mutex
	nextID int64
	assets map[int64]domain.Asset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: map[int64]domain.Asset{}}
}

func (r *fakeAssetRepo) ListAssets(_ context.Context, filter domain.AssetFilter, limit, offset int) ([]domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Asset{}
	for _, a := range r.assets {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Branch != "" && a.Branch != filter.Branch {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return []domain.Asset{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAssetRepo) GetByID(_ context.Context, id int64) (*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return &a, nil
}

func (r *fakeAssetRepo) GetByTag(_ context.Context, tag string) (*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.assets {
		if a.Tag == tag {
			return &a, nil
		}
	}
	return nil, domain.ErrAssetNotFound
}

func (r *fakeAssetRepo) Create(_ context.Context, asset *domain.Asset) (*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	created := *asset
	created.ID = r.nextID
	created.InstalledSoftware = append([]string{}, asset.InstalledSoftware...)
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	r.assets[created.ID] = created
	return &created, nil
}

func (r *fakeAssetRepo) Update(_ context.Context, id int64, f domain.AssetFields) (*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	setString(&a.Type, f.Type)
	setString(&a.Brand, f.Brand)
	setString(&a.Model, f.Model)
	setString(&a.SerialNumber, f.SerialNumber)
	setString(&a.Branch, f.Branch)
	setString(&a.Sector, f.Sector)
	setString(&a.Owner, f.Owner)
	setString(&a.Status, f.Status)
	setString(&a.Notes, f.Notes)
	setString(&a.Supplier, f.Supplier)
	setString(&a.AnyDesk, f.AnyDesk)
	if f.InstalledSoftware != nil {
		a.InstalledSoftware = append([]string{}, (*f.InstalledSoftware)...)
	}
	if f.PurchaseDate.Set {
		a.PurchaseDate = f.PurchaseDate.Value
	}
	if f.WarrantyDate.Set {
		a.WarrantyDate = f.WarrantyDate.Value
	}
	if f.Value != nil {
		v := *f.Value
		a.Value = &v
	}
	a.UpdatedAt = time.Now().UTC()
	r.assets[id] = a
	return &a, nil
}

func (r *fakeAssetRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[id]; !ok {
		return domain.ErrAssetNotFound
	}
	delete(r.assets, id)
	return nil
}

type fakeBranchRepo struct {
	mu       sync.Mutex
	nextID   int64
	branches map[int64]domain.Branch
}

func newFakeBranchRepo() *fakeBranchRepo {
	return &fakeBranchRepo{branches: map[int64]domain.Branch{}}
}

func (r *fakeBranchRepo) ListBranches(_ context.Context, onlyActive bool) ([]domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Branch{}
	for _, b := range r.branches {
		if onlyActive && !b.Active {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeBranchRepo) GetByID(_ context.Context, id int64) (*domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.branches[id]
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	return &b, nil
}

func (r *fakeBranchRepo) Create(_ context.Context, req domain.CreateBranchRequest) (*domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.branches {
		if b.Name == req.Name {
			return nil, domain.ErrBranchNameExists
		}
	}
	r.nextID++
	now := time.Now().UTC()
	b := domain.Branch{
		ID:        r.nextID,
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Phone:     req.Phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.branches[b.ID] = b
	return &b, nil
}

func (r *fakeBranchRepo) Update(_ context.Context, id int64, req domain.UpdateBranchRequest) (*domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.branches[id]
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	setString(&b.Name, req.Name)
	setString(&b.Address, req.Address)
	setString(&b.City, req.City)
	setString(&b.State, req.State)
	setString(&b.Phone, req.Phone)
	if req.Active != nil {
		b.Active = *req.Active
	}
	b.UpdatedAt = time.Now().UTC()
	r.branches[id] = b
	return &b, nil
}

func (r *fakeBranchRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.branches[id]; !ok {
		return domain.ErrBranchNotFound
	}
	delete(r.branches, id)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

var errStoreDown = errors.New("audit store unavailable")

// failingAuditRepo rejects every write.
type failingAuditRepo struct{}

func (failingAuditRepo) Append(context.Context, []domain.AuditEvent) error {
	return errStoreDown
}

func (failingAuditRepo) ListForEntity(context.Context, domain.EntityKind, int64, int) ([]domain.AuditEvent, error) {
	return nil, errStoreDown
}

func (failingAuditRepo) ListAll(context.Context, string, int) ([]domain.AuditEvent, error) {
	return nil, errStoreDown
}

func (failingAuditRepo) Statistics(context.Context) (*domain.AuditStats, error) {
	return nil, errStoreDown
}

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []domain.AuditEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events []domain.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) published() []domain.AuditEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events
}

// blockingPublisher holds every batch until release is closed.
type blockingPublisher struct {
	recordingPublisher
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{started: make(chan struct{}), release: make(chan struct{})}
}

func (p *blockingPublisher) Publish(ctx context.Context, events []domain.AuditEvent) error {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.recordingPublisher.Publish(ctx, events)
}

func strPtr(s string) *string {
	return &s
}

func actions(events []domain.AuditEvent) []domain.Action {
	out := make([]domain.Action, len(events))
	for i, ev := range events {
		out[i] = ev.Action
	}
	return out
}
