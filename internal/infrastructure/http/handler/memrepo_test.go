package handler

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
)

// memRepository is an in-memory orchard.Repository for handler tests.
// It keeps just enough of the Postgres semantics (uniqueness, versions, tree counts)
// for the HTTP mapping to be exercised end to end.
type memRepository struct {
	mu         sync.Mutex
	zones      map[string]*domain.Zone
	trees      map[string]*domain.Tree
	activities map[string]*domain.ActivityLog
}

var _ orchard.Repository = (*memRepository)(nil)

func newMemRepository() *memRepository {
	return &memRepository{
		zones:      make(map[string]*domain.Zone),
		trees:      make(map[string]*domain.Tree),
		activities: make(map[string]*domain.ActivityLog),
	}
}

func checkVersion(etag *string, version int) error {
	if etag == nil {
		return nil
	}
	v, err := strconv.Atoi(*etag)
	if err != nil {
		return domain.ErrInvalidEtagFormat
	}
	if v != version {
		return domain.ErrVersionConflict
	}
	return nil
}

func (m *memRepository) zoneWithCount(z *domain.Zone) *domain.Zone {
	out := *z
	out.TreeCount = 0
	for _, t := range m.trees {
		if t.ZoneID != nil && *t.ZoneID == z.ID && t.Status != domain.TreeStatusArchived {
			out.TreeCount++
		}
	}
	return &out
}

func (m *memRepository) CreateZone(_ context.Context, zone *domain.Zone) (*domain.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, z := range m.zones {
		if strings.EqualFold(z.Name, zone.Name) {
			return nil, domain.ErrZoneNameTaken
		}
	}
	stored := *zone
	stored.Version = 1
	m.zones[stored.ID] = &stored
	return m.zoneWithCount(&stored), nil
}

func (m *memRepository) FindZoneByID(_ context.Context, id string) (*domain.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zones[id]
	if !ok {
		return nil, domain.ErrZoneNotFound
	}
	return m.zoneWithCount(z), nil
}

func (m *memRepository) ListZones(_ context.Context, params domain.ListZonesParams) (*domain.PagedZoneResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*domain.Zone, 0, len(m.zones))
	for _, z := range m.zones {
		all = append(all, m.zoneWithCount(z))
	}
	sort.Slice(all, func(i, j int) bool { return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name) })
	page, hasMore := paginate(all, params.Limit, params.Offset)
	return &domain.PagedZoneResult{Zones: page, TotalCount: len(all), HasMore: hasMore}, nil
}

func (m *memRepository) UpdateZone(_ context.Context, params domain.UpdateZoneParams) (*domain.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zones[params.ZoneID]
	if !ok {
		return nil, domain.ErrZoneNotFound
	}
	if err := checkVersion(params.Etag, z.Version); err != nil {
		return nil, err
	}
	if params.Has("name") {
		z.Name = params.Name.String()
	}
	if params.Has("description") && params.Description != nil {
		z.Description = *params.Description
	}
	z.Version++
	return m.zoneWithCount(z), nil
}

func (m *memRepository) DeleteZone(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[id]; !ok {
		return domain.ErrZoneNotFound
	}
	for _, t := range m.trees {
		if t.ZoneID != nil && *t.ZoneID == id {
			return domain.ErrZoneNotEmpty
		}
	}
	delete(m.zones, id)
	return nil
}

func (m *memRepository) CreateTree(_ context.Context, tree *domain.Tree) (*domain.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trees {
		if t.Code == tree.Code {
			return nil, domain.ErrTreeCodeTaken
		}
	}
	if tree.ZoneID != nil {
		if _, ok := m.zones[*tree.ZoneID]; !ok {
			return nil, domain.ErrZoneNotFound
		}
	}
	stored := *tree
	stored.Version = 1
	m.trees[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memRepository) FindTreeByID(_ context.Context, id string) (*domain.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trees[id]
	if !ok {
		return nil, domain.ErrTreeNotFound
	}
	out := *t
	return &out, nil
}

func (m *memRepository) FindTreeByCode(_ context.Context, code string) (*domain.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trees {
		if t.Code == code {
			out := *t
			return &out, nil
		}
	}
	return nil, domain.ErrTreeNotFound
}

func (m *memRepository) FindTreesByIDs(_ context.Context, ids []string) ([]*domain.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Tree
	for _, id := range ids {
		if t, ok := m.trees[id]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepository) ListTrees(_ context.Context, params domain.ListTreesParams) (*domain.PagedTreeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := params.Filter
	statuses := f.Statuses()

	var all []*domain.Tree
	for _, t := range m.trees {
		if !containsStatus(statuses, t.Status) {
			continue
		}
		if z := f.ZoneID(); z != nil && (t.ZoneID == nil || *t.ZoneID != *z) {
			continue
		}
		if v := f.Variety(); v != nil && !strings.EqualFold(t.Variety, *v) {
			continue
		}
		if p := f.CodePrefix(); p != nil && !strings.HasPrefix(t.Code, *p) {
			continue
		}
		cp := *t
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if f.OrderDir() == "desc" {
			return all[i].Code > all[j].Code
		}
		return all[i].Code < all[j].Code
	})
	page, hasMore := paginate(all, params.Limit, params.Offset)
	return &domain.PagedTreeResult{Trees: page, TotalCount: len(all), HasMore: hasMore}, nil
}

func (m *memRepository) UpdateTree(_ context.Context, params domain.UpdateTreeParams) (*domain.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trees[params.TreeID]
	if !ok {
		return nil, domain.ErrTreeNotFound
	}
	if err := checkVersion(params.Etag, t.Version); err != nil {
		return nil, err
	}
	if params.Has("code") {
		t.Code = params.Code.String()
	}
	if params.Has("zone_id") {
		t.ZoneID = nil
		if params.ZoneID != nil && *params.ZoneID != "" {
			if _, ok := m.zones[*params.ZoneID]; !ok {
				return nil, domain.ErrZoneNotFound
			}
			z := *params.ZoneID
			t.ZoneID = &z
		}
	}
	if params.Has("variety") && params.Variety != nil {
		t.Variety = *params.Variety
	}
	if params.Has("status") {
		t.Status = *params.Status
	}
	if params.Has("planted_at") {
		t.PlantedAt = params.PlantedAt
	}
	if params.Has("notes") && params.Notes != nil {
		t.Notes = *params.Notes
	}
	t.Version++
	out := *t
	return &out, nil
}

func (m *memRepository) CreateActivity(_ context.Context, activity *domain.ActivityLog) (*domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trees[activity.TreeID]; !ok {
		return nil, domain.ErrTreeNotFound
	}
	stored := *activity
	m.activities[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memRepository) FindActivityByID(_ context.Context, id string) (*domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[id]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	out := *a
	return &out, nil
}

func (m *memRepository) ListActivities(_ context.Context, params domain.ListActivitiesParams) (*domain.PagedActivityResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.ActivityLog
	for _, a := range m.activities {
		if a.TreeID != params.TreeID {
			continue
		}
		if params.Type != nil && a.Type != *params.Type {
			continue
		}
		cp := *a
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PerformedAt.After(all[j].PerformedAt) })
	page, hasMore := paginate(all, params.Limit, params.Offset)
	return &domain.PagedActivityResult{Activities: page, TotalCount: len(all), HasMore: hasMore}, nil
}

func (m *memRepository) MarkFollowUpDone(_ context.Context, id string) (*domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[id]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	a.FollowUpDone = true
	out := *a
	return &out, nil
}

func (m *memRepository) FindPendingFollowUps(_ context.Context, params domain.PendingFollowUpsParams) ([]domain.FollowUpItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.FollowUpItem
	for _, a := range m.activities {
		if a.FollowUp() == "" {
			continue
		}
		t := m.trees[a.TreeID]
		if t == nil || t.Status == domain.TreeStatusArchived {
			continue
		}
		if params.ZoneID != nil && (t.ZoneID == nil || *t.ZoneID != *params.ZoneID) {
			continue
		}
		zoneName := ""
		if t.ZoneID != nil {
			zoneName = m.zones[*t.ZoneID].Name
		}
		items = append(items, domain.FollowUpItem{Activity: *a, TreeCode: t.Code, ZoneName: zoneName})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].FollowUp() < items[j].FollowUp() })
	return items, nil
}

func (m *memRepository) CountFormulationCodes(context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func (m *memRepository) RewriteFormulationCode(context.Context, string, domain.FormulationCode) (int64, error) {
	return 0, nil
}

func (m *memRepository) Atomic(_ context.Context, fn func(repo orchard.Repository) error) error {
	return fn(m)
}

func containsStatus(statuses []domain.TreeStatus, s domain.TreeStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func paginate[T any](all []T, limit, offset int) ([]T, bool) {
	if offset >= len(all) {
		return []T{}, false
	}
	end := min(offset+limit, len(all))
	return all[offset:end], end < len(all)
}
