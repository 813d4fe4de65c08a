package orchard

import (
	"context"
	"errors"

	"github.com/suanview/orchard/internal/domain"
)

// fakeRepository implements Repository for testing.
// Unset funcs return errNotStubbed so tests fail loudly when an unexpected call happens.
type fakeRepository struct {
	createZoneFunc   func(ctx context.Context, zone *domain.Zone) (*domain.Zone, error)
	findZoneByIDFunc func(ctx context.Context, id string) (*domain.Zone, error)
	listZonesFunc    func(ctx context.Context, params domain.ListZonesParams) (*domain.PagedZoneResult, error)
	updateZoneFunc   func(ctx context.Context, params domain.UpdateZoneParams) (*domain.Zone, error)
	deleteZoneFunc   func(ctx context.Context, id string) error

	createTreeFunc     func(ctx context.Context, tree *domain.Tree) (*domain.Tree, error)
	findTreeByIDFunc   func(ctx context.Context, id string) (*domain.Tree, error)
	findTreeByCodeFunc func(ctx context.Context, code string) (*domain.Tree, error)
	findTreesByIDsFunc func(ctx context.Context, ids []string) ([]*domain.Tree, error)
	listTreesFunc      func(ctx context.Context, params domain.ListTreesParams) (*domain.PagedTreeResult, error)
	updateTreeFunc     func(ctx context.Context, params domain.UpdateTreeParams) (*domain.Tree, error)

	createActivityFunc       func(ctx context.Context, activity *domain.ActivityLog) (*domain.ActivityLog, error)
	findActivityByIDFunc     func(ctx context.Context, id string) (*domain.ActivityLog, error)
	listActivitiesFunc       func(ctx context.Context, params domain.ListActivitiesParams) (*domain.PagedActivityResult, error)
	markFollowUpDoneFunc     func(ctx context.Context, id string) (*domain.ActivityLog, error)
	findPendingFollowUpsFunc func(ctx context.Context, params domain.PendingFollowUpsParams) ([]domain.FollowUpItem, error)

	countFormulationCodesFunc  func(ctx context.Context) (map[string]int, error)
	rewriteFormulationCodeFunc func(ctx context.Context, from string, to domain.FormulationCode) (int64, error)

	atomicCalls int
}

var errNotStubbed = errors.New("not stubbed")

func (m *fakeRepository) CreateZone(ctx context.Context, zone *domain.Zone) (*domain.Zone, error) {
	if m.createZoneFunc != nil {
		return m.createZoneFunc(ctx, zone)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) FindZoneByID(ctx context.Context, id string) (*domain.Zone, error) {
	if m.findZoneByIDFunc != nil {
		return m.findZoneByIDFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) ListZones(ctx context.Context, params domain.ListZonesParams) (*domain.PagedZoneResult, error) {
	if m.listZonesFunc != nil {
		return m.listZonesFunc(ctx, params)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) UpdateZone(ctx context.Context, params domain.UpdateZoneParams) (*domain.Zone, error) {
	if m.updateZoneFunc != nil {
		return m.updateZoneFunc(ctx, params)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) DeleteZone(ctx context.Context, id string) error {
	if m.deleteZoneFunc != nil {
		return m.deleteZoneFunc(ctx, id)
	}
	return errNotStubbed
}

func (m *fakeRepository) CreateTree(ctx context.Context, tree *domain.Tree) (*domain.Tree, error) {
	if m.createTreeFunc != nil {
		return m.createTreeFunc(ctx, tree)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) FindTreeByID(ctx context.Context, id string) (*domain.Tree, error) {
	if m.findTreeByIDFunc != nil {
		return m.findTreeByIDFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) FindTreeByCode(ctx context.Context, code string) (*domain.Tree, error) {
	if m.findTreeByCodeFunc != nil {
		return m.findTreeByCodeFunc(ctx, code)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) FindTreesByIDs(ctx context.Context, ids []string) ([]*domain.Tree, error) {
	if m.findTreesByIDsFunc != nil {
		return m.findTreesByIDsFunc(ctx, ids)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) ListTrees(ctx context.Context, params domain.ListTreesParams) (*domain.PagedTreeResult, error) {
	if m.listTreesFunc != nil {
		return m.listTreesFunc(ctx, params)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) UpdateTree(ctx context.Context, params domain.UpdateTreeParams) (*domain.Tree, error) {
	if m.updateTreeFunc != nil {
		return m.updateTreeFunc(ctx, params)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) CreateActivity(ctx context.Context, activity *domain.ActivityLog) (*domain.ActivityLog, error) {
	if m.createActivityFunc != nil {
		return m.createActivityFunc(ctx, activity)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) FindActivityByID(ctx context.Context, id string) (*domain.ActivityLog, error) {
	if m.findActivityByIDFunc != nil {
		return m.findActivityByIDFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) ListActivities(ctx context.Context, params domain.ListActivitiesParams) (*domain.PagedActivityResult, error) {
	if m.listActivitiesFunc != nil {
		return m.listActivitiesFunc(ctx, params)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) MarkFollowUpDone(ctx context.Context, id string) (*domain.ActivityLog, error) {
	if m.markFollowUpDoneFunc != nil {
		return m.markFollowUpDoneFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) FindPendingFollowUps(ctx context.Context, params domain.PendingFollowUpsParams) ([]domain.FollowUpItem, error) {
	if m.findPendingFollowUpsFunc != nil {
		return m.findPendingFollowUpsFunc(ctx, params)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) CountFormulationCodes(ctx context.Context) (map[string]int, error) {
	if m.countFormulationCodesFunc != nil {
		return m.countFormulationCodesFunc(ctx)
	}
	return nil, errNotStubbed
}

func (m *fakeRepository) RewriteFormulationCode(ctx context.Context, from string, to domain.FormulationCode) (int64, error) {
	if m.rewriteFormulationCodeFunc != nil {
		return m.rewriteFormulationCodeFunc(ctx, from, to)
	}
	return 0, errNotStubbed
}

func (m *fakeRepository) Atomic(ctx context.Context, fn func(repo Repository) error) error {
	m.atomicCalls++
	return fn(m)
}
