package importer

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"github.com/stocktake-io/stocktake/internal/modules/service"
	"github.com/stocktake-io/stocktake/internal/pkg/assetcode"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memStore backs in-memory repo implementations so the reconciler runs
// against the real service logic.
type memStore struct {
	manufacturers map[string]*model.Manufacturer // by slug
	models        map[string]*model.AssetModel   // by slug
	assets        map[uuid.UUID]*model.Asset
	codes         map[string]*model.AssetCode // by code
	nodes         map[uuid.UUID]*model.Node
	order         []uuid.UUID
	changesets    []*model.ChangeSet
}

func newMemStore() *memStore {
	return &memStore{
		manufacturers: map[string]*model.Manufacturer{},
		models:        map[string]*model.AssetModel{},
		assets:        map[uuid.UUID]*model.Asset{},
		codes:         map[string]*model.AssetCode{},
		nodes:         map[uuid.UUID]*model.Node{},
	}
}

type memManufacturers struct{ s *memStore }

func (m memManufacturers) Create(ctx context.Context, mf *model.Manufacturer) error {
	mf.ID = uuid.New()
	m.s.manufacturers[mf.Slug] = mf
	return nil
}
func (m memManufacturers) Get(ctx context.Context, id uuid.UUID) (*model.Manufacturer, error) {
	for _, mf := range m.s.manufacturers {
		if mf.ID == id {
			return mf, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m memManufacturers) GetBySlug(ctx context.Context, slug string) (*model.Manufacturer, error) {
	if mf, ok := m.s.manufacturers[slug]; ok {
		return mf, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m memManufacturers) FirstOrCreate(ctx context.Context, mf *model.Manufacturer) error {
	if existing, ok := m.s.manufacturers[mf.Slug]; ok {
		*mf = *existing
		return nil
	}
	return m.Create(ctx, mf)
}
func (m memManufacturers) ListWithCursor(ctx context.Context, t time.Time, id uuid.UUID, limit int) ([]model.Manufacturer, error) {
	return nil, nil
}
func (m memManufacturers) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type memModels struct{ s *memStore }

func (m memModels) Transaction(ctx context.Context, fn func(repo.AssetModelRepo) error) error {
	return fn(m)
}
func (m memModels) Create(ctx context.Context, am *model.AssetModel) error {
	am.ID = uuid.New()
	m.s.models[am.Slug] = am
	return nil
}
func (m memModels) Get(ctx context.Context, id uuid.UUID) (*model.AssetModel, error) {
	for _, am := range m.s.models {
		if am.ID == id {
			return am, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m memModels) GetBySlug(ctx context.Context, slug string) (*model.AssetModel, error) {
	if am, ok := m.s.models[slug]; ok {
		return am, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m memModels) FirstOrCreate(ctx context.Context, am *model.AssetModel) error {
	if existing, ok := m.s.models[am.Slug]; ok {
		*am = *existing
		return nil
	}
	return m.Create(ctx, am)
}
func (m memModels) ListWithCursor(ctx context.Context, t time.Time, id uuid.UUID, limit int) ([]model.AssetModel, error) {
	return nil, nil
}
func (m memModels) SetContainer(ctx context.Context, id uuid.UUID, isContainer bool) error {
	am, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	am.IsContainer = isContainer
	return nil
}
func (m memModels) CountNodesWithChildren(ctx context.Context, modelID uuid.UUID) (int64, error) {
	return 0, nil
}
func (m memModels) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type memAssets struct{ s *memStore }

func (m memAssets) Create(ctx context.Context, a *model.Asset) error {
	a.ID = uuid.New()
	m.s.assets[a.ID] = a
	return nil
}
func (m memAssets) Save(ctx context.Context, a *model.Asset) error {
	m.s.assets[a.ID] = a
	return nil
}
func (m memAssets) Get(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	a, ok := m.s.assets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *a
	for _, n := range m.s.nodes {
		if n.AssetID != nil && *n.AssetID == id {
			nc := *n
			c.Node = &nc
		}
	}
	return &c, nil
}
func (m memAssets) FindByCode(ctx context.Context, code string) (*model.Asset, error) {
	c, ok := m.s.codes[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.Get(ctx, c.AssetID)
}
func (m memAssets) ListWithCursor(ctx context.Context, t time.Time, id uuid.UUID, limit int) ([]model.Asset, error) {
	return nil, nil
}
func (m memAssets) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.s.assets, id)
	for code, c := range m.s.codes {
		if c.AssetID == id {
			delete(m.s.codes, code)
		}
	}
	return nil
}

type memCodes struct{ s *memStore }

func (m memCodes) Create(ctx context.Context, c *model.AssetCode) error {
	if _, exists := m.s.codes[c.Code]; exists {
		return gorm.ErrDuplicatedKey
	}
	c.ID = uuid.New()
	m.s.codes[c.Code] = c
	return nil
}
func (m memCodes) Get(ctx context.Context, id uuid.UUID) (*model.AssetCode, error) {
	for _, c := range m.s.codes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m memCodes) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]model.AssetCode, error) {
	var out []model.AssetCode
	for _, c := range m.s.codes {
		if c.AssetID == assetID {
			out = append(out, *c)
		}
	}
	return out, nil
}
func (m memCodes) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type memNodes struct{ s *memStore }

func (m memNodes) Transaction(ctx context.Context, fn func(repo.NodeRepo) error) error {
	return fn(m)
}
func (m memNodes) CreateNode(ctx context.Context, n *model.Node) error {
	n.ID = uuid.New()
	m.s.nodes[n.ID] = n
	m.s.order = append(m.s.order, n.ID)
	return nil
}
func (m memNodes) SaveNode(ctx context.Context, n *model.Node) error {
	m.s.nodes[n.ID] = n
	return nil
}
func (m memNodes) DeleteNode(ctx context.Context, id uuid.UUID) error {
	delete(m.s.nodes, id)
	return nil
}
func (m memNodes) hydrate(n *model.Node) *model.Node {
	c := *n
	if c.AssetID != nil {
		if a, ok := m.s.assets[*c.AssetID]; ok {
			ac := *a
			for _, am := range m.s.models {
				if am.ID == a.AssetModelID {
					mc := *am
					ac.AssetModel = &mc
				}
			}
			c.Asset = &ac
		}
	}
	return &c
}
func (m memNodes) GetNode(ctx context.Context, id uuid.UUID) (*model.Node, error) {
	n, ok := m.s.nodes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.hydrate(n), nil
}
func (m memNodes) GetNodeByAssetID(ctx context.Context, assetID uuid.UUID) (*model.Node, error) {
	for _, id := range m.s.order {
		if n, ok := m.s.nodes[id]; ok && n.AssetID != nil && *n.AssetID == assetID {
			return m.hydrate(n), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m memNodes) FindNodeByAssetCode(ctx context.Context, code string) (*model.Node, error) {
	c, ok := m.s.codes[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.GetNodeByAssetID(ctx, c.AssetID)
}
func (m memNodes) FindChildLocationByName(ctx context.Context, parentID *uuid.UUID, name string) (*model.Node, error) {
	for _, id := range m.s.order {
		n, ok := m.s.nodes[id]
		if !ok || n.NodeType != model.NodeTypeLocation || n.Name == nil || *n.Name != name {
			continue
		}
		if (parentID == nil) != (n.ParentID == nil) {
			continue
		}
		if parentID == nil || *parentID == *n.ParentID {
			return m.hydrate(n), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m memNodes) Children(ctx context.Context, parentID uuid.UUID) ([]model.Node, error) {
	var out []model.Node
	for _, id := range m.s.order {
		if n, ok := m.s.nodes[id]; ok && n.ParentID != nil && *n.ParentID == parentID {
			out = append(out, *m.hydrate(n))
		}
	}
	return out, nil
}
func (m memNodes) ChildCount(ctx context.Context, parentID uuid.UUID) (int64, error) {
	children, _ := m.Children(ctx, parentID)
	return int64(len(children)), nil
}
func (m memNodes) UpdateAssetState(ctx context.Context, assetID uuid.UUID, state model.AssetState) error {
	a, ok := m.s.assets[assetID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.State = state
	return nil
}
func (m memNodes) DeleteAsset(ctx context.Context, assetID uuid.UUID) error {
	delete(m.s.assets, assetID)
	return nil
}
func (m memNodes) PromoteModelContainer(ctx context.Context, modelID uuid.UUID) error {
	for _, am := range m.s.models {
		if am.ID == modelID {
			am.IsContainer = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
func (m memNodes) CreateChangeSet(ctx context.Context, cs *model.ChangeSet) error {
	cs.ID = uuid.New()
	m.s.changesets = append(m.s.changesets, cs)
	return nil
}
func (m memNodes) DeleteEmptyChangeSets(ctx context.Context) error {
	var kept []*model.ChangeSet
	for _, cs := range m.s.changesets {
		if len(cs.Events) > 0 {
			kept = append(kept, cs)
		}
	}
	m.s.changesets = kept
	return nil
}

// memSource serves pre-marshalled dataset files.
type memSource struct{ files map[string][]byte }

func (s memSource) Files(ctx context.Context) ([]string, error) {
	var names []string
	for name := range s.files {
		names = append(names, name)
	}
	return names, nil
}
func (s memSource) Read(ctx context.Context, name string) ([]byte, error) {
	return s.files[name], nil
}

func newTestReconciler(s *memStore) *Reconciler {
	log := zap.NewNop()
	registry := assetcode.NewRegistry(assetcode.Config{})
	nodes := service.NewNodeService(memNodes{s}, service.NodePolicy{AutoPromoteContainers: true}, nil, log)
	assets := service.NewAssetService(memAssets{s}, memNodes{s}, nil, log)
	codes := service.NewAssetCodeService(memCodes{s}, registry, 10, nil, log)
	return NewReconciler(memManufacturers{s}, memModels{s}, memNodes{s}, assets, codes, nodes, log)
}

func marshalFile(t *testing.T, f File) []byte {
	t.Helper()
	raw, err := sonic.Marshal(f)
	assert.NoError(t, err)
	return raw
}

func TestReconciler_LocationsAndPlacement(t *testing.T) {
	s := newMemStore()
	rec := newTestReconciler(s)

	f := File{
		User:      "importer",
		Timestamp: time.Date(2019, 4, 1, 12, 0, 0, 0, time.UTC),
		Comment:   "initial load",
		Locations: []LocationRecord{{Path: "L1/L2"}},
		Assets: []AssetRecord{
			{Code: "X-1", Model: "Crate", Manufacturer: "Acme", Placement: "L1/L2"},
		},
	}
	src := memSource{files: map[string][]byte{"0001.json": marshalFile(t, f)}}

	assert.NoError(t, rec.Run(context.Background(), src))

	a, err := memAssets{s}.FindByCode(context.Background(), "X-1")
	assert.NoError(t, err)
	assert.Equal(t, model.AssetStateKnown, a.State)
	assert.NotNil(t, a.Node)

	// placed under L2, which sits under L1
	parent, err := memNodes{s}.GetNode(context.Background(), *a.Node.ParentID)
	assert.NoError(t, err)
	assert.Equal(t, "L2", *parent.Name)
	assert.NotNil(t, parent.ParentID)
}

// An asset referencing another asset that is itself placed later in the
// same file resolves on the second round of the fixed-point loop.
func TestReconciler_ForwardReferenceConverges(t *testing.T) {
	s := newMemStore()
	rec := newTestReconciler(s)

	f := File{
		User:      "importer",
		Timestamp: time.Now().UTC(),
		Locations: []LocationRecord{{Path: "Warehouse"}},
		Assets: []AssetRecord{
			// X references Y, declared after it
			{Code: "X-1", Model: "Radio", Manufacturer: "Acme", Placement: "Y-1"},
			{Code: "Y-1", Model: "Crate", Manufacturer: "Acme", Placement: "Warehouse"},
		},
	}
	src := memSource{files: map[string][]byte{"0001.json": marshalFile(t, f)}}

	assert.NoError(t, rec.Run(context.Background(), src))

	x, err := memAssets{s}.FindByCode(context.Background(), "X-1")
	assert.NoError(t, err)
	assert.Equal(t, model.AssetStateKnown, x.State)

	yNode, err := memNodes{s}.FindNodeByAssetCode(context.Background(), "Y-1")
	assert.NoError(t, err)
	assert.Equal(t, yNode.ID, *x.Node.ParentID)

	// the crate's model was auto-promoted when it gained a child
	assert.True(t, s.models["crate"].IsContainer)
}

func TestReconciler_UnresolvableMarkedLost(t *testing.T) {
	s := newMemStore()
	rec := newTestReconciler(s)

	f := File{
		User:      "importer",
		Timestamp: time.Now().UTC(),
		Assets: []AssetRecord{
			// dangling reference: Z-9 is never declared, and the record
			// itself declares a code so it parses as an asset ref only if
			// one exists; here it falls back to a location path, so use a
			// code-shaped ref that exists as an asset but is never placed.
			{Code: "Z-9", Model: "Radio", Manufacturer: "Acme", Placement: "Z-9"},
		},
	}
	src := memSource{files: map[string][]byte{"0001.json": marshalFile(t, f)}}

	assert.NoError(t, rec.Run(context.Background(), src))

	z, err := memAssets{s}.FindByCode(context.Background(), "Z-9")
	assert.NoError(t, err)
	assert.Equal(t, model.AssetStateLost, z.State)
	assert.Nil(t, z.Node)
}

func TestReconciler_Rerunnable(t *testing.T) {
	s := newMemStore()
	rec := newTestReconciler(s)

	f := File{
		User:      "importer",
		Timestamp: time.Now().UTC(),
		Locations: []LocationRecord{{Path: "Shelf"}},
		Assets: []AssetRecord{
			{Code: "X-1", Model: "Radio", Manufacturer: "Acme", Placement: "Shelf"},
		},
	}
	src := memSource{files: map[string][]byte{"0001.json": marshalFile(t, f)}}

	assert.NoError(t, rec.Run(context.Background(), src))
	assert.NoError(t, rec.Run(context.Background(), src))

	// still exactly one asset and one code
	assert.Len(t, s.assets, 1)
	assert.Len(t, s.codes, 1)
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"L1", "L2"}, splitPath("L1/L2"))
	assert.Equal(t, []string{"L1", "L2"}, splitPath(" L1 / L2 "))
	assert.Equal(t, []string{"L1"}, splitPath("/L1/"))
	assert.Nil(t, splitPath(""))
}
