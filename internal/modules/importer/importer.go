package importer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"github.com/stocktake-io/stocktake/internal/modules/service"
	"github.com/stocktake-io/stocktake/internal/pkg/assetcode"
	"github.com/stocktake-io/stocktake/internal/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// maxPlacementRounds bounds the fixed-point placement loop. Forward
// references between assets resolve one level per round, so anything a
// real dataset contains settles well inside this.
const maxPlacementRounds = 30

// File is one dataset changeset: who made the changes, when, and the
// location and asset records it declares.
type File struct {
	User      string           `json:"user"`
	Timestamp time.Time        `json:"timestamp"`
	Comment   string           `json:"comment"`
	Locations []LocationRecord `json:"locations"`
	Assets    []AssetRecord    `json:"assets"`
}

// LocationRecord declares a location by slash path ("L1/L2"). Parent, when
// set, relinks the path's node under another declared path.
type LocationRecord struct {
	Path   string `json:"path"`
	Parent string `json:"parent,omitempty"`
}

// AssetRecord declares one asset. Placement references another asset's
// code or a location path.
type AssetRecord struct {
	Code         string         `json:"code"`
	CodeType     string         `json:"code_type,omitempty"`
	Name         string         `json:"name,omitempty"`
	Model        string         `json:"model"`
	Manufacturer string         `json:"manufacturer"`
	Placement    string         `json:"placement,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// Reconciler replays dataset files against the store. Imports are
// re-runnable: records that already exist are reused, duplicate codes are
// logged and skipped, and unresolvable placements never abort the run.
type Reconciler struct {
	manufacturers repo.ManufacturerRepo
	models        repo.AssetModelRepo
	nodeRepo      repo.NodeRepo
	assets        service.AssetService
	codes         service.AssetCodeService
	nodes         service.NodeService
	log           *zap.Logger
}

func NewReconciler(
	manufacturers repo.ManufacturerRepo,
	models repo.AssetModelRepo,
	nodeRepo repo.NodeRepo,
	assets service.AssetService,
	codes service.AssetCodeService,
	nodes service.NodeService,
	log *zap.Logger,
) *Reconciler {
	return &Reconciler{
		manufacturers: manufacturers,
		models:        models,
		nodeRepo:      nodeRepo,
		assets:        assets,
		codes:         codes,
		nodes:         nodes,
		log:           log,
	}
}

// Run replays every file from src in order, then drops changesets the run
// left without events.
func (r *Reconciler) Run(ctx context.Context, src Source) error {
	names, err := src.Files(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		raw, err := src.Read(ctx, name)
		if err != nil {
			return err
		}
		var f File
		if err := sonic.Unmarshal(raw, &f); err != nil {
			return err
		}
		r.log.Info("importing dataset file",
			zap.String("file", name),
			zap.Int("locations", len(f.Locations)),
			zap.Int("assets", len(f.Assets)))
		if err := r.importFile(ctx, name, &f); err != nil {
			return err
		}
	}
	return r.nodeRepo.DeleteEmptyChangeSets(ctx)
}

func (r *Reconciler) importFile(ctx context.Context, name string, f *File) error {
	actor := service.Actor{User: f.User, Comment: f.Comment, Timestamp: f.Timestamp}
	if actor.Comment == "" {
		actor.Comment = "imported from " + name
	}

	// Pass 1: locations and assets exist.
	for _, loc := range f.Locations {
		if _, err := r.nodes.EnsureLocationPath(ctx, splitPath(loc.Path)); err != nil {
			return err
		}
	}
	known := make(map[string]uuid.UUID, len(f.Assets)) // code -> asset id
	for _, rec := range f.Assets {
		id, err := r.ensureAsset(ctx, rec)
		if err != nil {
			return err
		}
		if id != uuid.Nil {
			known[rec.Code] = id
		}
	}

	// Pass 2: declared location relinks.
	for _, loc := range f.Locations {
		if loc.Parent == "" {
			continue
		}
		if err := r.relinkLocation(ctx, loc, actor); err != nil {
			return err
		}
	}

	// Pass 3: fixed-point placement. Assets referencing a not-yet-placed
	// asset are deferred to the next round.
	pending := make([]AssetRecord, 0, len(f.Assets))
	for _, rec := range f.Assets {
		if _, ok := known[rec.Code]; ok {
			pending = append(pending, rec)
		}
	}
	for round := 0; round < maxPlacementRounds && len(pending) > 0; round++ {
		var deferred []AssetRecord
		for _, rec := range pending {
			placed, err := r.placeAsset(ctx, known[rec.Code], rec, actor)
			if err != nil {
				return err
			}
			if !placed {
				deferred = append(deferred, rec)
			}
		}
		if len(deferred) == len(pending) {
			break
		}
		pending = deferred
	}

	// Whatever is left references something the dataset never placed.
	for _, rec := range pending {
		r.log.Error("asset placement unresolvable, marking lost",
			zap.String("code", rec.Code),
			zap.String("placement", rec.Placement))
		if _, err := r.assets.UpdateState(ctx, known[rec.Code], model.AssetStateLost); err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

// ensureAsset resolves or creates the record's asset. Returns uuid.Nil
// when the record is skipped.
func (r *Reconciler) ensureAsset(ctx context.Context, rec AssetRecord) (uuid.UUID, error) {
	if rec.Code == "" {
		r.log.Warn("asset record without code skipped")
		return uuid.Nil, nil
	}

	if a, err := r.assets.FindByCode(ctx, rec.Code); err == nil {
		return a.ID, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	man := &model.Manufacturer{Name: rec.Manufacturer, Slug: utils.Slugify(rec.Manufacturer)}
	if err := r.manufacturers.FirstOrCreate(ctx, man); err != nil {
		return uuid.Nil, err
	}
	mdl := &model.AssetModel{Name: rec.Model, Slug: utils.Slugify(rec.Model), ManufacturerID: man.ID}
	if err := r.models.FirstOrCreate(ctx, mdl); err != nil {
		return uuid.Nil, err
	}

	a := &model.Asset{AssetModelID: mdl.ID, State: model.AssetStateLost}
	if rec.Name != "" {
		n := rec.Name
		a.Name = &n
	}
	if len(rec.Data) > 0 {
		a.ExtraData = datatypes.JSONMap(rec.Data)
	}
	if err := r.assets.Create(ctx, a); err != nil {
		return uuid.Nil, err
	}

	codeType := assetcode.CodeType(rec.CodeType)
	if rec.CodeType == "" {
		codeType = assetcode.CodeTypeArbitrary
	}
	if _, err := r.codes.Add(ctx, a.ID, codeType, rec.Code); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Raced with another record for the same code; reuse theirs.
			r.log.Warn("duplicate asset code during import", zap.String("code", rec.Code))
			if derr := r.assets.Delete(ctx, a.ID); derr != nil {
				return uuid.Nil, derr
			}
			existing, ferr := r.assets.FindByCode(ctx, rec.Code)
			if ferr != nil {
				return uuid.Nil, ferr
			}
			return existing.ID, nil
		}
		if errors.Is(err, service.ErrInvalidCode) {
			r.log.Warn("invalid asset code during import, record skipped",
				zap.String("code", rec.Code), zap.Error(err))
			if derr := r.assets.Delete(ctx, a.ID); derr != nil {
				return uuid.Nil, derr
			}
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return a.ID, nil
}

func (r *Reconciler) relinkLocation(ctx context.Context, loc LocationRecord, actor service.Actor) error {
	node, err := r.findLocationByPath(ctx, loc.Path)
	if err != nil {
		return err
	}
	parent, err := r.nodes.EnsureLocationPath(ctx, splitPath(loc.Parent))
	if err != nil {
		return err
	}
	if parent == nil || node == nil {
		return nil
	}
	if node.ParentID != nil && *node.ParentID == parent.ID {
		return nil
	}
	_, err = r.nodes.Move(ctx, node.ID, &parent.ID, actor)
	if errors.Is(err, service.ErrCycleDetected) {
		r.log.Error("location relink would cycle, skipped",
			zap.String("path", loc.Path), zap.String("parent", loc.Parent))
		return nil
	}
	return err
}

// placeAsset attempts one placement. Returns false when the referenced
// parent asset exists but is not yet in the tree.
func (r *Reconciler) placeAsset(ctx context.Context, assetID uuid.UUID, rec AssetRecord, actor service.Actor) (bool, error) {
	var parentID *uuid.UUID

	if rec.Placement != "" {
		parent, err := r.nodes.FindByAssetCode(ctx, rec.Placement)
		switch {
		case err == nil:
			parentID = &parent.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			if _, aerr := r.assets.FindByCode(ctx, rec.Placement); aerr == nil {
				// Referenced asset exists but is unplaced; next round.
				return false, nil
			} else if !errors.Is(aerr, gorm.ErrRecordNotFound) {
				return false, aerr
			}
			// Not an asset code; treat as a location path.
			locNode, lerr := r.nodes.EnsureLocationPath(ctx, splitPath(rec.Placement))
			if lerr != nil {
				return false, lerr
			}
			if locNode != nil {
				parentID = &locNode.ID
			}
		default:
			return false, err
		}
	}

	_, err := r.nodes.AttachAsset(ctx, assetID, parentID, actor)
	if errors.Is(err, service.ErrAlreadyPlaced) {
		return true, nil
	}
	return err == nil, err
}

func (r *Reconciler) findLocationByPath(ctx context.Context, path string) (*model.Node, error) {
	var parent *model.Node
	for _, seg := range splitPath(path) {
		var pid *uuid.UUID
		if parent != nil {
			pid = &parent.ID
		}
		n, err := r.nodeRepo.FindChildLocationByName(ctx, pid, seg)
		if err != nil {
			return nil, err
		}
		parent = n
	}
	return parent, nil
}

func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
