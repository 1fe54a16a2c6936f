package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor identifies who performed a tree mutation, recorded on the
// resulting changeset.
type Actor struct {
	User    string
	Comment string
	// Timestamp overrides the changeset time; zero means now. The bulk
	// importer replays historical datasets with their recorded times.
	Timestamp time.Time
}

// NodePolicy tunes tree behaviour that differs between the API server and
// the bulk importer.
type NodePolicy struct {
	// AutoPromoteContainers promotes an asset's model to container when
	// its node gains the first child, instead of rejecting the mutation.
	AutoPromoteContainers bool
}

// ChangePublisher receives committed changesets. The rabbitmq publisher
// satisfies it; a nil publisher disables the fan-out.
type ChangePublisher interface {
	PublishJSON(ctx context.Context, v any) error
}

type NodeService interface {
	// AttachAsset places an out-of-tree asset at the root (nil parent) or
	// under a container-capable parent, marking the asset Known.
	AttachAsset(ctx context.Context, assetID uuid.UUID, parentID *uuid.UUID, actor Actor) (*model.Node, error)
	// CreateLocation adds a named location node.
	CreateLocation(ctx context.Context, name string, parentID *uuid.UUID) (*model.Node, error)
	// EnsureLocationPath resolves a chain of location names from the root,
	// creating the missing segments.
	EnsureLocationPath(ctx context.Context, segments []string) (*model.Node, error)
	// Move reparents a node. Moving a node into its own subtree fails with
	// ErrCycleDetected and mutates nothing.
	Move(ctx context.Context, nodeID uuid.UUID, newParentID *uuid.UUID, actor Actor) (*model.Node, error)
	// MarkOutOfTree removes a node from the tree, transitioning linked
	// assets to target (Lost or Disposed). Without recursive, a node that
	// still has children is refused.
	MarkOutOfTree(ctx context.Context, nodeID uuid.UUID, recursive bool, target model.AssetState, actor Actor) error
	// Get returns the node and its ancestor chain, root first.
	Get(ctx context.Context, id uuid.UUID) (*model.Node, []model.Node, error)
	Children(ctx context.Context, id uuid.UUID) ([]model.Node, error)
	FindByAssetCode(ctx context.Context, code string) (*model.Node, error)
}

type nodeService struct {
	r      repo.NodeRepo
	policy NodePolicy
	pub    ChangePublisher
	log    *zap.Logger
}

func NewNodeService(r repo.NodeRepo, policy NodePolicy, pub ChangePublisher, log *zap.Logger) NodeService {
	return &nodeService{r: r, policy: policy, pub: pub, log: log}
}

func (s *nodeService) AttachAsset(ctx context.Context, assetID uuid.UUID, parentID *uuid.UUID, actor Actor) (*model.Node, error) {
	var (
		node *model.Node
		cs   *model.ChangeSet
	)
	err := s.r.Transaction(ctx, func(tx repo.NodeRepo) error {
		if _, err := tx.GetNodeByAssetID(ctx, assetID); err == nil {
			return ErrAlreadyPlaced
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var parent *model.Node
		if parentID != nil {
			p, err := tx.GetNode(ctx, *parentID)
			if err != nil {
				return err
			}
			if err := s.ensureContainer(ctx, tx, p); err != nil {
				return err
			}
			parent = p
		}

		aid := assetID
		node = &model.Node{NodeType: model.NodeTypeAsset, AssetID: &aid, ParentID: parentID}
		if err := tx.CreateNode(ctx, node); err != nil {
			return err
		}
		if err := tx.UpdateAssetState(ctx, assetID, model.AssetStateKnown); err != nil {
			return err
		}

		cs = newChangeSet(actor, []model.AssetEvent{
			assetEvent(model.AssetEventCreate, assetID, nil, parent),
		})
		return tx.CreateChangeSet(ctx, cs)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, cs)
	return node, nil
}

func (s *nodeService) CreateLocation(ctx context.Context, name string, parentID *uuid.UUID) (*model.Node, error) {
	var node *model.Node
	err := s.r.Transaction(ctx, func(tx repo.NodeRepo) error {
		if parentID != nil {
			p, err := tx.GetNode(ctx, *parentID)
			if err != nil {
				return err
			}
			if err := s.ensureContainer(ctx, tx, p); err != nil {
				return err
			}
		}
		n := name
		node = &model.Node{NodeType: model.NodeTypeLocation, Name: &n, ParentID: parentID}
		return tx.CreateNode(ctx, node)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (s *nodeService) EnsureLocationPath(ctx context.Context, segments []string) (*model.Node, error) {
	var parent *model.Node
	for _, seg := range segments {
		var pid *uuid.UUID
		if parent != nil {
			pid = &parent.ID
		}
		n, err := s.r.FindChildLocationByName(ctx, pid, seg)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			n, err = s.CreateLocation(ctx, seg, pid)
		}
		if err != nil {
			return nil, err
		}
		parent = n
	}
	return parent, nil
}

func (s *nodeService) Move(ctx context.Context, nodeID uuid.UUID, newParentID *uuid.UUID, actor Actor) (*model.Node, error) {
	var (
		node *model.Node
		cs   *model.ChangeSet
	)
	err := s.r.Transaction(ctx, func(tx repo.NodeRepo) error {
		n, err := tx.GetNode(ctx, nodeID)
		if err != nil {
			return err
		}

		var (
			oldParent *model.Node
			newParent *model.Node
		)
		if n.ParentID != nil {
			if oldParent, err = tx.GetNode(ctx, *n.ParentID); err != nil {
				return err
			}
		}
		if newParentID != nil {
			if err := checkNoCycle(ctx, tx, nodeID, *newParentID); err != nil {
				return err
			}
			if newParent, err = tx.GetNode(ctx, *newParentID); err != nil {
				return err
			}
			if err := s.ensureContainer(ctx, tx, newParent); err != nil {
				return err
			}
		}

		oldParentID := n.ParentID
		n.ParentID = newParentID
		if err := tx.SaveNode(ctx, n); err != nil {
			return err
		}
		if err := pruneEmptyLocations(ctx, tx, oldParentID); err != nil {
			return err
		}

		// Every asset under the moved node changed placement.
		assetIDs, err := subtreeAssetIDs(ctx, tx, n)
		if err != nil {
			return err
		}
		events := make([]model.AssetEvent, 0, len(assetIDs))
		for _, id := range assetIDs {
			events = append(events, assetEvent(model.AssetEventMove, id, oldParent, newParent))
		}
		if len(events) > 0 {
			cs = newChangeSet(actor, events)
			if err := tx.CreateChangeSet(ctx, cs); err != nil {
				return err
			}
		}
		node = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, cs)
	return node, nil
}

func (s *nodeService) MarkOutOfTree(ctx context.Context, nodeID uuid.UUID, recursive bool, target model.AssetState, actor Actor) error {
	if target != model.AssetStateLost && target != model.AssetStateDisposed {
		return ErrInvalidTargetState
	}
	var cs *model.ChangeSet
	err := s.r.Transaction(ctx, func(tx repo.NodeRepo) error {
		n, err := tx.GetNode(ctx, nodeID)
		if err != nil {
			return err
		}
		if !recursive {
			cnt, err := tx.ChildCount(ctx, nodeID)
			if err != nil {
				return err
			}
			if cnt > 0 {
				return ErrNonEmptyNode
			}
		}

		// Collect the subtree parents-before-children with an explicit
		// worklist, then delete in reverse so children go first.
		ordered := []model.Node{*n}
		queue := []uuid.UUID{n.ID}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			children, err := tx.Children(ctx, id)
			if err != nil {
				return err
			}
			for _, c := range children {
				ordered = append(ordered, c)
				queue = append(queue, c.ID)
			}
		}

		events := make([]model.AssetEvent, 0, len(ordered))
		for i := len(ordered) - 1; i >= 0; i-- {
			cur := ordered[i]
			if err := tx.DeleteNode(ctx, cur.ID); err != nil {
				return err
			}
			if cur.AssetID == nil {
				continue
			}
			if err := tx.UpdateAssetState(ctx, *cur.AssetID, target); err != nil {
				return err
			}
			ev := assetEvent(model.AssetEventMove, *cur.AssetID, nil, nil)
			ev.Data = datatypes.NewJSONType(map[string]any{
				"old": nodeRef(&cur), "new": nil, "state": string(target),
			})
			events = append(events, ev)
		}

		if err := pruneEmptyLocations(ctx, tx, n.ParentID); err != nil {
			return err
		}
		if len(events) > 0 {
			cs = newChangeSet(actor, events)
			return tx.CreateChangeSet(ctx, cs)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, cs)
	return nil
}

func (s *nodeService) Get(ctx context.Context, id uuid.UUID) (*model.Node, []model.Node, error) {
	n, err := s.r.GetNode(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ancestors, err := ancestorChain(ctx, s.r, n.ParentID)
	if err != nil {
		return nil, nil, err
	}
	return n, ancestors, nil
}

func (s *nodeService) Children(ctx context.Context, id uuid.UUID) ([]model.Node, error) {
	return s.r.Children(ctx, id)
}

func (s *nodeService) FindByAssetCode(ctx context.Context, code string) (*model.Node, error) {
	return s.r.FindNodeByAssetCode(ctx, code)
}

// ensureContainer verifies parent may hold children, promoting the model
// when policy allows.
func (s *nodeService) ensureContainer(ctx context.Context, tx repo.NodeRepo, parent *model.Node) error {
	if parent.IsContainer() {
		return nil
	}
	if !s.policy.AutoPromoteContainers {
		return ErrNotContainer
	}
	if parent.Asset == nil {
		return ErrNotContainer
	}
	s.log.Info("promoting asset model to container",
		zap.String("model_id", parent.Asset.AssetModelID.String()),
		zap.String("node", parent.DisplayName()))
	if err := tx.PromoteModelContainer(ctx, parent.Asset.AssetModelID); err != nil {
		return err
	}
	parent.Asset.AssetModel.IsContainer = true
	return nil
}

func (s *nodeService) publish(ctx context.Context, cs *model.ChangeSet) {
	if s.pub == nil || cs == nil {
		return
	}
	if err := s.pub.PublishJSON(ctx, cs); err != nil {
		s.log.Warn("changeset publish failed", zap.String("changeset_id", cs.ID.String()), zap.Error(err))
	}
}

// checkNoCycle walks the ancestors of the proposed parent. Finding the
// node being moved means the move would create a cycle.
func checkNoCycle(ctx context.Context, tx repo.NodeRepo, nodeID uuid.UUID, newParentID uuid.UUID) error {
	seen := map[uuid.UUID]struct{}{}
	cur := &newParentID
	for cur != nil {
		if *cur == nodeID {
			return ErrCycleDetected
		}
		if _, dup := seen[*cur]; dup {
			// Pre-existing corruption; refuse to make it worse.
			return ErrCycleDetected
		}
		seen[*cur] = struct{}{}
		n, err := tx.GetNode(ctx, *cur)
		if err != nil {
			return err
		}
		cur = n.ParentID
	}
	return nil
}

// pruneEmptyLocations walks upward from parentID deleting every location
// node left without children, stopping at the first non-empty ancestor.
func pruneEmptyLocations(ctx context.Context, tx repo.NodeRepo, parentID *uuid.UUID) error {
	cur := parentID
	for cur != nil {
		n, err := tx.GetNode(ctx, *cur)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if n.NodeType != model.NodeTypeLocation {
			return nil
		}
		cnt, err := tx.ChildCount(ctx, n.ID)
		if err != nil {
			return err
		}
		if cnt > 0 {
			return nil
		}
		if err := tx.DeleteNode(ctx, n.ID); err != nil {
			return err
		}
		cur = n.ParentID
	}
	return nil
}

func ancestorChain(ctx context.Context, r repo.NodeRepo, parentID *uuid.UUID) ([]model.Node, error) {
	var chain []model.Node
	seen := map[uuid.UUID]struct{}{}
	cur := parentID
	for cur != nil {
		if _, dup := seen[*cur]; dup {
			break
		}
		seen[*cur] = struct{}{}
		n, err := r.GetNode(ctx, *cur)
		if err != nil {
			return nil, err
		}
		chain = append([]model.Node{*n}, chain...)
		cur = n.ParentID
	}
	return chain, nil
}

func subtreeAssetIDs(ctx context.Context, tx repo.NodeRepo, root *model.Node) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if root.AssetID != nil {
		ids = append(ids, *root.AssetID)
	}
	queue := []uuid.UUID{root.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := tx.Children(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if c.AssetID != nil {
				ids = append(ids, *c.AssetID)
			}
			queue = append(queue, c.ID)
		}
	}
	return ids, nil
}

func newChangeSet(actor Actor, events []model.AssetEvent) *model.ChangeSet {
	user := actor.User
	if user == "" {
		user = "system"
	}
	ts := actor.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &model.ChangeSet{
		User:      user,
		Comment:   actor.Comment,
		Timestamp: ts,
		Events:    events,
	}
}

func assetEvent(t model.AssetEventType, assetID uuid.UUID, oldParent, newParent *model.Node) model.AssetEvent {
	return model.AssetEvent{
		EventType: t,
		AssetID:   assetID,
		Data: datatypes.NewJSONType(map[string]any{
			"old": nodeRef(oldParent),
			"new": nodeRef(newParent),
		}),
	}
}

func nodeRef(n *model.Node) map[string]any {
	if n == nil {
		return nil
	}
	return map[string]any{"id": n.ID.String(), "name": n.DisplayName()}
}
