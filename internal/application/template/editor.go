package template

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// Defaults for a node inserted without explicit content
const (
	DefaultNodeTitle    = "新审批节点"
	DefaultAssigneeName = "待设置"
)

// DefaultNode returns the node the design surface inserts by default
func DefaultNode() entity.WorkflowNode {
	return entity.WorkflowNode{
		ID:        newNodeID(),
		Role:      entity.NodeRoleApprover,
		Mode:      entity.ModeSingle,
		Title:     DefaultNodeTitle,
		Assignees: []entity.Assignee{{Name: DefaultAssigneeName}},
	}
}

func newNodeID() string {
	return "N-" + uuid.NewString()
}

// Editor performs structural edits on stored templates. Edits never reach
// requests that were already submitted against a template.
//
// The editor also tracks which node is open for editing in each template, so
// that removing that node closes the session.
type Editor struct {
	store  *Store
	logger *zap.Logger

	mu      sync.Mutex
	editing map[string]string // template id -> open node id
}

// NewEditor creates an editor over store
func NewEditor(store *Store, logger *zap.Logger) *Editor {
	return &Editor{
		store:   store,
		logger:  logger,
		editing: make(map[string]string),
	}
}

// InsertNode inserts node after position afterIndex. afterIndex -1 inserts at
// the head; an index past the end appends. A nil node inserts DefaultNode.
func (e *Editor) InsertNode(templateID string, afterIndex int, node *entity.WorkflowNode) (entity.WorkflowTemplate, entity.WorkflowNode, error) {
	if afterIndex < -1 {
		return entity.WorkflowTemplate{}, entity.WorkflowNode{}, entity.Validationf("afterIndex %d out of range", afterIndex)
	}

	var n entity.WorkflowNode
	if node == nil {
		n = DefaultNode()
	} else {
		n = node.Clone()
		if n.ID == "" {
			n.ID = newNodeID()
		}
	}
	if err := validateNode(n); err != nil {
		return entity.WorkflowTemplate{}, entity.WorkflowNode{}, err
	}

	updated, err := e.store.Update(templateID, func(t *entity.WorkflowTemplate) error {
		if t.NodeIndex(n.ID) >= 0 {
			return entity.Validationf("node %s already exists in template %s", n.ID, templateID)
		}
		pos := len(t.Nodes)
		if afterIndex < len(t.Nodes) {
			pos = afterIndex + 1
		}
		nodes := make([]entity.WorkflowNode, 0, len(t.Nodes)+1)
		nodes = append(nodes, t.Nodes[:pos]...)
		nodes = append(nodes, n)
		t.Nodes = append(nodes, t.Nodes[pos:]...)
		return nil
	})
	if err != nil {
		return entity.WorkflowTemplate{}, entity.WorkflowNode{}, err
	}

	e.logger.Info("Workflow node inserted",
		zap.String("template_id", templateID),
		zap.String("node_id", n.ID),
		zap.Int("after_index", afterIndex))
	return updated, n.Clone(), nil
}

// RemoveNode removes a node. If it was open for editing the session closes.
func (e *Editor) RemoveNode(templateID, nodeID string) (entity.WorkflowTemplate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated, err := e.store.Update(templateID, func(t *entity.WorkflowTemplate) error {
		idx := t.NodeIndex(nodeID)
		if idx < 0 {
			return fmt.Errorf("%w: %s in template %s", entity.ErrNodeNotFound, nodeID, templateID)
		}
		t.Nodes = append(t.Nodes[:idx], t.Nodes[idx+1:]...)
		return nil
	})
	if err != nil {
		return entity.WorkflowTemplate{}, err
	}

	if e.editing[templateID] == nodeID {
		delete(e.editing, templateID)
	}

	e.logger.Info("Workflow node removed",
		zap.String("template_id", templateID),
		zap.String("node_id", nodeID))
	return updated, nil
}

// SetNodeRole changes a node's role. Switching to cc leaves the mode as is.
func (e *Editor) SetNodeRole(templateID, nodeID string, role entity.NodeRole) (entity.WorkflowTemplate, error) {
	return e.UpdateNode(templateID, nodeID, NodeChanges{Role: &role})
}

// SetNodeMode changes a node's decision mode
func (e *Editor) SetNodeMode(templateID, nodeID string, mode entity.DecisionMode) (entity.WorkflowTemplate, error) {
	return e.UpdateNode(templateID, nodeID, NodeChanges{Mode: &mode})
}

// SetNodeTitle renames a node
func (e *Editor) SetNodeTitle(templateID, nodeID, title string) (entity.WorkflowTemplate, error) {
	return e.UpdateNode(templateID, nodeID, NodeChanges{Title: &title})
}

// SetAssignees replaces a node's participants
func (e *Editor) SetAssignees(templateID, nodeID string, assignees []entity.Assignee) (entity.WorkflowTemplate, error) {
	return e.UpdateNode(templateID, nodeID, NodeChanges{Assignees: &assignees})
}

// NodeChanges lists the fields UpdateNode sets. Nil fields are left alone.
type NodeChanges struct {
	Role      *entity.NodeRole
	Mode      *entity.DecisionMode
	Title     *string
	Assignees *[]entity.Assignee
}

// Empty reports whether no field is set
func (c NodeChanges) Empty() bool {
	return c.Role == nil && c.Mode == nil && c.Title == nil && c.Assignees == nil
}

// UpdateNode applies all changes in one edit. If any field is invalid the
// template is left as it was.
func (e *Editor) UpdateNode(templateID, nodeID string, changes NodeChanges) (entity.WorkflowTemplate, error) {
	if changes.Empty() {
		return entity.WorkflowTemplate{}, entity.Validationf("no node fields to update")
	}
	if changes.Role != nil && !changes.Role.IsValid() {
		return entity.WorkflowTemplate{}, entity.Validationf("unknown node role %q", *changes.Role)
	}
	if changes.Mode != nil && !changes.Mode.IsValid() {
		return entity.WorkflowTemplate{}, entity.Validationf("unknown decision mode %q", *changes.Mode)
	}

	var fields []string
	var list []entity.Assignee
	if changes.Role != nil {
		fields = append(fields, "role")
	}
	if changes.Mode != nil {
		fields = append(fields, "mode")
	}
	if changes.Title != nil {
		fields = append(fields, "title")
	}
	if changes.Assignees != nil {
		fields = append(fields, "assignees")
		list = append([]entity.Assignee(nil), (*changes.Assignees)...)
	}

	return e.mutateNode(templateID, nodeID, strings.Join(fields, ","), func(n *entity.WorkflowNode) {
		if changes.Role != nil {
			n.Role = *changes.Role
		}
		if changes.Mode != nil {
			n.Mode = *changes.Mode
		}
		if changes.Title != nil {
			n.Title = *changes.Title
		}
		if changes.Assignees != nil {
			n.Assignees = list
		}
	})
}

// OpenNode starts an editing session on a node, replacing any open session
// for the same template
func (e *Editor) OpenNode(templateID, nodeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.store.Get(templateID)
	if err != nil {
		return err
	}
	if t.NodeIndex(nodeID) < 0 {
		return fmt.Errorf("%w: %s in template %s", entity.ErrNodeNotFound, nodeID, templateID)
	}
	e.editing[templateID] = nodeID
	return nil
}

// CloseNode ends the editing session of a template
func (e *Editor) CloseNode(templateID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.editing, templateID)
}

// EditingNode returns the node open for editing, if any
func (e *Editor) EditingNode(templateID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	nodeID, ok := e.editing[templateID]
	return nodeID, ok
}

func (e *Editor) mutateNode(templateID, nodeID, field string, fn func(*entity.WorkflowNode)) (entity.WorkflowTemplate, error) {
	updated, err := e.store.Update(templateID, func(t *entity.WorkflowTemplate) error {
		idx := t.NodeIndex(nodeID)
		if idx < 0 {
			return fmt.Errorf("%w: %s in template %s", entity.ErrNodeNotFound, nodeID, templateID)
		}
		n := t.Nodes[idx]
		fn(&n)
		if err := validateNode(n); err != nil {
			return err
		}
		t.Nodes[idx] = n
		return nil
	})
	if err != nil {
		return entity.WorkflowTemplate{}, err
	}

	e.logger.Info("Workflow node updated",
		zap.String("template_id", templateID),
		zap.String("node_id", nodeID),
		zap.String("field", field))
	return updated, nil
}
