package entity

// NodeRole distinguishes approval gates from cc recipients
type NodeRole string

const (
	NodeRoleApprover NodeRole = "approver"
	NodeRoleCC       NodeRole = "cc"
)

// IsValid reports whether r is a known role
func (r NodeRole) IsValid() bool {
	return r == NodeRoleApprover || r == NodeRoleCC
}

// DecisionMode resolves a multi-assignee approver node. Meaningless for cc nodes.
type DecisionMode string

const (
	ModeSingle     DecisionMode = "single"     // 普通审批: any one assignee
	ModeJoint      DecisionMode = "joint"      // 会签: all assignees
	ModeSequential DecisionMode = "sequential" // 依次审批: in listed order
)

// IsValid reports whether m is a known decision mode
func (m DecisionMode) IsValid() bool {
	switch m {
	case ModeSingle, ModeJoint, ModeSequential:
		return true
	}
	return false
}

// Assignee is a participant of a workflow node
type Assignee struct {
	Name      string `json:"name" yaml:"name"`
	AvatarRef string `json:"avatar_ref" yaml:"avatar_ref"`
}

// WorkflowNode is one stage of a template
type WorkflowNode struct {
	ID        string       `json:"id" yaml:"id"`
	Role      NodeRole     `json:"role" yaml:"role"`
	Mode      DecisionMode `json:"mode" yaml:"mode"`
	Title     string       `json:"title" yaml:"title"`
	Assignees []Assignee   `json:"assignees" yaml:"assignees"`
}

// Clone returns a copy with its own assignee slice
func (n WorkflowNode) Clone() WorkflowNode {
	c := n
	c.Assignees = append([]Assignee(nil), n.Assignees...)
	return c
}

// WorkflowTemplate is a reusable, named approval chain. The initiator stage is
// implicit and never stored as a node.
type WorkflowTemplate struct {
	ID    string         `json:"id" yaml:"id"`
	Name  string         `json:"name" yaml:"name"`
	Icon  string         `json:"icon" yaml:"icon"`
	Color string         `json:"color" yaml:"color"`
	Nodes []WorkflowNode `json:"nodes" yaml:"nodes"`
}

// Clone returns a deep copy of the template
func (t WorkflowTemplate) Clone() WorkflowTemplate {
	c := t
	c.Nodes = make([]WorkflowNode, len(t.Nodes))
	for i, n := range t.Nodes {
		c.Nodes[i] = n.Clone()
	}
	return c
}

// NodeIndex returns the position of the node with the given id, or -1
func (t WorkflowTemplate) NodeIndex(nodeID string) int {
	for i, n := range t.Nodes {
		if n.ID == nodeID {
			return i
		}
	}
	return -1
}
