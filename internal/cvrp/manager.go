package cvrp

// Manager translates between logical node ids (0..N-1, depot included) and
// the route positions the search operates on. A fleet of V vehicles needs V
// distinct start and V distinct end positions that all alias the depot node,
// while every other node occupies exactly one interior position.
//
// Layout: interior positions come first (nodes in increasing id order, depot
// skipped), then the V starts, then the V ends.
type Manager struct {
	nodes    int
	vehicles int
	depot    int
}

func NewManager(nodes, vehicles, depot int) *Manager {
	return &Manager{nodes: nodes, vehicles: vehicles, depot: depot}
}

// Size is the total number of route positions.
func (m *Manager) Size() int { return m.nodes - 1 + 2*m.vehicles }

// IndexToNode resolves a route position to its logical node id. Every start
// and end position resolves to the depot.
func (m *Manager) IndexToNode(pos int) int {
	if pos < m.nodes-1 {
		if pos < m.depot {
			return pos
		}
		return pos + 1
	}
	return m.depot
}

// NodeToIndex returns the interior position of a non-depot node, or -1 for
// the depot (which aliases to multiple positions).
func (m *Manager) NodeToIndex(node int) int {
	if node == m.depot {
		return -1
	}
	if node < m.depot {
		return node
	}
	return node - 1
}

// Start returns vehicle v's start position.
func (m *Manager) Start(v int) int { return m.nodes - 1 + v }

// End returns vehicle v's end position.
func (m *Manager) End(v int) int { return m.nodes - 1 + m.vehicles + v }

func (m *Manager) IsStart(pos int) bool {
	return pos >= m.nodes-1 && pos < m.nodes-1+m.vehicles
}

func (m *Manager) IsEnd(pos int) bool {
	return pos >= m.nodes-1+m.vehicles && pos < m.Size()
}
