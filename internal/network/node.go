package network

import "slices"

type NodeID uint64

// DefaultNodeValue is the accumulator value of a freshly created node.
const DefaultNodeValue float32 = 0.5

// Node is a vertex of a Network. It is addressed by ID and holds no reference
// to the network that owns it.
type Node struct {
	ID    NodeID
	Kind  NodeKind
	Value float32

	outputs []Connection
}

// Outputs returns a copy of the node's outgoing connections in order.
func (n *Node) Outputs() []Connection {
	return slices.Clone(n.outputs)
}

func (n *Node) OutputCount() int {
	return len(n.outputs)
}

// ConnectedTo reports whether the node has at least one connection to target.
func (n *Node) ConnectedTo(target NodeID) bool {
	return n.connectionIndex(target) >= 0
}

func (n *Node) connectionIndex(target NodeID) int {
	for i, conn := range n.outputs {
		if conn.Target == target {
			return i
		}
	}
	return -1
}

func (n *Node) connect(target NodeID) Connection {
	conn := NewConnection(target)
	n.outputs = append(n.outputs, conn)
	return conn
}

func (n *Node) unconnect(target NodeID) bool {
	idx := n.connectionIndex(target)
	if idx < 0 {
		return false
	}
	n.outputs = slices.Delete(n.outputs, idx, idx+1)
	return true
}

func (n *Node) clone() *Node {
	cloned := *n
	cloned.outputs = slices.Clone(n.outputs)
	return &cloned
}
