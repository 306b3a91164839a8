// Package network implements the evolvable network: nodes addressed by id,
// parameterized connections, bounded-depth execution and random mutation.
//
// A Network is not safe for concurrent use. Callers that share one across
// goroutines must serialize whole edit/run/persist cycles themselves.
package network

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"evonet/internal/nn"
)

type Options struct {
	// ID is derived from a random UUID when zero.
	ID         uint64
	Name       string
	Activation string
}

type Network struct {
	id         uint64
	name       string
	activation string
	activate   nn.ActivationFunc

	nodes map[NodeID]*Node
}

// New creates an empty network. The activation defaults to nn.DefaultActivation
// and must resolve in the activation registry.
func New(opts Options) (*Network, error) {
	if opts.Activation == "" {
		opts.Activation = nn.DefaultActivation
	}
	fn, err := lookupActivation(opts.Activation)
	if err != nil {
		return nil, err
	}
	if opts.ID == 0 {
		opts.ID = NewNetworkID()
	}
	return &Network{
		id:         opts.ID,
		name:       opts.Name,
		activation: opts.Activation,
		activate:   fn,
		nodes:      make(map[NodeID]*Node),
	}, nil
}

// NewNetworkID derives a non-zero network id from a random UUID.
func NewNetworkID() uint64 {
	for {
		u := uuid.New()
		if id := binary.LittleEndian.Uint64(u[:8]); id != 0 {
			return id
		}
	}
}

func lookupActivation(name string) (nn.ActivationFunc, error) {
	fn, err := nn.GetActivation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivation, name)
	}
	return fn, nil
}

func (n *Network) ID() uint64         { return n.id }
func (n *Network) Name() string       { return n.name }
func (n *Network) Activation() string { return n.activation }

func (n *Network) SetName(name string) {
	n.name = name
}

// SetActivation switches the activation function. The network is left
// unchanged when name does not resolve.
func (n *Network) SetActivation(name string) error {
	fn, err := lookupActivation(name)
	if err != nil {
		return err
	}
	n.activation = name
	n.activate = fn
	return nil
}

// Clone returns a deep copy that shares no node or connection storage.
func (n *Network) Clone() *Network {
	cloned := *n
	cloned.nodes = make(map[NodeID]*Node, len(n.nodes))
	for id, node := range n.nodes {
		cloned.nodes[id] = node.clone()
	}
	return &cloned
}

func (n *Network) Len() int {
	return len(n.nodes)
}

func (n *Network) ConnectionCount() int {
	total := 0
	for _, node := range n.nodes {
		total += len(node.outputs)
	}
	return total
}

// Node returns the node with the given id.
func (n *Network) Node(id NodeID) (*Node, error) {
	node, ok := n.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return node, nil
}

// NodeIDs returns every node id in ascending order.
func (n *Network) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(n.nodes))
	for id := range n.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Nodes returns every node in ascending id order.
func (n *Network) Nodes() []*Node {
	return n.nodesOfKind(nil)
}

func (n *Network) Inputs() []*Node {
	kind := KindInput
	return n.nodesOfKind(&kind)
}

func (n *Network) Outputs() []*Node {
	kind := KindOutput
	return n.nodesOfKind(&kind)
}

func (n *Network) nodesOfKind(kind *NodeKind) []*Node {
	out := make([]*Node, 0, len(n.nodes))
	for _, id := range n.NodeIDs() {
		node := n.nodes[id]
		if kind != nil && node.Kind != *kind {
			continue
		}
		out = append(out, node)
	}
	return out
}

// Create adds a node of the given kind under the lowest free id.
func (n *Network) Create(kind NodeKind) NodeID {
	return n.CreateAt(kind, 0)
}

// CreateAt adds a node of the given kind under the first free id >= hint.
func (n *Network) CreateAt(kind NodeKind, hint NodeID) NodeID {
	id := n.allocateID(hint)
	n.nodes[id] = &Node{ID: id, Kind: kind, Value: DefaultNodeValue}
	return id
}

func (n *Network) allocateID(hint NodeID) NodeID {
	id := hint
	for {
		if _, used := n.nodes[id]; !used {
			return id
		}
		id++
	}
}

// Restore inserts a decoded node under its persisted id. It exists for codecs
// rebuilding a network; regular callers create nodes with Create.
func (n *Network) Restore(id NodeID, kind NodeKind, outputs []Connection) error {
	if _, used := n.nodes[id]; used {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}
	n.nodes[id] = &Node{
		ID:      id,
		Kind:    kind,
		Value:   DefaultNodeValue,
		outputs: slices.Clone(outputs),
	}
	return nil
}

// Remove deletes a node. Connections elsewhere that target it are left in
// place and behave as no-ops during Run.
func (n *Network) Remove(id NodeID) error {
	if _, ok := n.nodes[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	delete(n.nodes, id)
	return nil
}

// Connect appends a default connection from source to target. Self loops and
// duplicate edges are allowed.
func (n *Network) Connect(source, target NodeID) (Connection, error) {
	src, err := n.Node(source)
	if err != nil {
		return Connection{}, err
	}
	if _, err := n.Node(target); err != nil {
		return Connection{}, err
	}
	return src.connect(target), nil
}

// Unconnect removes the first connection from source to target.
func (n *Network) Unconnect(source, target NodeID) error {
	src, err := n.Node(source)
	if err != nil {
		return err
	}
	if !src.unconnect(target) {
		return fmt.Errorf("%w: %d -> %d", ErrNotConnected, source, target)
	}
	return nil
}

// Connection returns the index-th outgoing connection of source for in-place
// edits. The pointer is invalidated by any later structural edit of source.
func (n *Network) Connection(source NodeID, index int) (*Connection, error) {
	src, err := n.Node(source)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(src.outputs) {
		return nil, fmt.Errorf("%w: node %d has no connection %d", ErrNotConnected, source, index)
	}
	return &src.outputs[index], nil
}
