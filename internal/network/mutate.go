package network

import (
	"fmt"
	"math/rand"
	"time"
)

// Network-level mutation policy thresholds on r ~ U(0,1).
const (
	mutateNodeBelow = 0.60
	removeNodeBelow = 0.75
)

type MutationOp string

const (
	OpNoop       MutationOp = "noop"
	OpConnect    MutationOp = "connect"
	OpUnconnect  MutationOp = "unconnect"
	OpRemoveNode MutationOp = "remove_node"
	OpCreateNode MutationOp = "create_node"
	OpPerturb    MutationOp = "perturb"
)

// Mutation describes the edit a mutation step performed.
type Mutation struct {
	Op     MutationOp
	Node   NodeID
	Target NodeID
	// Field names the perturbed connection parameter for OpPerturb.
	Field string
	Delta float32
}

func (m Mutation) String() string {
	switch m.Op {
	case OpConnect, OpUnconnect:
		return fmt.Sprintf("%s %d -> %d", m.Op, m.Node, m.Target)
	case OpRemoveNode, OpCreateNode:
		return fmt.Sprintf("%s %d", m.Op, m.Node)
	case OpPerturb:
		return fmt.Sprintf("%s %d -> %d %s %+g", m.Op, m.Node, m.Target, m.Field, m.Delta)
	default:
		return string(m.Op)
	}
}

// NewRand returns a deterministic random source for reproducible runs.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// DefaultRand returns a time-seeded random source.
func DefaultRand() *rand.Rand {
	return NewRand(time.Now().UnixNano())
}

// Mutate applies the network mutation policy once: mutate a random node
// (60%), remove it (15%) or create a Transitional node (25%). An empty
// network always grows.
func (n *Network) Mutate(rng *rand.Rand) (Mutation, error) {
	if rng == nil {
		return Mutation{}, ErrNoRandSource
	}
	r := rng.Float64()
	if len(n.nodes) == 0 {
		return Mutation{Op: OpCreateNode, Node: n.Create(KindTransitional)}, nil
	}
	target := n.randomNodeID(rng)

	switch {
	case r < mutateNodeBelow:
		return n.MutateNode(target, rng)
	case r < removeNodeBelow:
		if err := n.Remove(target); err != nil {
			return Mutation{}, err
		}
		return Mutation{Op: OpRemoveNode, Node: target}, nil
	default:
		return Mutation{Op: OpCreateNode, Node: n.Create(KindTransitional)}, nil
	}
}

// MutateNode connects the node to, or disconnects it from, a random node of
// the network. Output nodes never originate edges and Input nodes never
// receive them; those draws are no-ops.
func (n *Network) MutateNode(id NodeID, rng *rand.Rand) (Mutation, error) {
	if rng == nil {
		return Mutation{}, ErrNoRandSource
	}
	node, err := n.Node(id)
	if err != nil {
		return Mutation{}, err
	}
	targetID := n.randomNodeID(rng)
	target := n.nodes[targetID]
	if node.Kind == KindOutput || target.Kind == KindInput {
		return Mutation{Op: OpNoop, Node: id, Target: targetID}, nil
	}

	if rng.Intn(2) == 0 {
		node.connect(targetID)
		return Mutation{Op: OpConnect, Node: id, Target: targetID}, nil
	}
	if !node.unconnect(targetID) {
		return Mutation{Op: OpNoop, Node: id, Target: targetID}, nil
	}
	return Mutation{Op: OpUnconnect, Node: id, Target: targetID}, nil
}

// MutateConnection perturbs the index-th outgoing connection of source.
func (n *Network) MutateConnection(source NodeID, index int, rng *rand.Rand) (Mutation, error) {
	if rng == nil {
		return Mutation{}, ErrNoRandSource
	}
	conn, err := n.Connection(source, index)
	if err != nil {
		return Mutation{}, err
	}
	m := conn.Mutate(rng)
	m.Node = source
	return m, nil
}

// Mutate draws one of five outcomes uniformly: nothing, or a perturbation of
// one parameter by (U-0.5)*U'/2. Values are not clamped. rng must not be nil.
func (c *Connection) Mutate(rng *rand.Rand) Mutation {
	choice := rng.Intn(5)
	if choice == 0 {
		return Mutation{Op: OpNoop, Target: c.Target}
	}
	delta := (rng.Float32() - 0.5) * rng.Float32() / 2

	var field string
	switch choice {
	case 1:
		field = fieldStrength
		c.Strength += delta
	case 2:
		field = fieldPlasticityRate
		c.PlasticityRate += delta
	case 3:
		field = fieldPlasticityThreshold
		c.PlasticityThreshold += delta
	case 4:
		field = fieldReliability
		c.Reliability += delta
	}
	return Mutation{Op: OpPerturb, Target: c.Target, Field: field, Delta: delta}
}

// randomNodeID picks uniformly among existing ids. The network must not be
// empty. Ids are drawn from the sorted id list so a seeded source replays
// the same choices.
func (n *Network) randomNodeID(rng *rand.Rand) NodeID {
	ids := n.NodeIDs()
	return ids[rng.Intn(len(ids))]
}
