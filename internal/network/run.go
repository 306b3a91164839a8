package network

import (
	"context"
	"fmt"
)

// DefaultMaxDepth bounds propagation when callers have no better value.
const DefaultMaxDepth = 1000

// cancelCheckEvery is how many propagation hops RunContext makes between
// cancellation checks.
const cancelCheckEvery = 1024

// Run assigns inputs to the Input nodes (ascending id order), propagates from
// every Input with at most maxDepth hops and returns the Output values in
// ascending id order.
//
// Cycles are legal; maxDepth is what guarantees termination. Accumulators of
// all non-Input nodes are cleared before propagation.
func (n *Network) Run(inputs []float32, maxDepth int) ([]float32, error) {
	return n.RunContext(context.Background(), inputs, maxDepth)
}

// RunContext is Run with cancellation. The number of hops grows with the
// branching of cycles raised to maxDepth, so long-running callers should pass
// a deadline. A cancelled run returns ctx.Err() and leaves node values partial.
func (n *Network) RunContext(ctx context.Context, inputs []float32, maxDepth int) ([]float32, error) {
	inputNodes := n.Inputs()
	if len(inputs) != len(inputNodes) {
		return nil, fmt.Errorf("%w: got %d values for %d input nodes", ErrArityMismatch, len(inputs), len(inputNodes))
	}
	if maxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, maxDepth)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, node := range n.nodes {
		if node.Kind != KindInput {
			node.Value = 0
		}
	}
	for i, node := range inputNodes {
		node.Value = inputs[i]
	}
	w := walk{net: n, ctx: ctx}
	for _, node := range inputNodes {
		if err := w.propagate(node, maxDepth); err != nil {
			return nil, err
		}
	}

	outputNodes := n.Outputs()
	values := make([]float32, len(outputNodes))
	for i, node := range outputNodes {
		values[i] = node.Value
	}
	return values, nil
}

type walk struct {
	net  *Network
	ctx  context.Context
	hops int
}

func (w *walk) propagate(node *Node, depth int) error {
	if depth == 0 || node.Kind == KindOutput {
		return nil
	}
	w.hops++
	if w.hops%cancelCheckEvery == 0 {
		if err := w.ctx.Err(); err != nil {
			return err
		}
	}

	activation := float32(w.net.activate(float64(node.Value)))
	for _, conn := range node.outputs {
		target, ok := w.net.nodes[conn.Target]
		if !ok {
			continue
		}
		target.Value += conn.effect(activation)
		if err := w.propagate(target, depth-1); err != nil {
			return err
		}
	}
	return nil
}
