// Package dump renders container files for people: a text listing and a
// Graphviz digraph.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"

	"evonet/internal/container"
	"evonet/internal/network"
)

// Header writes the container header block. size is the file size in bytes.
func Header(w io.Writer, path string, size int64, h container.Header) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Dump of %s (%s):\n", path, humanize.Bytes(uint64(max(size, 0))))
	fmt.Fprintf(bw, "Header:\n\tmagic: %s\n\tkind: %s\n\tversion: %d\n", printableMagic(), h.Kind, h.Version)
	if h.Kind == container.KindPartial || h.Kind == container.KindFull {
		fmt.Fprintln(bw, "Not supported")
	}
	return bw.Flush()
}

func printableMagic() string {
	return container.Magic[:len(container.Magic)-1]
}

// Text writes the payload of f as an indented listing.
func Text(w io.Writer, f container.File) error {
	bw := bufio.NewWriter(w)
	switch contents := f.Contents.(type) {
	case nil, container.Empty:
		fmt.Fprintln(bw, "No data")
	case container.NetworkContents:
		writeNetworkText(bw, contents.Network)
	default:
		fmt.Fprintln(bw, "Not supported")
	}
	return bw.Flush()
}

func writeNetworkText(w *bufio.Writer, net *network.Network) {
	fmt.Fprintf(w, "Network %d %q (activation %s, %s nodes, %s connections):\n",
		net.ID(), net.Name(), net.Activation(),
		humanize.Comma(int64(net.Len())), humanize.Comma(int64(net.ConnectionCount())))
	for _, node := range net.Nodes() {
		outputs := node.Outputs()
		fmt.Fprintf(w, "\tNode %d (%s, %d outputs)\n", node.ID, node.Kind, len(outputs))
		for i, conn := range outputs {
			fmt.Fprintf(w, "\t\t[%d] -> %d (strength %s, plasticityRate %s, plasticityThreshold %s, reliability %s)",
				i, conn.Target,
				formatFloat(conn.Strength), formatFloat(conn.PlasticityRate),
				formatFloat(conn.PlasticityThreshold), formatFloat(conn.Reliability))
			if _, err := net.Node(conn.Target); err != nil {
				fmt.Fprint(w, " dangling")
			}
			fmt.Fprintln(w)
		}
	}
}

// DOT writes net as a Graphviz digraph. Dangling connections are drawn dashed
// towards a placeholder vertex.
func DOT(w io.Writer, net *network.Network) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph net_%d {\n", net.ID())
	fmt.Fprintf(bw, "\tlabel=%q;\n", fmt.Sprintf("%s (%s)", net.Name(), net.Activation()))
	for _, node := range net.Nodes() {
		fmt.Fprintf(bw, "\tn_%d [label=%q shape=%s];\n", node.ID, fmt.Sprintf("%d %s", node.ID, node.Kind), shapeOf(node.Kind))
	}

	missing := make(map[network.NodeID]struct{})
	for _, node := range net.Nodes() {
		for _, conn := range node.Outputs() {
			style := ""
			if _, err := net.Node(conn.Target); err != nil {
				missing[conn.Target] = struct{}{}
				style = " style=dashed"
			}
			fmt.Fprintf(bw, "\tn_%d -> n_%d [label=%q%s];\n", node.ID, conn.Target, formatFloat(conn.Strength), style)
		}
	}
	for _, id := range sortedIDs(missing) {
		fmt.Fprintf(bw, "\tn_%d [label=\"%d removed\" shape=point];\n", id, id)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func shapeOf(kind network.NodeKind) string {
	switch kind {
	case network.KindInput:
		return "invtriangle"
	case network.KindOutput:
		return "doublecircle"
	default:
		return "circle"
	}
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func sortedIDs(set map[network.NodeID]struct{}) []network.NodeID {
	ids := make([]network.NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
