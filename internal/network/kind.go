package network

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeKind is the role of a node. The numeric values are part of the file format.
type NodeKind uint16

const (
	KindNone NodeKind = iota
	KindTransitional
	KindInput
	KindOutput
)

var kindNames = [...]string{
	KindNone:         "none",
	KindTransitional: "transitional",
	KindInput:        "input",
	KindOutput:       "output",
}

func (k NodeKind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", uint16(k))
}

func (k NodeKind) Valid() bool {
	return int(k) < len(kindNames)
}

// ParseKind accepts a kind name (case-insensitive) or its numeric value.
func ParseKind(s string) (NodeKind, error) {
	s = strings.TrimSpace(s)
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return NodeKind(i), nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || !NodeKind(n).Valid() {
		return KindNone, fmt.Errorf("%w: node kind %q", ErrParse, s)
	}
	return NodeKind(n), nil
}
