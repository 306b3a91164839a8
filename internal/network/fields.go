package network

import (
	"fmt"
	"strconv"
)

// Reflectable exposes a closed set of named fields as strings so generic
// tooling can read and edit entities without per-type branching.
type Reflectable interface {
	Fields() []string
	HasField(name string) bool
	GetField(name string) (string, error)
	SetField(name, value string) error
}

var (
	_ Reflectable = (*Network)(nil)
	_ Reflectable = (*Node)(nil)
	_ Reflectable = (*Connection)(nil)
)

const (
	fieldName                = "name"
	fieldActivation          = "activation"
	fieldKind                = "kind"
	fieldValue               = "value"
	fieldTarget              = "target"
	fieldStrength            = "strength"
	fieldPlasticityRate      = "plasticityRate"
	fieldPlasticityThreshold = "plasticityThreshold"
	fieldReliability         = "reliability"
)

type field[T any] struct {
	name string
	get  func(*T) string
	// set must validate fully before assigning anything.
	set func(*T, string) error
}

type fieldTable[T any] []field[T]

func (t fieldTable[T]) names() []string {
	out := make([]string, len(t))
	for i, f := range t {
		out[i] = f.name
	}
	return out
}

func (t fieldTable[T]) lookup(name string) (field[T], error) {
	for _, f := range t {
		if f.name == name {
			return f, nil
		}
	}
	return field[T]{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
}

func (t fieldTable[T]) has(name string) bool {
	_, err := t.lookup(name)
	return err == nil
}

func (t fieldTable[T]) get(v *T, name string) (string, error) {
	f, err := t.lookup(name)
	if err != nil {
		return "", err
	}
	return f.get(v), nil
}

func (t fieldTable[T]) set(v *T, name, value string) error {
	f, err := t.lookup(name)
	if err != nil {
		return err
	}
	return f.set(v, value)
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func parseFloat32(name, s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrParse, name, s)
	}
	return float32(v), nil
}

func float32Field[T any](name string, ptr func(*T) *float32) field[T] {
	return field[T]{
		name: name,
		get:  func(v *T) string { return formatFloat32(*ptr(v)) },
		set: func(v *T, s string) error {
			parsed, err := parseFloat32(name, s)
			if err != nil {
				return err
			}
			*ptr(v) = parsed
			return nil
		},
	}
}

var networkFields = fieldTable[Network]{
	{
		name: fieldName,
		get:  func(n *Network) string { return n.name },
		set: func(n *Network, s string) error {
			n.SetName(s)
			return nil
		},
	},
	{
		name: fieldActivation,
		get:  func(n *Network) string { return n.activation },
		set: func(n *Network, s string) error {
			if err := n.SetActivation(s); err != nil {
				return fmt.Errorf("%w: %w", ErrParse, err)
			}
			return nil
		},
	},
}

var nodeFields = fieldTable[Node]{
	{
		name: fieldKind,
		get:  func(n *Node) string { return n.Kind.String() },
		set: func(n *Node, s string) error {
			kind, err := ParseKind(s)
			if err != nil {
				return err
			}
			n.Kind = kind
			return nil
		},
	},
	float32Field(fieldValue, func(n *Node) *float32 { return &n.Value }),
}

var connectionFields = fieldTable[Connection]{
	{
		name: fieldTarget,
		get:  func(c *Connection) string { return strconv.FormatUint(uint64(c.Target), 10) },
		set: func(c *Connection, s string) error {
			target, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", ErrParse, fieldTarget, s)
			}
			c.Target = NodeID(target)
			return nil
		},
	},
	float32Field(fieldStrength, func(c *Connection) *float32 { return &c.Strength }),
	float32Field(fieldPlasticityRate, func(c *Connection) *float32 { return &c.PlasticityRate }),
	float32Field(fieldPlasticityThreshold, func(c *Connection) *float32 { return &c.PlasticityThreshold }),
	float32Field(fieldReliability, func(c *Connection) *float32 { return &c.Reliability }),
}

func (n *Network) Fields() []string {
	return networkFields.names()
}

func (n *Network) HasField(name string) bool {
	return networkFields.has(name)
}

func (n *Network) GetField(name string) (string, error) {
	return networkFields.get(n, name)
}

func (n *Network) SetField(name, value string) error {
	return networkFields.set(n, name, value)
}

func (n *Node) Fields() []string {
	return nodeFields.names()
}

func (n *Node) HasField(name string) bool {
	return nodeFields.has(name)
}

func (n *Node) GetField(name string) (string, error) {
	return nodeFields.get(n, name)
}

func (n *Node) SetField(name, value string) error {
	return nodeFields.set(n, name, value)
}

func (c *Connection) Fields() []string {
	return connectionFields.names()
}

func (c *Connection) HasField(name string) bool {
	return connectionFields.has(name)
}

func (c *Connection) GetField(name string) (string, error) {
	return connectionFields.get(c, name)
}

func (c *Connection) SetField(name, value string) error {
	return connectionFields.set(c, name, value)
}
