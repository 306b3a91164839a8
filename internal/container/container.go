// Package container reads and writes the versioned binary file format.
//
// Layout (all integers and floats little-endian):
//
//	magic    [6]byte "ZENML\x00"
//	kind     u8      0=None 1=Network 2=Partial 3=Full
//	version  u16
//	-- kind == Network --
//	id       u64     non-zero; 0 is rejected as ErrInvalidFormat
//	name     u32 length + bytes
//	activ.   u32 length + bytes
//	nodes    u64 count, then per node:
//	  id u64, kind u16, outputs u64 count, then per connection:
//	    target u64, strength f32, plasticityRate f32,
//	    plasticityThreshold f32, reliability f32
package container

import (
	"errors"
	"fmt"
	"strconv"

	"evonet/internal/network"
)

const (
	Magic          = "ZENML\x00"
	CurrentVersion = uint16(1)

	maxStringLen = 64 << 10
)

var (
	ErrIO                 = errors.New("container io error")
	ErrInvalidFormat      = errors.New("invalid container format")
	ErrUnsupportedKind    = errors.New("container kind not supported")
	ErrUnsupportedVersion = errors.New("container version not supported")
	ErrNotNetwork         = errors.New("container does not hold a network")
)

type Kind uint8

const (
	KindNone Kind = iota
	KindNetwork
	KindPartial
	KindFull
)

var kindNames = [...]string{
	KindNone:    "none",
	KindNetwork: "network",
	KindPartial: "partial",
	KindFull:    "full",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// ParseKind accepts a kind name or its numeric value.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if s == name {
			return Kind(i), nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && int(n) < len(kindNames) {
		return Kind(n), nil
	}
	return KindNone, fmt.Errorf("unknown container kind %q", s)
}

// Contents is the payload of a container. Exactly one variant exists per Kind.
type Contents interface {
	Kind() Kind
}

// Empty is the payload of a None container.
type Empty struct{}

// NetworkContents holds a single network.
type NetworkContents struct {
	Network *network.Network
}

// Partial is a shard of a multi-network environment. It is declared by the
// format but has no encoding yet.
type Partial struct{}

// Full is a complete multi-network environment. Declared, not implemented.
type Full struct{}

func (Empty) Kind() Kind           { return KindNone }
func (NetworkContents) Kind() Kind { return KindNetwork }
func (Partial) Kind() Kind         { return KindPartial }
func (Full) Kind() Kind            { return KindFull }

type Header struct {
	Kind    Kind
	Version uint16
}

type File struct {
	Version  uint16
	Contents Contents
}

// NewNetworkFile wraps net in a current-version container.
func NewNetworkFile(net *network.Network) File {
	return File{Version: CurrentVersion, Contents: NetworkContents{Network: net}}
}

// Kind returns the kind of the contents; a nil payload is None.
func (f File) Kind() Kind {
	if f.Contents == nil {
		return KindNone
	}
	return f.Contents.Kind()
}

// Network returns the network payload or ErrNotNetwork.
func (f File) Network() (*network.Network, error) {
	contents, ok := f.Contents.(NetworkContents)
	if !ok || contents.Network == nil {
		return nil, fmt.Errorf("%w: kind %s", ErrNotNetwork, f.Kind())
	}
	return contents.Network, nil
}
