package network

import (
	"errors"
	"reflect"
	"testing"
)

func TestFieldTables(t *testing.T) {
	net := newTestNetwork(t)
	node := &Node{ID: 1, Kind: KindInput, Value: DefaultNodeValue}
	conn := NewConnection(4)

	tests := []struct {
		name   string
		target Reflectable
		want   []string
	}{
		{name: "network", target: net, want: []string{"name", "activation"}},
		{name: "node", target: node, want: []string{"kind", "value"}},
		{name: "connection", target: &conn, want: []string{"target", "strength", "plasticityRate", "plasticityThreshold", "reliability"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.target.Fields(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("unexpected fields: %+v", got)
			}
			for _, name := range tc.want {
				if !tc.target.HasField(name) {
					t.Fatalf("missing field %s", name)
				}
			}
			if tc.target.HasField("id") {
				t.Fatal("id must not be exposed as a field")
			}
		})
	}
}

func TestGetField(t *testing.T) {
	net := newTestNetwork(t)
	id := net.Create(KindOutput)
	node, _ := net.Node(id)
	conn := NewConnection(12)
	conn.Strength = 0.25

	tests := []struct {
		target Reflectable
		field  string
		want   string
	}{
		{target: net, field: "name", want: "test"},
		{target: net, field: "activation", want: "relu"},
		{target: node, field: "kind", want: "output"},
		{target: node, field: "value", want: "0.5"},
		{target: &conn, field: "target", want: "12"},
		{target: &conn, field: "strength", want: "0.25"},
		{target: &conn, field: "plasticityThreshold", want: "1"},
	}
	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			got, err := tc.target.GetField(tc.field)
			if err != nil {
				t.Fatalf("get field: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected value: got=%q want=%q", got, tc.want)
			}
		})
	}

	if _, err := node.GetField("missing"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got: %v", err)
	}
}

func TestSetField(t *testing.T) {
	net := newTestNetwork(t)
	id := net.Create(KindTransitional)
	other := net.Create(KindTransitional)
	if _, err := net.Connect(id, other); err != nil {
		t.Fatalf("connect: %v", err)
	}
	node, _ := net.Node(id)
	conn, _ := net.Connection(id, 0)

	for _, step := range []struct {
		target Reflectable
		field  string
		value  string
	}{
		{target: net, field: "name", value: "renamed"},
		{target: net, field: "activation", value: "tanh"},
		{target: node, field: "kind", value: "input"},
		{target: node, field: "value", value: "-1.5"},
		{target: conn, field: "target", value: "9"},
		{target: conn, field: "reliability", value: "0.75"},
		{target: conn, field: "plasticityRate", value: "1e-3"},
	} {
		if err := step.target.SetField(step.field, step.value); err != nil {
			t.Fatalf("set %s=%s: %v", step.field, step.value, err)
		}
	}

	if net.Name() != "renamed" || net.Activation() != "tanh" {
		t.Fatalf("network fields not applied: %s %s", net.Name(), net.Activation())
	}
	if node.Kind != KindInput || node.Value != -1.5 {
		t.Fatalf("node fields not applied: %+v", node)
	}
	stored, _ := net.Connection(id, 0)
	if stored.Target != 9 || stored.Reliability != 0.75 || stored.PlasticityRate != float32(1e-3) {
		t.Fatalf("connection fields not applied: %+v", stored)
	}
}

func TestSetFieldRejectsWithoutPartialWrites(t *testing.T) {
	net := newTestNetwork(t)
	id := net.Create(KindOutput)
	node, _ := net.Node(id)
	conn := NewConnection(1)

	tests := []struct {
		name    string
		target  Reflectable
		field   string
		value   string
		wantErr error
	}{
		{name: "unknown", target: node, field: "bias", value: "1", wantErr: ErrUnknownField},
		{name: "bad float", target: node, field: "value", value: "abc", wantErr: ErrParse},
		{name: "bad kind", target: node, field: "kind", value: "hidden", wantErr: ErrParse},
		{name: "bad target", target: &conn, field: "target", value: "-3", wantErr: ErrParse},
		{name: "bad strength", target: &conn, field: "strength", value: "1.0x", wantErr: ErrParse},
		{name: "bad activation", target: net, field: "activation", value: "nope", wantErr: ErrParse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.target.SetField(tc.field, tc.value); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got: %v", tc.wantErr, err)
			}
		})
	}

	if node.Kind != KindOutput || node.Value != DefaultNodeValue {
		t.Fatalf("node modified by rejected writes: %+v", node)
	}
	if conn != NewConnection(1) {
		t.Fatalf("connection modified by rejected writes: %+v", conn)
	}
	if net.Activation() != "relu" {
		t.Fatalf("activation modified by rejected write: %s", net.Activation())
	}
}

func TestSetActivationErrorKeepsUnknownActivationCause(t *testing.T) {
	net := newTestNetwork(t)
	err := net.SetField("activation", "nope")
	if !errors.Is(err, ErrUnknownActivation) {
		t.Fatalf("expected wrapped ErrUnknownActivation, got: %v", err)
	}
}
