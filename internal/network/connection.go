package network

// Connection is a directed edge owned by its source node.
type Connection struct {
	Target              NodeID
	Strength            float32
	PlasticityRate      float32
	PlasticityThreshold float32
	Reliability         float32
}

// NewConnection returns a connection to target with default parameters.
func NewConnection(target NodeID) Connection {
	return Connection{
		Target:              target,
		Strength:            1,
		PlasticityRate:      0,
		PlasticityThreshold: 1,
		Reliability:         1,
	}
}

// effect is the signal carried by the connection for a given source activation.
// Plasticity parameters are evolved but do not shape the signal yet.
func (c Connection) effect(activation float32) float32 {
	return activation * c.Strength * c.Reliability
}
