package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one evolution run over a network.
type RunRecord struct {
	VersionedRecord
	ID               string    `json:"id"`
	NetworkID        uint64    `json:"network_id"`
	NetworkName      string    `json:"network_name"`
	Activation       string    `json:"activation"`
	Seed             int64     `json:"seed"`
	Generations      int       `json:"generations"`
	MaxDepth         int       `json:"max_depth"`
	Inputs           []float32 `json:"inputs,omitempty"`
	CreatedAtUTC     string    `json:"created_at_utc"`
	FinalNodes       int       `json:"final_nodes"`
	FinalConnections int       `json:"final_connections"`
}

// Snapshot is the state of a run's network after one generation. Payload
// holds the network as an encoded container file.
type Snapshot struct {
	VersionedRecord
	RunID           string    `json:"run_id"`
	Generation      int       `json:"generation"`
	Mutation        string    `json:"mutation"`
	NodeCount       int       `json:"node_count"`
	ConnectionCount int       `json:"connection_count"`
	Outputs         []float32 `json:"outputs,omitempty"`
	// RunError records why the generation could not be evaluated.
	RunError string `json:"run_error,omitempty"`
	Payload  []byte `json:"-"`
}
