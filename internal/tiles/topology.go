package tiles

import "fmt"

// Topology is the edge-wrapping behavior of a map.
type Topology uint8

const (
	TopologyFlat  Topology = iota // No wrapping
	TopologyWrapX                 // Cylinder: east and west edges meet
	TopologyWrapY                 // Cylinder: north and south edges meet
	TopologyTorus                 // Both axes wrap
)

// String returns the config name of the topology.
func (t Topology) String() string {
	switch t {
	case TopologyFlat:
		return "flat"
	case TopologyWrapX:
		return "wrapx"
	case TopologyWrapY:
		return "wrapy"
	case TopologyTorus:
		return "torus"
	default:
		return "unknown"
	}
}

// ParseTopology resolves a config name to a Topology.
func ParseTopology(s string) (Topology, error) {
	switch s {
	case "flat", "":
		return TopologyFlat, nil
	case "wrapx", "cylinder":
		return TopologyWrapX, nil
	case "wrapy":
		return TopologyWrapY, nil
	case "torus":
		return TopologyTorus, nil
	default:
		return 0, fmt.Errorf("unknown topology %q (want flat, wrapx, wrapy or torus)", s)
	}
}

// Valid reports whether t is a known topology.
func (t Topology) Valid() bool {
	return t <= TopologyTorus
}

// WrapsX reports whether the x axis wraps.
func (t Topology) WrapsX() bool {
	return t == TopologyWrapX || t == TopologyTorus
}

// WrapsY reports whether the y axis wraps.
func (t Topology) WrapsY() bool {
	return t == TopologyWrapY || t == TopologyTorus
}
