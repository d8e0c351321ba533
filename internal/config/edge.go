package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Edge is a salary bin boundary. Besides plain numbers it decodes the
// strings "inf", "+inf" and "-inf" (JSON) and .inf (YAML).
type Edge float64

// Float returns e as a float64.
func (e Edge) Float() float64 { return float64(e) }

func parseEdge(s string) (Edge, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("invalid salary edge %q", s)
	}
	return Edge(f), nil
}

func (e *Edge) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*e = Edge(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid salary edge %s", b)
	}
	v, err := parseEdge(s)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

func (e Edge) MarshalJSON() ([]byte, error) {
	switch {
	case math.IsInf(float64(e), 1):
		return []byte(`"+inf"`), nil
	case math.IsInf(float64(e), -1):
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(float64(e))
}

func (e *Edge) UnmarshalYAML(n *yaml.Node) error {
	var f float64
	if err := n.Decode(&f); err == nil {
		*e = Edge(f)
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := parseEdge(s)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Floats converts edges to a float64 slice.
func Floats(edges []Edge) []float64 {
	out := make([]float64, len(edges))
	for i, e := range edges {
		out[i] = float64(e)
	}
	return out
}
