// Package sitegraph models a site's structural graph and builds the
// stack-ordered queue of URL bundles that feeds batched dispatch.
package sitegraph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RootNode is the node every seed-queue build starts from.
const RootNode = 1

// Graph maps a node to its ordered child nodes. A node missing from the map
// is a leaf, not an error.
type Graph map[int][]int

// Bundles maps a sub-key to its URL bundle, the atomic unit dispatched
// together.
type Bundles map[int][]string

// Payload maps a node to its bundles. Nodes without payload simply have no
// entry.
type Payload map[int]Bundles

// Site couples a structural graph with its per-node payload. It is supplied
// externally, normally from a YAML document.
type Site struct {
	Graph   Graph   `yaml:"graph"`
	Payload Payload `yaml:"payload"`
}

// LoadFile reads a Site definition from a YAML file.
func LoadFile(path string) (Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Site{}, fmt.Errorf("read site file: %w", err)
	}
	var site Site
	if err := yaml.Unmarshal(raw, &site); err != nil {
		return Site{}, fmt.Errorf("parse site file: %w", err)
	}
	return site, nil
}

// Queue is a stack-ordered collection of URL bundles. Pop returns the most
// recently pushed bundle; consumers drain it destructively. The ordering is
// intentional, not FIFO.
type Queue struct {
	bundles [][]string
}

// Push appends a bundle.
func (q *Queue) Push(bundle []string) {
	q.bundles = append(q.bundles, bundle)
}

// Pop removes and returns the most recently pushed bundle.
func (q *Queue) Pop() ([]string, bool) {
	if len(q.bundles) == 0 {
		return nil, false
	}
	last := q.bundles[len(q.bundles)-1]
	q.bundles = q.bundles[:len(q.bundles)-1]
	return last, true
}

// Len reports the number of queued bundles.
func (q *Queue) Len() int {
	return len(q.bundles)
}
