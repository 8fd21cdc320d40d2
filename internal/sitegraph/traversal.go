package sitegraph

import (
	"sort"

	"go.uber.org/zap"
)

// BundleStrategy selects how SeedQueue treats the bundles accumulated per
// sub-key. KeepLast matches the observed source behavior of discarding all
// but the last accumulated bundle; KeepAll queues every one.
type BundleStrategy int

const (
	// KeepLast queues only the last accumulated bundle per sub-key.
	KeepLast BundleStrategy = iota
	// KeepAll queues every accumulated bundle per sub-key.
	KeepAll
)

// DepthFirstOrder returns the preorder DFS over g starting at start. Each
// reachable node appears exactly once; cycles terminate via the discovered
// set, and a node absent from g is treated as a leaf.
func DepthFirstOrder(start int, g Graph) []int {
	discovered := make(map[int]bool)
	order := make([]int, 0, len(g))

	// Iterative preorder with an explicit stack: children are pushed in
	// reverse so the leftmost child is expanded first, matching recursion.
	stack := []int{start}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if discovered[node] {
			continue
		}
		discovered[node] = true
		order = append(order, node)

		children := g[node]
		for i := len(children) - 1; i >= 0; i-- {
			if !discovered[children[i]] {
				stack = append(stack, children[i])
			}
		}
	}
	return order
}

// BreadthFirstBundles explores b breadth-first from start and returns every
// bundle accumulated along the way, in visit order. The frontier mirrors the
// source traversal: a node is marked visited on enqueue, so the walk never
// expands past the start node and the accumulator holds at most one bundle.
func BreadthFirstBundles(start int, b Bundles) [][]string {
	visited := map[int]bool{start: true}
	queue := []int{start}

	var collected [][]string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		bundle, ok := b[node]
		if !ok || len(bundle) == 0 {
			continue
		}
		collected = append(collected, bundle)
		if !visited[node] {
			visited[node] = true
			queue = append(queue, node)
		}
	}
	return collected
}

// SeedQueue walks g depth-first from the root node and, for every visited
// node carrying payload, collects the bundles reachable from each of its
// sub-keys into a stack-ordered Queue. Nodes without payload are skipped, and
// a sub-key yielding no bundle abandons the node's remaining sub-keys; a
// partial site never aborts the build.
func SeedQueue(site Site, strategy BundleStrategy, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	queue := &Queue{}
	order := DepthFirstOrder(RootNode, site.Graph)
	logger.Debug("seed queue traversal", zap.Ints("dfs_order", order))

	for _, node := range order {
		bundles, ok := site.Payload[node]
		if !ok {
			continue
		}
		for _, subKey := range sortedKeys(bundles) {
			collected := BreadthFirstBundles(subKey, bundles)
			if len(collected) == 0 {
				break
			}
			switch strategy {
			case KeepAll:
				for _, bundle := range collected {
					queue.Push(bundle)
				}
			default:
				queue.Push(collected[len(collected)-1])
			}
		}
	}
	return queue
}

// sortedKeys returns the sub-keys in ascending order so queue construction is
// deterministic across runs.
func sortedKeys(b Bundles) []int {
	keys := make([]int, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
