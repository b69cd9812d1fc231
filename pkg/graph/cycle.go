// Package graph provides cycle checks over an organization's dependency
// edges. Functions here are pure: callers fetch the org's edge set first and
// persist only after a check passes.
package graph

import "github.com/lcroft/stagehand/pkg/domain"

// Adjacency is a forward index of a single org's dependency edges.
type Adjacency map[domain.NodeRef][]domain.NodeRef

// Index builds an adjacency index from an edge set. Useful when several
// checks run against the same snapshot.
func Index(edges []domain.DependencyEdge) Adjacency {
	adj := make(Adjacency, len(edges))
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	return adj
}

// WouldCreateCycle reports whether adding the edge from -> to would close a
// cycle in the existing edge set. It walks breadth-first from "to": if
// "from" is already reachable, the new edge completes a loop. Read-only.
func WouldCreateCycle(edges []domain.DependencyEdge, from, to domain.NodeRef) bool {
	return Index(edges).WouldCreateCycle(from, to)
}

// WouldCreateCycle runs the same reachability check against a prebuilt index.
func (adj Adjacency) WouldCreateCycle(from, to domain.NodeRef) bool {
	if from == to {
		return true
	}
	visited := make(map[domain.NodeRef]bool)
	queue := []domain.NodeRef{to}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == from {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, next := range adj[current] {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return false
}

// FindCycles enumerates the cycles already present in an edge set, one node
// path per cycle. Used by the admin surface to report graphs that predate
// cycle checking; a healthy org returns nothing.
func FindCycles(edges []domain.DependencyEdge) [][]domain.NodeRef {
	adj := Index(edges)

	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[domain.NodeRef]int)
	var cycles [][]domain.NodeRef
	var path []domain.NodeRef

	var visit func(n domain.NodeRef)
	visit = func(n domain.NodeRef) {
		color[n] = gray
		path = append(path, n)
		for _, next := range adj[n] {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				// Back edge: the cycle is the path suffix starting at next.
				for i, p := range path {
					if p == next {
						cycle := make([]domain.NodeRef, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
	}

	for n := range adj {
		if color[n] == white {
			visit(n)
		}
	}
	return cycles
}
