package solver

import (
	"fmt"

	"github.com/voltspan/feederflow/pkg/model"
)

// Severity grades a validation finding. ERROR marks conditions Solve
// refuses outright; WARNING marks conditions Solve absorbs silently,
// which suits interactive editing but can hide authoring mistakes.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Issue is one finding from Validate. Subject names the offending node,
// segment or conductor when there is a single one.
type Issue struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Subject == "" {
		return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", i.Severity, i.Code, i.Subject, i.Message)
}

// HasErrors reports whether any finding is of ERROR severity.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate inspects a network without solving it and reports every
// structural problem found, in input order. Strict callers run this
// before Solve; interactive callers usually skip it and accept the
// silent degradations.
func Validate(nodes []model.Node, edges []model.Edge, cat *model.Catalog) []Issue {
	if cat == nil {
		cat = model.DefaultCatalog()
	}
	var issues []Issue

	// 1. Nodes: duplicate IDs, source count, power factor range.
	idx := make(map[string]int, len(nodes))
	sources := 0
	for i, n := range nodes {
		if _, dup := idx[n.ID]; dup {
			issues = append(issues, Issue{
				Code: "duplicate-node", Severity: SeverityWarning, Subject: n.ID,
				Message: "node ID appears more than once; only the first is addressable",
			})
		} else {
			idx[n.ID] = i
		}
		if n.Kind == model.KindSource {
			sources++
		}
		if n.PowerFactor < 0 || n.PowerFactor > 1 {
			issues = append(issues, Issue{
				Code: "bad-power-factor", Severity: SeverityWarning, Subject: n.ID,
				Message: fmt.Sprintf("power factor %g outside 0..1 is clamped during a solve", n.PowerFactor),
			})
		}
	}
	switch {
	case sources == 0:
		issues = append(issues, Issue{
			Code: "no-source", Severity: SeverityError,
			Message: "network has no SOURCE node, a solve would fail",
		})
	case sources > 1:
		issues = append(issues, Issue{
			Code: "multiple-sources", Severity: SeverityError,
			Message: fmt.Sprintf("network has %d SOURCE nodes, exactly one is required", sources),
		})
	}

	// 2. Segments: IDs, endpoints, lengths, conductors, radiality. The
	// union-find sees each well-formed span once; a span landing in an
	// occupied pair slot is a doubled segment, a union that fails is a
	// loop.
	uf := NewUnionFind(len(nodes))
	seenEdge := make(map[string]bool, len(edges))
	seenPair := make(map[string]bool, len(edges))
	for _, e := range edges {
		if seenEdge[e.ID] {
			issues = append(issues, Issue{
				Code: "duplicate-edge", Severity: SeverityWarning, Subject: e.ID,
				Message: "segment ID appears more than once; results overwrite each other",
			})
		}
		seenEdge[e.ID] = true

		if e.LengthM <= 0 {
			issues = append(issues, Issue{
				Code: "bad-length", Severity: SeverityWarning, Subject: e.ID,
				Message: fmt.Sprintf("segment length %g m is not positive", e.LengthM),
			})
		}
		if e.Conductor != "" && !cat.Known(e.Conductor) {
			issues = append(issues, Issue{
				Code: "unknown-conductor", Severity: SeverityWarning, Subject: e.ID,
				Message: fmt.Sprintf("conductor %q is not in the catalog, the default %q applies", e.Conductor, cat.Default().ID),
			})
		}

		from, okFrom := idx[e.From]
		to, okTo := idx[e.To]
		if !okFrom || !okTo {
			issues = append(issues, Issue{
				Code: "dangling-endpoint", Severity: SeverityWarning, Subject: e.ID,
				Message: "segment references a node that does not exist and is ignored by a solve",
			})
			continue
		}

		pair := pairKey(e.From, e.To)
		if seenPair[pair] {
			issues = append(issues, Issue{
				Code: "parallel-segment", Severity: SeverityError, Subject: e.ID,
				Message: "a second segment between the same two nodes makes the network non-radial",
			})
			continue
		}
		seenPair[pair] = true

		if !uf.Union(from, to) {
			issues = append(issues, Issue{
				Code: "loop", Severity: SeverityError, Subject: e.ID,
				Message: "segment closes a loop, the network is not radial",
			})
		}
	}

	// 3. Reachability from the source, reported per stranded node. A
	// solve leaves these nodes out of its results without complaint.
	if sources == 1 {
		reach := reachableFrom(nodes, edges, idx)
		for i, n := range nodes {
			if idx[n.ID] != i {
				continue // duplicate, already reported
			}
			if !reach[i] {
				issues = append(issues, Issue{
					Code: "unreachable", Severity: SeverityWarning, Subject: n.ID,
					Message: "node has no path to the SOURCE and receives no results",
				})
			}
		}
	}

	return issues
}

// reachableFrom flood-fills from the first SOURCE node over segments
// with resolvable endpoints.
func reachableFrom(nodes []model.Node, edges []model.Edge, idx map[string]int) []bool {
	adj := make([][]int, len(nodes))
	for _, e := range edges {
		from, okFrom := idx[e.From]
		to, okTo := idx[e.To]
		if !okFrom || !okTo {
			continue
		}
		adj[from] = append(adj[from], to)
		adj[to] = append(adj[to], from)
	}

	reach := make([]bool, len(nodes))
	start := -1
	for i, n := range nodes {
		if n.Kind == model.KindSource && idx[n.ID] == i {
			start = i
			break
		}
	}
	if start < 0 {
		return reach
	}

	reach[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range adj[curr] {
			if !reach[next] {
				reach[next] = true
				queue = append(queue, next)
			}
		}
	}
	return reach
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}
