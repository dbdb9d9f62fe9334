package powerflow

import (
	"sort"

	"github.com/radekizk-sketch/mv-design-pro/pkg/network"
)

// slackIsland returns the set of node ids reachable from the slack node
// over in-service branches, the slack included.
func slackIsland(g *network.Graph, slackID string) map[string]bool {
	adj := make(map[string][]string)
	for _, br := range g.Branches() {
		if !br.InService() {
			continue
		}
		adj[br.FromNode()] = append(adj[br.FromNode()], br.ToNode())
		adj[br.ToNode()] = append(adj[br.ToNode()], br.FromNode())
	}

	island := map[string]bool{slackID: true}
	queue := []string{slackID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if !island[next] {
				island[next] = true
				queue = append(queue, next)
			}
		}
	}
	return island
}

// notSolvedNodes returns the sorted ids of nodes outside the island.
func notSolvedNodes(g *network.Graph, island map[string]bool) []string {
	var out []string
	for _, id := range g.NodeIDs() {
		if !island[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
