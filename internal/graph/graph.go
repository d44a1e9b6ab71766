package graph

import (
	"sort"
	"time"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// Edge is a directed, weighted link between two users.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// Network is a directed user graph. Self-loops are never stored.
type Network struct {
	Adjacency map[string]map[string]int `json:"adjacency"` // from -> to -> weight
}

// Stats summarizes a network.
type Stats struct {
	Nodes            int     `json:"nodes"`
	Edges            int     `json:"edges"`
	AverageOutDegree float64 `json:"averageOutDegree"`
	ReciprocalPairs  int     `json:"reciprocalPairs"`
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{Adjacency: make(map[string]map[string]int)}
}

// AddEdge records one interaction from -> to.
func (n *Network) AddEdge(from, to string) {
	if from == "" || to == "" || from == to {
		return
	}
	out, ok := n.Adjacency[from]
	if !ok {
		out = make(map[string]int)
		n.Adjacency[from] = out
	}
	out[to]++
}

// HasEdge reports whether from -> to exists.
func (n *Network) HasEdge(from, to string) bool {
	return n.Adjacency[from][to] > 0
}

// EdgeCount returns the number of distinct directed pairs.
func (n *Network) EdgeCount() int {
	total := 0
	for _, out := range n.Adjacency {
		total += len(out)
	}
	return total
}

// Neighbors returns the sorted targets reachable in one hop from id.
func (n *Network) Neighbors(id string) []string {
	out := make([]string, 0, len(n.Adjacency[id]))
	for to := range n.Adjacency[id] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// Edges returns all edges ordered by (from, to).
func (n *Network) Edges() []Edge {
	edges := make([]Edge, 0, n.EdgeCount())
	for from, out := range n.Adjacency {
		for to, count := range out {
			edges = append(edges, Edge{From: from, To: to, Count: count})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Density is distinct edges over the n*(n-1) possible directed pairs among
// userCount users, clamped to [0,1]. It is 0 when userCount <= 1.
func (n *Network) Density(userCount int) float64 {
	if userCount <= 1 {
		return 0
	}
	d := float64(n.EdgeCount()) / float64(userCount*(userCount-1))
	if d > 1 {
		return 1
	}
	return d
}

// Stats returns node, edge and reciprocity counts.
func (n *Network) Stats() Stats {
	nodes := make(map[string]bool)
	reciprocal := 0
	for from, out := range n.Adjacency {
		nodes[from] = true
		for to := range out {
			nodes[to] = true
			if from < to && n.HasEdge(to, from) {
				reciprocal++
			}
		}
	}
	s := Stats{
		Nodes:           len(nodes),
		Edges:           n.EdgeCount(),
		ReciprocalPairs: reciprocal,
	}
	if len(n.Adjacency) > 0 {
		s.AverageOutDegree = float64(s.Edges) / float64(len(nodes))
	}
	return s
}

// BuildInteractionNetwork links A -> B whenever B posts in the same channel
// strictly after an A message and less than window later.
func BuildInteractionNetwork(messages []normalize.Message, window time.Duration) *Network {
	n := NewNetwork()
	for _, msgs := range ByChannel(messages) {
		for i := range msgs {
			for j := i + 1; j < len(msgs); j++ {
				gap := msgs[j].Timestamp.Sub(msgs[i].Timestamp)
				if gap >= window {
					break
				}
				if gap > 0 {
					n.AddEdge(msgs[i].UserID, msgs[j].UserID)
				}
			}
		}
	}
	return n
}

// BuildMentionNetwork links author -> mentioned user for every <@U...>
// mention whose target passes keep.
func BuildMentionNetwork(messages []normalize.Message, keep func(userID string) bool) *Network {
	n := NewNetwork()
	for _, m := range messages {
		for _, to := range m.Mentions {
			if keep != nil && !keep(to) {
				continue
			}
			n.AddEdge(m.UserID, to)
		}
	}
	return n
}

// ByChannel groups messages per channel, each group sorted by timestamp.
// Ties keep input order.
func ByChannel(messages []normalize.Message) map[string][]normalize.Message {
	groups := make(map[string][]normalize.Message)
	for _, m := range messages {
		groups[m.ChannelID] = append(groups[m.ChannelID], m)
	}
	for _, msgs := range groups {
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		})
	}
	return groups
}
