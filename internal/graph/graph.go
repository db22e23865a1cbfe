package graph

// Node is one discovered URL and the outcome observed when it was fetched.
type Node struct {
	// ID is the node's stable identifier, assigned in discovery order
	// starting at 1.
	ID int64 `json:"id"`

	// URL is the node's absolute URL.
	URL string `json:"url"`

	// Domain is the URL's frontier slot key.
	Domain string `json:"domain"`

	// Fetched reports whether the URL was actually fetched.
	// Discovered-but-never-fetched nodes keep zero outcomes.
	Fetched bool `json:"fetched"`

	// Reward is the goal reward observed when the node was fetched.
	Reward float64 `json:"reward"`

	// Step is the value-function step at which the node was fetched.
	Step int `json:"step"`
}

// Edge is a followed or discovered link between two nodes.
type Edge struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Graph is an append-only crawl graph. Nodes are deduplicated by URL;
// edges are not deduplicated (parallel discoveries are rare and harmless).
// Not safe for concurrent use; the controller owns it exclusively.
type Graph struct {
	nodes []Node
	edges []Edge
	byURL map[string]int64
}

// New creates an empty crawl graph.
func New() *Graph {
	return &Graph{byURL: make(map[string]int64)}
}

// EnsureNode returns the node ID for a URL, creating the node on first sight.
func (g *Graph) EnsureNode(url, domain string) int64 {
	if id, ok := g.byURL[url]; ok {
		return id
	}
	id := int64(len(g.nodes) + 1)
	g.nodes = append(g.nodes, Node{ID: id, URL: url, Domain: domain})
	g.byURL[url] = id
	return id
}

// RecordFetch marks a node fetched and stores its observed outcome.
// Unknown IDs are ignored.
func (g *Graph) RecordFetch(id int64, reward float64, step int) {
	if id < 1 || id > int64(len(g.nodes)) {
		return
	}
	node := &g.nodes[id-1]
	node.Fetched = true
	node.Reward = reward
	node.Step = step
}

// AddEdge records a link from one node to another.
func (g *Graph) AddEdge(from, to int64) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// Nodes returns the nodes in discovery order. The slice is shared; treat
// it as read-only.
func (g *Graph) Nodes() []Node { return g.nodes }

// Edges returns the edges in insertion order. The slice is shared; treat
// it as read-only.
func (g *Graph) Edges() []Edge { return g.edges }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }
