// Package scene is the spatial collaborator: a tree of nodes with local
// transforms and visibility. The simulation only creates, links, moves and
// hides nodes; drawing them is someone else's job.
package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"math"

	"github.com/fragcore/arena/internal/geom"
)

var ErrAssetNotFound = errors.New("asset not found")

// NodeID identifies a node. Zero means no node.
type NodeID uint32

const NoNode NodeID = 0

// NodeDesc describes a node to create. Model is an asset path and may be empty.
type NodeDesc struct {
	Name     string
	Model    string
	Position geom.Vec3
	Visible  bool
}

// Scene is the interface the simulation consumes.
type Scene interface {
	CreateNode(desc NodeDesc) (NodeID, error)
	RemoveNode(id NodeID)
	Link(child, parent NodeID)
	WorldPosition(id NodeID) geom.Vec3
	LookVector(id NodeID) geom.Vec3
	SetLocalPosition(id NodeID, p geom.Vec3)
	LocalPosition(id NodeID) geom.Vec3
	SetRotation(id NodeID, yaw, pitch float64)
	SetVisible(id NodeID, visible bool)
	Visible(id NodeID) bool
}

type node struct {
	name     string
	model    string
	parent   NodeID
	children []NodeID
	local    geom.Vec3
	yaw      float64
	pitch    float64
	visible  bool
}

// Graph is the in-memory Scene used by headless hosts and tests. Rotations
// are yaw (around +Y) and pitch; a child inherits its parent's rotation.
type Graph struct {
	nodes  map[NodeID]*node
	next   NodeID
	assets fs.FS
}

// NewGraph returns an empty graph. When assets is non-nil every model path
// must exist in it.
func NewGraph(assets fs.FS) *Graph {
	return &Graph{nodes: make(map[NodeID]*node, 128), assets: assets}
}

func (g *Graph) CreateNode(desc NodeDesc) (NodeID, error) {
	if desc.Model != "" && g.assets != nil {
		if _, err := fs.Stat(g.assets, desc.Model); err != nil {
			return NoNode, fmt.Errorf("model %s: %w", desc.Model, ErrAssetNotFound)
		}
	}
	g.next++
	g.nodes[g.next] = &node{
		name:    desc.Name,
		model:   desc.Model,
		local:   desc.Position,
		visible: desc.Visible,
	}
	return g.next, nil
}

// RemoveNode removes the node and its whole subtree.
func (g *Graph) RemoveNode(id NodeID) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.children {
		g.RemoveNode(c)
	}
	if p, ok := g.nodes[n.parent]; ok {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	delete(g.nodes, id)
}

// Link makes child a child of parent. Linking to NoNode detaches.
func (g *Graph) Link(child, parent NodeID) {
	c, ok := g.nodes[child]
	if !ok || child == parent {
		return
	}
	if old, ok := g.nodes[c.parent]; ok {
		for i, id := range old.children {
			if id == child {
				old.children = append(old.children[:i], old.children[i+1:]...)
				break
			}
		}
	}
	c.parent = NoNode
	if p, ok := g.nodes[parent]; ok {
		c.parent = parent
		p.children = append(p.children, child)
	}
}

func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) Contains(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Name(id NodeID) string {
	if n, ok := g.nodes[id]; ok {
		return n.name
	}
	return ""
}

func (g *Graph) Parent(id NodeID) NodeID {
	if n, ok := g.nodes[id]; ok {
		return n.parent
	}
	return NoNode
}

func (g *Graph) worldRotation(id NodeID) (yaw, pitch float64) {
	for n, ok := g.nodes[id]; ok; n, ok = g.nodes[n.parent] {
		yaw += n.yaw
		pitch += n.pitch
	}
	return yaw, pitch
}

func rotateY(v geom.Vec3, yaw float64) geom.Vec3 {
	s, c := math.Sincos(yaw)
	return geom.Vec3{X: v.X*c + v.Z*s, Y: v.Y, Z: -v.X*s + v.Z*c}
}

func (g *Graph) WorldPosition(id NodeID) geom.Vec3 {
	n, ok := g.nodes[id]
	if !ok {
		return geom.Zero
	}
	if _, ok := g.nodes[n.parent]; !ok {
		return n.local
	}
	yaw, _ := g.worldRotation(n.parent)
	return g.WorldPosition(n.parent).Add(rotateY(n.local, yaw))
}

// LookVector is the node's world forward direction.
func (g *Graph) LookVector(id NodeID) geom.Vec3 {
	yaw, pitch := g.worldRotation(id)
	sp, cp := math.Sincos(pitch)
	sy, cy := math.Sincos(yaw)
	return geom.Vec3{X: sy * cp, Y: -sp, Z: cy * cp}
}

func (g *Graph) SetLocalPosition(id NodeID, p geom.Vec3) {
	if n, ok := g.nodes[id]; ok {
		n.local = p
	}
}

func (g *Graph) LocalPosition(id NodeID) geom.Vec3 {
	if n, ok := g.nodes[id]; ok {
		return n.local
	}
	return geom.Zero
}

func (g *Graph) SetRotation(id NodeID, yaw, pitch float64) {
	if n, ok := g.nodes[id]; ok {
		n.yaw = yaw
		n.pitch = pitch
	}
}

func (g *Graph) SetVisible(id NodeID, visible bool) {
	if n, ok := g.nodes[id]; ok {
		n.visible = visible
	}
}

// Visible reports the node's own flag; ancestors are not consulted.
func (g *Graph) Visible(id NodeID) bool {
	n, ok := g.nodes[id]
	return ok && n.visible
}
