package hierarchy

import (
	"context"

	"github.com/tphakala/aftermidnight/internal/datastore/entities"
)

// Node is a project with its children and the number of images it owns directly
type Node struct {
	Project    entities.Project
	ImageCount int64
	Children   []*Node
}

// Walk visits n and its subtree depth-first, passing each node's depth below n
func (n *Node) Walk(visit func(node *Node, depth int)) {
	n.walk(visit, 0)
}

func (n *Node) walk(visit func(node *Node, depth int), depth int) {
	visit(n, depth)
	for _, child := range n.Children {
		child.walk(visit, depth+1)
	}
}

type imageCount struct {
	ProjectID uint
	Count     int64
}

func (s *store) Tree(ctx context.Context) ([]*Node, error) {
	db := s.db.WithContext(ctx)

	var projects []entities.Project
	if err := db.Order("name, id").Find(&projects).Error; err != nil {
		return nil, storeError(err, "tree")
	}

	var counts []imageCount
	if err := db.Model(&entities.Image{}).
		Select("project_id, COUNT(*) AS count").
		Group("project_id").
		Scan(&counts).Error; err != nil {
		return nil, storeError(err, "tree_image_counts")
	}

	nodes := make(map[uint]*Node, len(projects))
	for i := range projects {
		nodes[projects[i].ID] = &Node{Project: projects[i]}
	}
	for _, c := range counts {
		if node, ok := nodes[c.ProjectID]; ok {
			node.ImageCount = c.Count
		}
	}

	// Projects arrive sorted by name, so appending keeps children sorted.
	// A dangling parent reference places the project at the root level.
	var roots []*Node
	for i := range projects {
		node := nodes[projects[i].ID]
		parentID := projects[i].ParentID
		if parentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*parentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots, nil
}
