package hierarchy

import (
	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/datastore/entities"
)

// subtreeCTE is the single transitive-closure primitive over the parent
// relation. It yields the start project and every project below it. UNION
// (not UNION ALL) stops the recursion even if stored data contains a cycle.
const subtreeCTE = `WITH RECURSIVE subtree(id) AS (
	SELECT id FROM projects WHERE id = ?
	UNION
	SELECT p.id FROM projects p JOIN subtree s ON p.parent_id = s.id
) `

// maxAncestorDepth bounds the ancestor walk on corrupted data
const maxAncestorDepth = 1024

const ancestorsQuery = `WITH RECURSIVE chain(id, parent_id, depth) AS (
	SELECT id, parent_id, 0 FROM projects WHERE id = ?
	UNION
	SELECT p.id, p.parent_id, c.depth + 1 FROM projects p JOIN chain c ON p.id = c.parent_id
	WHERE c.depth < ?
)
SELECT projects.* FROM projects JOIN chain ON projects.id = chain.id
WHERE chain.depth > 0
ORDER BY chain.depth`

// subtreeIDs returns rootID and all of its descendants
func subtreeIDs(tx *gorm.DB, rootID uint) ([]uint, error) {
	var ids []uint
	if err := tx.Raw(subtreeCTE+"SELECT id FROM subtree", rootID).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// isDescendant reports whether candidate lies in ancestor's subtree.
// A project is its own descendant.
func isDescendant(tx *gorm.DB, ancestor, candidate uint) (bool, error) {
	if ancestor == candidate {
		return true, nil
	}

	var n int64
	if err := tx.Raw(subtreeCTE+"SELECT COUNT(*) FROM subtree WHERE id = ?", ancestor, candidate).Scan(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ancestors returns the parent chain of id, nearest parent first
func ancestors(tx *gorm.DB, id uint) ([]entities.Project, error) {
	var chain []entities.Project
	if err := tx.Raw(ancestorsQuery, id, maxAncestorDepth).Scan(&chain).Error; err != nil {
		return nil, err
	}
	return chain, nil
}
