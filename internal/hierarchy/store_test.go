package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/datastore/testutil"
	"github.com/tphakala/aftermidnight/internal/errors"
)

type recordedOp struct {
	operation, status string
}

type fakeRecorder struct {
	ops []recordedOp
}

func (f *fakeRecorder) RecordOperation(operation, status string) {
	f.ops = append(f.ops, recordedOp{operation, status})
}

func setupHierarchyTest(t *testing.T) (Store, *datastore.Store, *fakeRecorder) {
	t.Helper()

	db := testutil.NewTestStore(t)
	rec := &fakeRecorder{}
	return NewStore(db.DB, WithLogger(testutil.SilentLogger()), WithMetrics(rec)), db, rec
}

// buildTree creates:
//
//	Deep Sky (org)
//	├── Galaxies (org)
//	│   └── M31
//	└── M42
//	Solar
func buildTree(t *testing.T, s Store) map[string]uint {
	t.Helper()
	ctx := context.Background()

	ids := map[string]uint{}
	var err error

	ids["Deep Sky"], err = s.Create(ctx, "Deep Sky", nil, true)
	require.NoError(t, err)
	ids["Galaxies"], err = s.Create(ctx, "Galaxies", testutil.Ptr(ids["Deep Sky"]), true)
	require.NoError(t, err)
	ids["M31"], err = s.Create(ctx, "M31", testutil.Ptr(ids["Galaxies"]), false)
	require.NoError(t, err)
	ids["M42"], err = s.Create(ctx, "M42", testutil.Ptr(ids["Deep Sky"]), false)
	require.NoError(t, err)
	ids["Solar"], err = s.Create(ctx, "Solar", nil, false)
	require.NoError(t, err)

	return ids
}

func parentOf(t *testing.T, s Store, id uint) *uint {
	t.Helper()
	p, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return p.ParentID
}

func TestStore_Create(t *testing.T) {
	s, _, rec := setupHierarchyTest(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "  Nebulae ", nil, true)
	require.NoError(t, err)

	p, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Nebulae", p.Name)
	assert.True(t, p.IsOrganization)
	assert.True(t, p.IsRoot())
	assert.Equal(t, []recordedOp{{"create", StatusSuccess}}, rec.ops)
}

func TestStore_Create_DuplicateName(t *testing.T) {
	s, _, rec := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	_, err := s.Create(ctx, "Solar", nil, false)
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	_, err = s.Create(ctx, "M42", testutil.Ptr(ids["Deep Sky"]), false)
	require.ErrorIs(t, err, ErrDuplicateName)

	// Same name under another parent is fine
	_, err = s.Create(ctx, "M42", testutil.Ptr(ids["Galaxies"]), false)
	require.NoError(t, err)

	assert.Contains(t, rec.ops, recordedOp{"create", StatusRejected})
}

func TestStore_Create_Validation(t *testing.T) {
	s, _, _ := setupHierarchyTest(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "   ", nil, false)
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = s.Create(ctx, "Orphan", testutil.Ptr(uint(999)), false)
	require.ErrorIs(t, err, ErrProjectNotFound)
	assert.True(t, errors.IsNotFound(err))
}

func TestStore_Rename(t *testing.T) {
	s, _, _ := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	require.NoError(t, s.Rename(ctx, ids["M31"], "Andromeda"))
	p, err := s.Get(ctx, ids["M31"])
	require.NoError(t, err)
	assert.Equal(t, "Andromeda", p.Name)

	err = s.Rename(ctx, ids["Solar"], "Deep Sky")
	require.ErrorIs(t, err, ErrDuplicateName)

	err = s.Rename(ctx, 999, "Ghost")
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestStore_IsDescendant(t *testing.T) {
	s, _, _ := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	tests := []struct {
		ancestor, candidate string
		want                bool
	}{
		{"Deep Sky", "Deep Sky", true},
		{"M31", "M31", true},
		{"Deep Sky", "Galaxies", true},
		{"Deep Sky", "M31", true},
		{"Galaxies", "M31", true},
		{"M31", "Deep Sky", false},
		{"Galaxies", "M42", false},
		{"Solar", "M31", false},
	}

	for _, tt := range tests {
		t.Run(tt.ancestor+"/"+tt.candidate, func(t *testing.T) {
			got, err := s.IsDescendant(ctx, ids[tt.ancestor], ids[tt.candidate])
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Reparent_RejectsSelf(t *testing.T) {
	s, _, rec := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	for name, id := range ids {
		err := s.Reparent(ctx, id, testutil.Ptr(id))
		require.ErrorIs(t, err, ErrCyclicMove, name)
	}
	assert.Contains(t, rec.ops, recordedOp{"reparent", StatusRejected})
}

func TestStore_Reparent_RejectsDescendant(t *testing.T) {
	s, _, _ := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	err := s.Reparent(ctx, ids["Deep Sky"], testutil.Ptr(ids["M31"]))
	require.ErrorIs(t, err, ErrCyclicMove)
	assert.True(t, errors.IsCategory(err, errors.CategoryHierarchy))

	err = s.Reparent(ctx, ids["Deep Sky"], testutil.Ptr(ids["Galaxies"]))
	require.ErrorIs(t, err, ErrCyclicMove)

	// Rejected moves leave the tree untouched
	assert.Nil(t, parentOf(t, s, ids["Deep Sky"]))
	assert.Equal(t, ids["Galaxies"], *parentOf(t, s, ids["M31"]))
}

func TestStore_Reparent_MovesOnlyTheNode(t *testing.T) {
	s, _, _ := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	require.NoError(t, s.Reparent(ctx, ids["Galaxies"], testutil.Ptr(ids["Solar"])))

	assert.Equal(t, ids["Solar"], *parentOf(t, s, ids["Galaxies"]))
	assert.Equal(t, ids["Galaxies"], *parentOf(t, s, ids["M31"]), "descendant keeps its own parent")

	inside, err := s.IsDescendant(ctx, ids["Solar"], ids["M31"])
	require.NoError(t, err)
	assert.True(t, inside, "subtree moved structurally with its root")

	stillUnderDeepSky, err := s.IsDescendant(ctx, ids["Deep Sky"], ids["M31"])
	require.NoError(t, err)
	assert.False(t, stillUnderDeepSky)
}

func TestStore_Reparent_ToRootAndConflicts(t *testing.T) {
	s, _, _ := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	require.NoError(t, s.Reparent(ctx, ids["M42"], nil))
	assert.Nil(t, parentOf(t, s, ids["M42"]))

	// A root-level "M31" would collide once M31 moves to the root
	_, err := s.Create(ctx, "M31", nil, false)
	require.NoError(t, err)
	err = s.Reparent(ctx, ids["M31"], nil)
	require.ErrorIs(t, err, ErrDuplicateName)

	err = s.Reparent(ctx, ids["M31"], testutil.Ptr(uint(999)))
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestStore_Delete_NonCascade(t *testing.T) {
	s, db, _ := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	_, err := s.Delete(ctx, ids["Deep Sky"], false)
	require.ErrorIs(t, err, ErrHasChildren)

	testutil.CreateImage(t, db, ids["Solar"], "moon.fits")
	result, err := s.Delete(ctx, ids["Solar"], false)
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Projects: 1, Images: 1}, result)
	assert.Zero(t, testutil.CountImages(t, db, ids["Solar"]))

	_, err = s.Get(ctx, ids["Solar"])
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestStore_Delete_Cascade(t *testing.T) {
	s, db, _ := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	testutil.CreateImage(t, db, ids["M31"], "m31_001.fits")
	testutil.CreateImage(t, db, ids["M31"], "m31_002.fits")
	testutil.CreateImage(t, db, ids["M42"], "m42_001.fits")
	testutil.CreateImage(t, db, ids["Solar"], "sun_001.fits")

	result, err := s.Delete(ctx, ids["Deep Sky"], true)
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Projects: 4, Images: 3}, result)

	var remaining []entities.Project
	require.NoError(t, db.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Solar", remaining[0].Name)
	assert.Equal(t, int64(1), testutil.CountImages(t, db, ids["Solar"]), "unrelated images survive")
}

func TestStore_Delete_NotFound(t *testing.T) {
	s, _, _ := setupHierarchyTest(t)

	_, err := s.Delete(context.Background(), 42, true)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestStore_ListChildrenAndAncestors(t *testing.T) {
	s, _, _ := setupHierarchyTest(t)
	ctx := context.Background()
	ids := buildTree(t, s)

	roots, err := s.ListChildren(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Deep Sky", "Solar"}, projectNames(roots))

	children, err := s.ListChildren(ctx, testutil.Ptr(ids["Deep Sky"]))
	require.NoError(t, err)
	assert.Equal(t, []string{"Galaxies", "M42"}, projectNames(children))

	chain, err := s.AncestorsOf(ctx, ids["M31"])
	require.NoError(t, err)
	assert.Equal(t, []string{"Galaxies", "Deep Sky"}, projectNames(chain))

	chain, err = s.AncestorsOf(ctx, ids["Solar"])
	require.NoError(t, err)
	assert.Empty(t, chain)

	_, err = s.AncestorsOf(ctx, 999)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestStore_Tree(t *testing.T) {
	s, db, _ := setupHierarchyTest(t)
	ids := buildTree(t, s)
	testutil.CreateImage(t, db, ids["M31"], "m31_001.fits")

	roots, err := s.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 2)

	var lines []string
	var m31Images int64
	roots[0].Walk(func(n *Node, depth int) {
		lines = append(lines, string(rune('0'+depth))+":"+n.Project.Name)
		if n.Project.ID == ids["M31"] {
			m31Images = n.ImageCount
		}
	})

	assert.Equal(t, []string{"0:Deep Sky", "1:Galaxies", "2:M31", "1:M42"}, lines)
	assert.Equal(t, int64(1), m31Images)
	assert.Equal(t, "Solar", roots[1].Project.Name)
}

func TestStore_StoreFailure(t *testing.T) {
	s, db, rec := setupHierarchyTest(t)
	require.NoError(t, db.Close())

	_, err := s.Create(context.Background(), "Late", nil, false)
	require.ErrorIs(t, err, datastore.ErrStoreIO)
	assert.Equal(t, []recordedOp{{"create", StatusError}}, rec.ops)
}

func projectNames(projects []entities.Project) []string {
	names := make([]string, len(projects))
	for i := range projects {
		names[i] = projects[i].Name
	}
	return names
}
