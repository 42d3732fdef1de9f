package folder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchmark/internal/models"
)

// workTree: Work/Projects/{Alpha, Beta} plus Archive.
func workTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := NewTree([]*Folder{
		{ID: "f-work", Name: "Work", Children: []*Folder{
			{ID: "f-projects", Name: "Projects", Children: []*Folder{
				{ID: "f-alpha", Name: "Alpha"},
				{ID: "f-beta", Name: "Beta"},
			}},
		}},
		{ID: "f-archive", Name: "Archive"},
	})
	require.NoError(t, err)
	return tree
}

func defaultResolver() *Resolver {
	return NewResolver(0.82, 0.1)
}

func TestResolveExactIdentifier(t *testing.T) {
	tree := workTree(t)

	node, failure := defaultResolver().Resolve("f-alpha", tree)
	require.Nil(t, failure)
	assert.Equal(t, "f-alpha", node.ID)
	assert.Equal(t, "Alpha", node.Name)
}

func TestResolveIdentifierBeatsDisplayName(t *testing.T) {
	// One node's identifier is literally another node's display name; the
	// identifier match must win.
	tree, err := NewTree([]*Folder{
		{ID: "Alpha", Name: "Decoy"},
		{ID: "n2", Name: "Alpha"},
	})
	require.NoError(t, err)

	node, failure := defaultResolver().Resolve("Alpha", tree)
	require.Nil(t, failure)
	assert.Equal(t, "Alpha", node.ID)
	assert.Equal(t, "Decoy", node.Name)
}

func TestResolveExactPath(t *testing.T) {
	tree := workTree(t)

	node, failure := defaultResolver().Resolve("Work/Projects/Alpha", tree)
	require.Nil(t, failure)
	assert.Equal(t, "f-alpha", node.ID)
}

func TestResolveNormalizedPath(t *testing.T) {
	tree := workTree(t)
	tests := []string{
		"work/projects/alpha",
		"  Work / Projects / Alpha  ",
		"Work > Projects > Alpha",
		"WORK\\PROJECTS\\ALPHA",
	}
	for _, ref := range tests {
		t.Run(ref, func(t *testing.T) {
			node, failure := defaultResolver().Resolve(ref, tree)
			require.Nil(t, failure)
			assert.Equal(t, "f-alpha", node.ID)
		})
	}
}

func TestResolveUniqueDisplayName(t *testing.T) {
	tree := workTree(t)

	node, failure := defaultResolver().Resolve("alpha", tree)
	require.Nil(t, failure)
	assert.Equal(t, "f-alpha", node.ID)
}

func TestResolveDuplicateNamesAreAmbiguous(t *testing.T) {
	tree, err := NewTree([]*Folder{
		{ID: "r1", Name: "Articles", Children: []*Folder{
			{ID: "sec1", Name: "Security"},
		}},
		{ID: "r2", Name: "Django", Children: []*Folder{
			{ID: "sec2", Name: "Security"},
		}},
	})
	require.NoError(t, err)

	node, failure := defaultResolver().Resolve("Security", tree)
	assert.Nil(t, node)
	require.NotNil(t, failure)
	assert.Equal(t, models.AmbiguousCandidates, failure.Kind)
	assert.ElementsMatch(t, []string{"sec1", "sec2"}, failure.Candidates)
}

func TestResolveFuzzyMatch(t *testing.T) {
	tree := workTree(t)

	// A typo close to one node and far from everything else.
	node, failure := defaultResolver().Resolve("Work/Projects/Alpah", tree)
	require.Nil(t, failure)
	assert.Equal(t, "f-alpha", node.ID)
}

func TestResolveNoPlausibleNode(t *testing.T) {
	tree := workTree(t)

	node, failure := defaultResolver().Resolve("Finance", tree)
	assert.Nil(t, node)
	require.NotNil(t, failure)
	assert.Equal(t, models.NoPlausibleNode, failure.Kind)
	assert.Equal(t, "Finance", failure.Reference)
}

func TestResolveFuzzyMarginRejectsCloseSeconds(t *testing.T) {
	tree, err := NewTree([]*Folder{
		{ID: "n1", Name: "Projects-2024"},
		{ID: "n2", Name: "Projects-2025"},
	})
	require.NoError(t, err)

	// Near-identical similarity to both candidates: the margin gate must
	// escalate instead of guessing.
	node, failure := defaultResolver().Resolve("Projects-202", tree)
	assert.Nil(t, node)
	require.NotNil(t, failure)
	assert.Equal(t, models.AmbiguousCandidates, failure.Kind)
	assert.Len(t, failure.Candidates, 2)
}

func TestResolveEmptyReference(t *testing.T) {
	tree := workTree(t)

	_, failure := defaultResolver().Resolve("   ", tree)
	require.NotNil(t, failure)
	assert.Equal(t, models.NoPlausibleNode, failure.Kind)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Work/Projects/Alpha", "work/projects/alpha"},
		{"  Work / Projects  ", "work/projects"},
		{"Work > Projects", "work/projects"},
		{"Work\\Projects", "work/projects"},
		{"Work | Projects", "work/projects"},
		{"//Work//", "work"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestTreePathsAndParents(t *testing.T) {
	tree := workTree(t)

	assert.Equal(t, "Work/Projects/Alpha", tree.Path("f-alpha"))
	assert.Equal(t, "Archive", tree.Path("f-archive"))

	parent, ok := tree.Parent("f-alpha")
	require.True(t, ok)
	assert.Equal(t, "f-projects", parent.ID)

	_, ok = tree.Parent("f-work")
	assert.False(t, ok)

	assert.Equal(t, []string{
		"Work", "Work/Projects", "Work/Projects/Alpha", "Work/Projects/Beta", "Archive",
	}, tree.Paths())
}

func TestNewTreeRejectsDuplicateIDs(t *testing.T) {
	_, err := NewTree([]*Folder{
		{ID: "dup", Name: "A"},
		{ID: "dup", Name: "B"},
	})
	assert.Error(t, err)
}
