package workitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAliases(t *testing.T) {
	assert.Equal(t, StatusNotStarted, Normalize("backlog"))
	assert.Equal(t, StatusCompleted, Normalize("done"))
	assert.Equal(t, StatusInProgress, Normalize("in_progress"))
}

func TestStatusValidAfterNormalize(t *testing.T) {
	assert.True(t, Status("backlog").Valid())
	assert.True(t, Status("done").Valid())
	assert.False(t, Status("bogus").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, Status("done").Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusNotStarted.Terminal())
}

func TestPriorityRankOrdering(t *testing.T) {
	assert.Greater(t, PriorityCritical.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
}

func TestTypeValid(t *testing.T) {
	for _, valid := range []Type{TypeInitiative, TypeEpic, TypeFeature, TypeStory, TypeTask} {
		assert.True(t, valid.Valid())
	}
	assert.False(t, Type("bogus").Valid())
}

func TestNewAppliesDefaults(t *testing.T) {
	w := New(TypeTask, "Title", "Description")
	assert.NotEqual(t, w.ID.String(), "")
	assert.Equal(t, StatusNotStarted, w.Status)
	assert.Equal(t, PriorityMedium, w.Priority)
	assert.False(t, w.CreatedAt.IsZero())
	assert.Equal(t, w.CreatedAt, w.UpdatedAt)
}

func TestEmbeddingSourceJoinsTitleAndDescription(t *testing.T) {
	w := New(TypeTask, "Title", "Description")
	assert.Equal(t, "Title Description", w.EmbeddingSource())
}

func TestAllowsParentMatchesHierarchy(t *testing.T) {
	cases := []struct {
		child, parent Type
		allowed       bool
	}{
		{TypeEpic, TypeInitiative, true},
		{TypeFeature, TypeEpic, true},
		{TypeStory, TypeFeature, true},
		{TypeTask, TypeStory, true},
		{TypeTask, TypeFeature, false},
		{TypeInitiative, TypeEpic, false},
		{TypeEpic, TypeEpic, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, AllowsParent(c.child, c.parent), "child=%s parent=%s", c.child, c.parent)
	}
}
