package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	screens := []string{"name_first"}
	require.NoError(t, store.Append(ctx, Event{Subject: "a", Action: ActionPromptRendered, Screens: screens}))
	require.NoError(t, store.Append(ctx, Event{Subject: "a", Action: ActionProfileCollected}))
	require.NoError(t, store.Append(ctx, Event{Subject: "b", Action: ActionLoginDenied}))

	screens[0] = "mutated"

	events, err := store.ListBySubject(ctx, "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionPromptRendered, events[0].Action)
	assert.Equal(t, []string{"name_first"}, events[0].Screens)

	none, err := store.ListBySubject(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	store.Clear()
	events, err = store.ListBySubject(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestActionIsValid(t *testing.T) {
	assert.True(t, ActionPromptRendered.IsValid())
	assert.True(t, ActionSubmissionRejected.IsValid())
	assert.False(t, Action("pp_other").IsValid())
}
