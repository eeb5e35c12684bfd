package audit

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"inventory-audit/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedBuilder(t *testing.T) *Builder {
	t.Helper()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	seq := 0
	return NewBuilder(
		WithClock(func() time.Time { return base }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("evt-%d", seq)
		}),
	)
}

func assetTarget() Target {
	return Target{Kind: domain.KindAsset, ID: "42", Label: "A-001", Actor: "maria"}
}

func TestBuild_Create(t *testing.T) {
	b := fixedBuilder(t)
	current := snap("tag", "A-001", "status", "Active")

	events := b.Build(assetTarget(), Classify(nil, current), current)

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, domain.ActionCreate, ev.Action)
	assert.Equal(t, "asset A-001 cadastrado no sistema", ev.Description)
	assert.Nil(t, ev.Before)
	require.NotNil(t, ev.After)
	assert.Equal(t, []string{"tag", "status"}, ev.After.Keys())
	tag, _ := ev.After.Get("tag")
	assert.Equal(t, "A-001", tag)
	require.NotNil(t, ev.EntityID)
	assert.Equal(t, int64(42), *ev.EntityID)
	assert.Equal(t, "maria", ev.Actor)
	assert.Equal(t, "evt-1", ev.ID)
}

func TestBuild_NoChangesNoEvents(t *testing.T) {
	b := fixedBuilder(t)
	s := snap("tag", "A-001", "status", "Active")

	events := b.Build(assetTarget(), Classify(s, s.Clone()), s)

	assert.Empty(t, events)
}

func TestBuild_FieldChangeWithSummary(t *testing.T) {
	b := fixedBuilder(t)
	old := snap("tag", "A-001", "status", "Active")
	current := snap("tag", "A-001", "status", "Inactive")

	events := b.Build(assetTarget(), Classify(old, current), current)

	require.Len(t, events, 2)

	change := events[0]
	assert.Equal(t, domain.ActionFieldChange, change.Action)
	before, _ := change.Before.Get("status")
	after, _ := change.After.Get("status")
	assert.Equal(t, "Active", before)
	assert.Equal(t, "Inactive", after)
	assert.Equal(t, "status alterado de Active para Inactive", change.Description)

	summary := events[1]
	assert.Equal(t, domain.ActionUpdateSummary, summary.Action)
	fields, _ := summary.Before.Get("changed_fields")
	assert.Equal(t, []string{"status"}, fields)
	assert.Equal(t, current.Keys(), summary.After.Keys())
}

func TestBuild_FieldChangeRoundTripsValues(t *testing.T) {
	b := fixedBuilder(t)
	purchased := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	old := snap("value", 10.5, "purchase_date", nil, "active", true)
	current := snap("value", 12.25, "purchase_date", purchased, "active", false)

	events := b.Build(assetTarget(), Classify(old, current), current)

	require.Len(t, events, 4)
	for i, field := range []string{"value", "purchase_date", "active"} {
		oldValue, _ := old.Get(field)
		newValue, _ := current.Get(field)
		gotBefore, _ := events[i].Before.Get(field)
		gotAfter, _ := events[i].After.Get(field)
		assert.Equal(t, oldValue, gotBefore, field)
		assert.Equal(t, newValue, gotAfter, field)
	}
	assert.Contains(t, events[1].Description, "de empty para")
}

func TestBuild_ListAdd(t *testing.T) {
	b := fixedBuilder(t)
	old := snap("tag", "A-001", "installed_software", []string{"OS"})
	current := snap("tag", "A-001", "installed_software", []string{"OS", "Office"})

	events := b.Build(assetTarget(), Classify(old, current), current)

	require.Len(t, events, 2)
	add := events[0]
	assert.Equal(t, domain.ActionListAdd, add.Action)
	items, _ := add.After.Get("items")
	field, _ := add.After.Get("field")
	assert.Equal(t, []any{"Office"}, items)
	assert.Equal(t, "installed_software", field)
	assert.Equal(t, "installed_software: adicionado Office", add.Description)

	fields, _ := events[1].Before.Get("changed_fields")
	assert.Equal(t, []string{"installed_software (+)"}, fields)
}

func TestBuild_ListRemoveSuffix(t *testing.T) {
	b := fixedBuilder(t)
	old := snap("installed_software", []string{"a", "b"})
	current := snap("installed_software", []string{"b", "c"})

	events := b.Build(assetTarget(), Classify(old, current), current)

	require.Len(t, events, 3)
	assert.Equal(t, domain.ActionListAdd, events[0].Action)
	assert.Equal(t, domain.ActionListRemove, events[1].Action)
	removed, _ := events[1].Before.Get("items")
	assert.Equal(t, []any{"a"}, removed)
	assert.Nil(t, events[1].After)
	fields, _ := events[2].Before.Get("changed_fields")
	assert.Equal(t, []string{"installed_software (+)", "installed_software (-)"}, fields)
}

func TestBuildDelete(t *testing.T) {
	b := fixedBuilder(t)
	last := snap("tag", "A-001", "status", "Inactive")

	ev := b.BuildDelete(assetTarget(), last)

	assert.Equal(t, domain.ActionDelete, ev.Action)
	assert.Nil(t, ev.After)
	require.NotNil(t, ev.Before)
	assert.Equal(t, last.Keys(), ev.Before.Keys())
	assert.Equal(t, "asset A-001 excluído do sistema", ev.Description)
}

func TestBuild_DefaultsActorAndMalformedID(t *testing.T) {
	b := fixedBuilder(t)
	current := snap("tag", "A-001")

	events := b.Build(Target{Kind: domain.KindPhone, ID: "64f0c0ffee", Actor: "  "}, Classify(nil, current), current)

	require.Len(t, events, 1)
	assert.Equal(t, domain.SystemActor, events[0].Actor)
	assert.Nil(t, events[0].EntityID)
	assert.Equal(t, "phone N/A cadastrado no sistema", events[0].Description)
}

func TestBuild_TruncatesLongActor(t *testing.T) {
	b := fixedBuilder(t)
	current := snap("tag", "A-001")
	long := strings.Repeat("é", MaxActorLength+50)

	events := b.Build(Target{Kind: domain.KindAsset, ID: "1", Actor: long}, Classify(nil, current), current)

	require.Len(t, events, 1)
	assert.Equal(t, MaxActorLength, utf8.RuneCountInString(events[0].Actor))
	assert.True(t, strings.HasPrefix(long, events[0].Actor))
}

func TestBuilder_TimestampsNeverGoBackwards(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	i := 0
	b := NewBuilder(WithClock(func() time.Time {
		ts := ticks[i]
		i++
		return ts
	}))

	first := b.BuildDelete(assetTarget(), nil)
	second := b.BuildDelete(assetTarget(), nil)
	third := b.BuildDelete(assetTarget(), nil)

	assert.Equal(t, base, first.Timestamp)
	assert.Equal(t, base, second.Timestamp)
	assert.Equal(t, base.Add(time.Second), third.Timestamp)
}

func TestBuild_SnapshotsAreCopies(t *testing.T) {
	b := fixedBuilder(t)
	current := snap("tag", "A-001")

	events := b.Build(assetTarget(), Classify(nil, current), current)
	current.Set("status", "Active")

	require.Len(t, events, 1)
	assert.False(t, events[0].After.Has("status"))
}
