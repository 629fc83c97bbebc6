package selection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/propflow/internal/domain/plan"
)

type mockCommitter struct {
	calls     int
	lastFirms []Firm
	err       error
}

func (m *mockCommitter) Commit(ctx context.Context, firms []Firm) error {
	m.calls++
	m.lastFirms = firms
	return m.err
}

func catalogFirms() []Firm {
	return []Firm{
		{ID: "ftmo", Name: "FTMO", Description: "Forex and futures evaluations"},
		{ID: "topstep", Name: "Topstep", Description: "Futures funding"},
		{ID: "apex", Name: "Apex Trader Funding", Description: "Futures evaluations"},
		{ID: "the5ers", Name: "The5ers", Description: "Forex funding"},
	}
}

func TestToggleSelectsAndDeselects(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	require.NoError(t, m.Toggle("ftmo", plan.Standard))
	assert.Equal(t, 1, m.SelectedCount())
	assert.True(t, m.HasPendingChanges())

	// Toggling the same id again restores the original state.
	require.NoError(t, m.Toggle("ftmo", plan.Standard))
	assert.Equal(t, 0, m.SelectedCount())
	assert.False(t, m.HasPendingChanges())
}

func TestToggleUnknownFirm(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	err := m.Toggle("nope", plan.Premium)
	assert.ErrorIs(t, err, ErrUnknownFirm)
	assert.False(t, m.HasPendingChanges())
}

func TestToggleCapacityEnforcedAtBoundary(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	// Starter allows exactly one selection.
	require.NoError(t, m.Toggle("ftmo", plan.Starter))

	err := m.Toggle("topstep", plan.Starter)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 1, m.SelectedCount())

	// Deselecting is never capacity checked, and frees the slot.
	require.NoError(t, m.Toggle("ftmo", plan.Starter))
	require.NoError(t, m.Toggle("topstep", plan.Starter))
	assert.Equal(t, 1, m.SelectedCount())
}

func TestToggleCapacityCompoundsWithinSession(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	// Standard allows three; the check runs against pending's current
	// count, not committed's, so no save is needed in between.
	require.NoError(t, m.Toggle("ftmo", plan.Standard))
	require.NoError(t, m.Toggle("topstep", plan.Standard))
	require.NoError(t, m.Toggle("apex", plan.Standard))

	err := m.Toggle("the5ers", plan.Standard)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 3, m.SelectedCount())
}

func TestToggleNeverExceedsCapacity(t *testing.T) {
	// Across arbitrary toggle sequences the selected count stays
	// within the tier cap; rejected calls leave state unchanged.
	for _, tier := range []plan.Tier{plan.Starter, plan.Standard} {
		m := NewManager(catalogFirms(), &mockCommitter{})
		ids := []string{"ftmo", "topstep", "apex", "the5ers"}

		for round := 0; round < 3; round++ {
			for _, id := range ids {
				before := m.Pending()
				if err := m.Toggle(id, tier); err != nil {
					assert.ErrorIs(t, err, ErrCapacityExceeded)
					assert.Equal(t, before, m.Pending(), "rejected toggle must not mutate")
				}
				assert.LessOrEqual(t, m.SelectedCount(), tier.Capacity(), "tier %s", tier)
			}
		}
	}
}

func TestPremiumIsUnbounded(t *testing.T) {
	firms := make([]Firm, 0, 50)
	for i := 0; i < 50; i++ {
		firms = append(firms, Firm{ID: fmt.Sprintf("firm-%d", i), Name: fmt.Sprintf("Firm %d", i)})
	}
	m := NewManager(firms, &mockCommitter{})

	for _, f := range firms {
		require.NoError(t, m.Toggle(f.ID, plan.Premium))
	}
	assert.Equal(t, 50, m.SelectedCount())
	assert.Equal(t, plan.Unlimited, m.RemainingCapacity(plan.Premium))
}

func TestAddCustomFirm(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	firm, err := m.AddCustomFirm("Acme Capital", "ACMECAP", plan.Premium)
	require.NoError(t, err)
	assert.NotEmpty(t, firm.ID)
	assert.Equal(t, "Acme Capital", firm.Name)
	assert.Equal(t, "ACMECAP", firm.MatchKeyword)
	assert.True(t, firm.Custom)
	assert.False(t, firm.Selected, "new custom firms start unselected")

	assert.Len(t, m.Pending(), 5)
	assert.True(t, m.HasPendingChanges())
}

func TestAddCustomFirmTrimsInput(t *testing.T) {
	m := NewManager(nil, &mockCommitter{})

	firm, err := m.AddCustomFirm("  Acme Capital  ", "\tACMECAP\n", plan.Premium)
	require.NoError(t, err)
	assert.Equal(t, "Acme Capital", firm.Name)
	assert.Equal(t, "ACMECAP", firm.MatchKeyword)
}

func TestAddCustomFirmValidation(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	for _, tc := range []struct{ name, keyword string }{
		{"", "ACME"},
		{"Acme", ""},
		{"   ", "ACME"},
		{"", ""},
	} {
		_, err := m.AddCustomFirm(tc.name, tc.keyword, plan.Premium)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Len(t, m.Pending(), 4)
	assert.False(t, m.HasPendingChanges())
}

func TestAddCustomFirmPlanGate(t *testing.T) {
	// Below premium the gate fires regardless of input validity.
	m := NewManager(catalogFirms(), &mockCommitter{})

	for _, tier := range []plan.Tier{plan.Starter, plan.Standard} {
		_, err := m.AddCustomFirm("Acme Capital", "ACMECAP", tier)
		assert.ErrorIs(t, err, ErrPlanRestricted)

		_, err = m.AddCustomFirm("", "", tier)
		assert.ErrorIs(t, err, ErrPlanRestricted)
	}
	assert.Len(t, m.Pending(), 4)
}

func TestCustomFirmToggleStillCapacityChecked(t *testing.T) {
	m := NewManager([]Firm{{ID: "ftmo", Name: "FTMO", Selected: true}}, &mockCommitter{})

	firm, err := m.AddCustomFirm("Acme Capital", "ACMECAP", plan.Premium)
	require.NoError(t, err)

	// Downgrade scenario: firm was added under premium but the session
	// now evaluates under starter, which is already full.
	err = m.Toggle(firm.ID, plan.Starter)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	require.NoError(t, m.Toggle(firm.ID, plan.Premium))
	assert.True(t, firm.Custom)
}

func TestSaveCommitsExactlyPending(t *testing.T) {
	committer := &mockCommitter{}
	m := NewManager(catalogFirms(), committer)

	require.NoError(t, m.Toggle("ftmo", plan.Standard))
	require.NoError(t, m.Toggle("apex", plan.Standard))
	snapshot := m.Pending()

	require.NoError(t, m.Save(context.Background()))
	assert.Equal(t, 1, committer.calls)
	assert.Equal(t, snapshot, committer.lastFirms)
	assert.False(t, m.HasPendingChanges())

	// A discard after a successful save is a no-op.
	m.Discard()
	assert.Equal(t, snapshot, m.Pending())
}

func TestSaveFailurePreservesPending(t *testing.T) {
	committer := &mockCommitter{err: errors.New("connection refused")}
	m := NewManager(catalogFirms(), committer)

	require.NoError(t, m.Toggle("ftmo", plan.Standard))
	snapshot := m.Pending()

	err := m.Save(context.Background())
	assert.ErrorIs(t, err, ErrPersistence)

	// No partial commit: pending keeps the edits, committed is untouched.
	assert.Equal(t, snapshot, m.Pending())
	assert.True(t, m.HasPendingChanges())

	// Retry after the collaborator recovers succeeds with the same edits.
	committer.err = nil
	require.NoError(t, m.Save(context.Background()))
	assert.False(t, m.HasPendingChanges())
}

func TestDiscardRevertsAndIsIdempotent(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	require.NoError(t, m.Toggle("ftmo", plan.Standard))
	require.NoError(t, m.Toggle("topstep", plan.Standard))
	_, err := m.AddCustomFirm("Acme Capital", "ACMECAP", plan.Premium)
	require.NoError(t, err)
	require.True(t, m.HasPendingChanges())

	m.Discard()
	assert.False(t, m.HasPendingChanges())
	assert.Len(t, m.Pending(), 4)
	assert.Equal(t, 0, m.SelectedCount())

	first := m.Pending()
	m.Discard()
	assert.Equal(t, first, m.Pending())
}

func TestHasPendingChangesTracksDivergence(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})
	assert.False(t, m.HasPendingChanges())

	require.NoError(t, m.Toggle("ftmo", plan.Premium))
	assert.True(t, m.HasPendingChanges())

	require.NoError(t, m.Toggle("ftmo", plan.Premium))
	assert.False(t, m.HasPendingChanges(), "round trip back to committed state")

	_, err := m.AddCustomFirm("Acme Capital", "ACMECAP", plan.Premium)
	require.NoError(t, err)
	assert.True(t, m.HasPendingChanges(), "membership growth counts as divergence")
}

func TestPendingReturnsDefensiveCopy(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	view := m.Pending()
	view[0].Selected = true

	assert.Equal(t, 0, m.SelectedCount())
	assert.False(t, m.HasPendingChanges())
}

func TestRemainingCapacityForBanners(t *testing.T) {
	m := NewManager(catalogFirms(), &mockCommitter{})

	assert.Equal(t, 3, m.RemainingCapacity(plan.Standard))
	require.NoError(t, m.Toggle("ftmo", plan.Standard))
	assert.Equal(t, 2, m.RemainingCapacity(plan.Standard))
	assert.Equal(t, 0, m.RemainingCapacity(plan.Starter))
}
