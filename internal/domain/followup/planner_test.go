package followup

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adult(id, group string) Subject {
	return Subject{ID: id, Name: "Person " + id, GroupID: group, GroupName: "House " + group, Adult: true}
}

func child(id, group string) Subject {
	return Subject{ID: id, Name: "Child " + id, GroupID: group, GroupName: "House " + group}
}

func TestSpreadIndex_ExampleScenario(t *testing.T) {
	got := []int{SpreadIndex(0, 3, 20), SpreadIndex(1, 3, 20), SpreadIndex(2, 3, 20)}
	assert.Equal(t, []int{0, 6, 13}, got)
}

func TestSpreadIndex_FairDistribution(t *testing.T) {
	for _, d := range []int{1, 5, 20, 24, 26} {
		for n := 1; n <= 60; n++ {
			t.Run(fmt.Sprintf("n=%d,d=%d", n, d), func(t *testing.T) {
				counts := make([]int, d)
				for i := 0; i < n; i++ {
					idx := SpreadIndex(i, n, d)
					require.GreaterOrEqual(t, idx, 0)
					require.Less(t, idx, d)
					counts[idx]++
				}
				lo, hi := n/d, (n+d-1)/d
				for day, c := range counts {
					if n < d {
						assert.LessOrEqual(t, c, 1, "day %d", day)
						continue
					}
					assert.True(t, c == lo || c == hi, "day %d got %d, want %d or %d", day, c, lo, hi)
				}
			})
		}
	}
}

func TestEligibleDays_ExcludesSundays(t *testing.T) {
	days := EligibleDays(2026, time.February, []time.Weekday{time.Sunday}, time.UTC)

	// February 2026 has 28 days and four Sundays (1, 8, 15, 22).
	require.Len(t, days, 24)
	assert.Equal(t, 2, days[0].Day())
	for _, d := range days {
		assert.NotEqual(t, time.Sunday, d.Weekday())
		assert.Equal(t, time.February, d.Month())
	}
}

func TestBuildPlan_ThreeGroups(t *testing.T) {
	groups := GroupSubjects([]Subject{
		adult("c1", "C"), adult("a1", "A"), adult("b1", "B"), adult("a2", "A"),
	})

	plan, err := BuildPlan(groups, "2026-02", []time.Weekday{time.Sunday}, nil, 1, time.UTC)
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 3)
	assert.Empty(t, plan.Warnings)

	type row struct {
		Group, Subject, Date string
	}
	got := make([]row, 0, 3)
	for _, a := range plan.Assignments {
		got = append(got, row{a.GroupID, a.SubjectID, a.AssignedDate.Format(DateLayout)})
		assert.Equal(t, StatePending, a.State)
		assert.Equal(t, "2026-02", a.Period)
	}
	// 24 eligible days: indices 0, 8, 16 -> Feb 2, Feb 11, Feb 20.
	want := []row{
		{"A", "a1", "2026-02-02"},
		{"B", "b1", "2026-02-11"},
		{"C", "c1", "2026-02-20"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPlan_Deterministic(t *testing.T) {
	subjects := []Subject{adult("x", "G2"), adult("y", "G1"), adult("z", "G3")}
	p1, err := BuildPlan(GroupSubjects(subjects), "2026-03", nil, nil, 1, time.UTC)
	require.NoError(t, err)

	// Same input in a different order yields the same plan.
	reversed := []Subject{subjects[2], subjects[1], subjects[0]}
	p2, err := BuildPlan(GroupSubjects(reversed), "2026-03", nil, nil, 1, time.UTC)
	require.NoError(t, err)

	require.Len(t, p2.Assignments, len(p1.Assignments))
	for i := range p1.Assignments {
		assert.Equal(t, p1.Assignments[i].GroupID, p2.Assignments[i].GroupID)
		assert.True(t, p1.Assignments[i].AssignedDate.Equal(p2.Assignments[i].AssignedDate))
	}
}

func TestBuildPlan_GroupWithoutAdultIsReported(t *testing.T) {
	groups := GroupSubjects([]Subject{adult("a1", "A"), child("k1", "K")})

	plan, err := BuildPlan(groups, "2026-02", nil, nil, 1, time.UTC)
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 1)
	require.Len(t, plan.Warnings, 1)
	assert.Equal(t, "K", plan.Warnings[0].GroupID)
	assert.Contains(t, plan.Warnings[0].String(), "no eligible adult")
}

func TestBuildPlan_AllDaysBlackedOut(t *testing.T) {
	all := []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
	_, err := BuildPlan(nil, "2026-02", all, nil, 1, time.UTC)
	assert.ErrorIs(t, err, ErrNoEligibleDays)
}

func TestSelectRepresentative_Rotation(t *testing.T) {
	g := Group{ID: "A", Members: []Subject{adult("a1", "A"), child("k", "A"), adult("a2", "A"), adult("a3", "A")}}

	t.Run("no history picks first eligible", func(t *testing.T) {
		s, ok := SelectRepresentative(g, nil, 1)
		require.True(t, ok)
		assert.Equal(t, "a1", s.ID)
	})

	t.Run("rotates away from last period", func(t *testing.T) {
		hist := []*Assignment{{SubjectID: "a1", Period: "2026-01"}}
		s, _ := SelectRepresentative(g, hist, 1)
		assert.Equal(t, "a2", s.ID)
	})

	t.Run("longer lookback skips everyone recently targeted", func(t *testing.T) {
		hist := []*Assignment{{SubjectID: "a1", Period: "2025-12"}, {SubjectID: "a2", Period: "2026-01"}}
		s, _ := SelectRepresentative(g, hist, 2)
		assert.Equal(t, "a3", s.ID)
	})

	t.Run("everyone targeted picks the oldest", func(t *testing.T) {
		hist := []*Assignment{
			{SubjectID: "a2", Period: "2025-11"},
			{SubjectID: "a1", Period: "2025-12"},
			{SubjectID: "a3", Period: "2026-01"},
		}
		s, _ := SelectRepresentative(g, hist, 3)
		assert.Equal(t, "a2", s.ID)
	})

	t.Run("lookback zero disables rotation", func(t *testing.T) {
		hist := []*Assignment{{SubjectID: "a1", Period: "2026-01"}}
		s, _ := SelectRepresentative(g, hist, 0)
		assert.Equal(t, "a1", s.ID)
	})

	t.Run("no adults", func(t *testing.T) {
		_, ok := SelectRepresentative(Group{ID: "K", Members: []Subject{child("k", "K")}}, nil, 1)
		assert.False(t, ok)
	})
}

func TestGroupSubjects_SkipsUngrouped(t *testing.T) {
	groups := GroupSubjects([]Subject{adult("a", "B"), {ID: "lonely", Adult: true}, adult("b", "A")})
	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].ID)
	assert.Equal(t, "B", groups[1].ID)
}
