package diff

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDiff_SwordScenario(t *testing.T) {
	left := map[string]string{"DisplayName": "Old Sword", "IsStackable": "FALSE"}
	right := map[string]string{"DisplayName": "New Sword", "IsStackable": "TRUE"}

	rows := BuildDiff(left, right)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, r.IsDifferent, r.Field)
		assert.Equal(t, Right, r.Choice, r.Field)
	}
	assert.Equal(t, right, Merge(rows))

	SetAllChoice(rows, Left)
	assert.Equal(t, left, Merge(rows))
}

func TestBuildDiff_MissingKeyIsEmpty(t *testing.T) {
	rows := BuildDiff(
		map[string]string{"a": "1", "b": ""},
		map[string]string{"a": "1", "c": "x"},
	)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{Field: "a", Left: "1", Right: "1", IsDifferent: false, Choice: Right}, rows[0])
	assert.Equal(t, Row{Field: "b", Left: "", Right: "", IsDifferent: false, Choice: Right}, rows[1])
	assert.Equal(t, Row{Field: "c", Left: "", Right: "x", IsDifferent: true, Choice: Right}, rows[2])
}

func TestBuildDiff_CaseSensitive(t *testing.T) {
	rows := BuildDiff(map[string]string{"k": "TRUE"}, map[string]string{"k": "true"})
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsDifferent)
}

func TestBuildDiff_Empty(t *testing.T) {
	assert.Empty(t, BuildDiff(nil, nil))
	assert.Empty(t, Merge(nil))
}

func TestBuildDiff_UnionSize(t *testing.T) {
	tests := []struct {
		left, right []string
		want        int
	}{
		{nil, nil, 0},
		{[]string{"a"}, nil, 1},
		{nil, []string{"a", "b"}, 2},
		{[]string{"a", "b"}, []string{"b", "c"}, 3},
		{[]string{"a", "b", "c"}, []string{"a", "b", "c"}, 3},
		{[]string{"a", "b"}, []string{"c", "d", "e"}, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v_%v", tt.left, tt.right), func(t *testing.T) {
			left := make(map[string]string)
			for i, k := range tt.left {
				left[k] = fmt.Sprint("L", i)
			}
			right := make(map[string]string)
			for i, k := range tt.right {
				right[k] = fmt.Sprint("R", i)
			}
			rows := BuildDiff(left, right)
			assert.Len(t, rows, tt.want)

			// any mix of choices still yields every key exactly once
			for i := range rows {
				if i%2 == 0 {
					rows[i].Choice = Left
				}
			}
			merged := Merge(rows)
			assert.Len(t, merged, tt.want)
			for _, r := range rows {
				assert.Contains(t, merged, r.Field)
			}
		})
	}
}

func TestDiffering(t *testing.T) {
	rows := BuildDiff(
		map[string]string{"a": "1", "b": "2", "c": "3"},
		map[string]string{"a": "1", "b": "x", "c": "y"},
	)
	d := Differing(rows)
	require.Len(t, d, 2)
	assert.Equal(t, "b", d[0].Field)
	assert.Equal(t, "c", d[1].Field)
}

func TestSetAllChoice_Idempotent(t *testing.T) {
	rows := BuildDiff(map[string]string{"a": "1"}, map[string]string{"a": "2"})
	SetAllChoice(rows, Left)
	SetAllChoice(rows, Left)
	assert.Equal(t, map[string]string{"a": "1"}, Merge(rows))
	SetAllChoice(rows, Right)
	assert.Equal(t, map[string]string{"a": "2"}, Merge(rows))
}

func TestMergeWith_DoesNotMutate(t *testing.T) {
	rows := BuildDiff(
		map[string]string{"a": "L", "b": "L"},
		map[string]string{"a": "R", "b": "R"},
	)
	got := MergeWith(rows, map[string]Side{"a": Left, "zzz": Left})
	assert.Equal(t, map[string]string{"a": "L", "b": "R"}, got)
	assert.Equal(t, Right, rows[0].Choice)
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("left")
	require.NoError(t, err)
	assert.Equal(t, Left, s)

	_, err = ParseSide("Left")
	assert.ErrorIs(t, err, ErrInvalidSide)
	_, err = ParseSide("")
	assert.ErrorIs(t, err, ErrInvalidSide)
}
