// File: api/schemas/actions_test.go
package schemas

import (
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidKind(t *testing.T) {
	for _, k := range AllKinds() {
		assert.True(t, ValidKind(k))
	}
	assert.False(t, ValidKind("drag"))
	assert.False(t, ValidKind(""))
	assert.False(t, ValidKind("Click"), "kind matching is exact; the validator lower-cases first")
}

func TestActionful(t *testing.T) {
	assert.True(t, NewClick(&Coords{X: 1, Y: 2}, "").Actionful())
	assert.True(t, NewType("x").Actionful())
	assert.True(t, NewHotkey([]string{"ctrl", "s"}).Actionful())
	assert.False(t, Noop().Actionful())
	assert.False(t, Noop(ViolationForbiddenIntent).Actionful())
}

func TestAppendViolation_Dedupes(t *testing.T) {
	a := Noop()
	a.AppendViolation(ViolationDescOnly)
	a.AppendViolation(ViolationDescOnly)
	a.AppendViolation(ViolationForbiddenIntent)
	assert.Equal(t, []string{ViolationDescOnly, ViolationForbiddenIntent}, a.Violations)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	orig := NewClick(&Coords{X: 10, Y: 20}, "")
	orig.Keys = []string{"ctrl"}
	orig.AppendViolation("first")

	snap := orig.Snapshot()
	orig.Coords.X = 999
	orig.Keys[0] = "alt"
	orig.AppendViolation("second")

	assert.Equal(t, 10, snap.Coords.X)
	assert.Equal(t, []string{"ctrl"}, snap.Keys)
	assert.Equal(t, []string{"first"}, snap.Violations)
}

func TestCoords_JSONShape(t *testing.T) {
	data, err := json.Marshal(NewClick(&Coords{X: 120, Y: 240}, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"click","coords":[120,240]}`, string(data))

	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"action":"click","coords":[50,60]}`), &a))
	require.NotNil(t, a.Coords)
	assert.Equal(t, Coords{X: 50, Y: 60}, *a.Coords)
}

func TestCoords_UnmarshalRejectsObjects(t *testing.T) {
	var c Coords
	assert.Error(t, c.UnmarshalJSON([]byte(`{"x":1,"y":2}`)))
}

func TestNoop_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Noop())
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"noop"}`, string(data))
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		status  string
		ok      bool
		blocked bool
	}{
		{StatusOKNoop, true, false},
		{StatusOKDryRun, true, false},
		{StatusOKExecuted, true, false},
		{StatusBlockedNotAllowed, false, true},
		{StatusBlockedOutOfBound, false, true},
		{StatusIgnoredNoCoords, false, true},
		{StatusIgnoredUnknownPrefix + "drag", false, true},
		{StatusErrorException, false, false},
		{StatusInit, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.ok, StatusOK(tt.status))
			assert.Equal(t, tt.blocked, StatusBlockedOrIgnored(tt.status))
		})
	}
}
