package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// ParseCommand Tests
// ============================================================================

func TestParseCommand_MissingPrefix(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"not-a-query", "", "find({})", "DB.users.find()"} {
		_, err := ParseCommand(in, "users")
		assert.ErrorIs(t, err, ErrMissingPrefix, "input %q", in)
	}
}

func TestParseCommand_FindWithModifiers(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`db.users.find({age: {$gt: 30}}, {name: 1, email: true, _id: 0}).sort({age: -1}).skip(5).limit(10);`, "")

	require.NoError(t, err)
	assert.Equal(t, "users", cmd.Collection)
	assert.Equal(t, MethodFind, cmd.Method)
	require.Len(t, cmd.Filter.Exprs, 1)
	assert.Equal(t, Condition{Field: "age", Op: OpGt, Value: int64(30)}, cmd.Filter.Exprs[0])
	assert.Equal(t, []string{"email", "name"}, cmd.Projection)
	assert.Equal(t, &Sort{Field: "age", Direction: Descending}, cmd.Sort)
	assert.Equal(t, int64(5), cmd.Skip)
	assert.Equal(t, int64(10), cmd.Limit)
}

func TestParseCommand_SingleQuotesAndObjectId(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`db.getCollection('order-items').findOne({_id: ObjectId("65a1f0c2e4b0a1b2c3d4e5f6"), note: 'it"s'})`, "")

	require.NoError(t, err)
	assert.Equal(t, "order-items", cmd.Collection)
	assert.Equal(t, MethodFindOne, cmd.Method)
	assert.Equal(t, int64(1), cmd.Limit)
	assert.Equal(t, Condition{Field: "_id", Op: OpEq, Value: "65a1f0c2e4b0a1b2c3d4e5f6"}, cmd.Filter.Exprs[0])
	assert.Equal(t, Condition{Field: "note", Op: OpEq, Value: `it"s`}, cmd.Filter.Exprs[1])
}

func TestParseCommand_MethodUsesCollectionHint(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`db.countDocuments({active: true})`, "accounts")

	require.NoError(t, err)
	assert.Equal(t, "accounts", cmd.Collection)
	assert.Equal(t, MethodCountDocuments, cmd.Method)

	_, err = ParseCommand(`db.countDocuments({})`, "")
	assert.ErrorIs(t, err, ErrCollectionRequired)
}

func TestParseCommand_GetCollectionNames(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`db.getCollectionNames()`, "")

	require.NoError(t, err)
	assert.Equal(t, MethodGetCollectionNames, cmd.Method)
	assert.Empty(t, cmd.Collection)
}

func TestParseCommand_Stats(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`db.logs.stats()`, "")

	require.NoError(t, err)
	assert.Equal(t, MethodStats, cmd.Method)
	assert.Equal(t, "logs", cmd.Collection)
}

func TestParseCommand_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"drop database", `db.dropDatabase()`, ErrUnsupportedMethod},
		{"collection drop", `db.users.drop()`, ErrUnsupportedMethod},
		{"eval", `db.users.find().forEach(function(d){ print(d) })`, ErrSyntax},
		{"unbalanced", `db.users.find({a: 1}`, ErrSyntax},
		{"no method", `db.users`, ErrSyntax},
		{"property access", `db.users.find().length`, ErrSyntax},
		{"limit on count", `db.users.count().limit(1)`, ErrSyntax},
		{"negative limit", `db.users.find().limit(-1)`, ErrInvalidModifierArgs},
		{"where operator", `db.users.find({$where: "1"})`, ErrInvalidFilter},
		{"stats with args", `db.users.stats({})`, ErrSyntax},
		{"trailing junk", `db.users.find() + 1`, ErrSyntax},
		{"unterminated string", `db.users.find({a: 'x})`, ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCommand(tt.input, "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ============================================================================
// relaxJSON Tests
// ============================================================================

func TestRelaxJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`{a: 1}`, `{"a": 1}`},
		{`{'a': 'b'}`, `{"a": "b"}`},
		{`{$or: [{x: true}, {y: null}]}`, `{"$or": [{"x": true}, {"y": null}]}`},
		{`{id: ObjectId('abc')}`, `{"id": "abc"}`},
		{`{"already": "quoted"}`, `{"already": "quoted"}`},
		{`{n: -1.5e3}`, `{"n": -1.5e3}`},
	}
	for _, tt := range tests {
		got, err := relaxJSON(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
