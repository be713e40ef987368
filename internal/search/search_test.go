package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	name    string
	address *string
}

func strPtr(s string) *string { return &s }

var (
	byName    Field[row] = func(r row) string { return r.name }
	byAddress            = Optional(func(r row) *string { return r.address })
)

func rows() []row {
	return []row{
		{name: "Maple House", address: strPtr("12 Oak Street")},
		{name: "Oakwood", address: nil},
		{name: "Cabin", address: strPtr("Lakeside")},
	}
}

func TestFilter_EmptyQueryIsIdentity(t *testing.T) {
	in := rows()
	out := Filter(in, "", byName, byAddress)
	assert.Equal(t, in, out)
}

func TestFilter_CaseInsensitiveAcrossFields(t *testing.T) {
	out := Filter(rows(), "OAK", byName, byAddress)
	assert.Len(t, out, 2)
	assert.Equal(t, "Maple House", out[0].name)
	assert.Equal(t, "Oakwood", out[1].name)
}

func TestFilter_MatchInBothFieldsReturnedOnce(t *testing.T) {
	in := []row{{name: "Lake house", address: strPtr("Lake road")}}
	out := Filter(in, "lake", byName, byAddress)
	assert.Len(t, out, 1)
}

func TestFilter_NilOptionalFieldNeverMatches(t *testing.T) {
	out := Filter(rows(), "street", byAddress)
	assert.Len(t, out, 1)
	assert.Equal(t, "Maple House", out[0].name)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := rows()
	_ = Filter(in, "cabin", byName)
	assert.Equal(t, rows(), in)
}

func TestFilter_NoMatch(t *testing.T) {
	out := Filter(rows(), "zzz", byName, byAddress)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestFilter_WhitespaceIsLiteral(t *testing.T) {
	out := Filter(rows(), " ", byName, byAddress)
	assert.Len(t, out, 1)
	assert.Equal(t, "Maple House", out[0].name)
}
