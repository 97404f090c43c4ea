package models_test

import (
	"encoding/json"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/jobboard/models"
	"github.com/Skryldev/jobboard/query"
)

func TestPatch_Unmarshal(t *testing.T) {
	var u models.JobUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"salary": 90000, "equity": null}`), &u))

	assert.False(t, u.Title.Set)
	require.True(t, u.Salary.Set)
	assert.EqualValues(t, 90000, *u.Salary.Value)
	assert.True(t, u.Equity.Set)
	assert.Nil(t, u.Equity.Value)
}

func TestPatch_UnmarshalTypeMismatch(t *testing.T) {
	var u models.JobUpdate
	assert.Error(t, json.Unmarshal([]byte(`{"salary": "lots"}`), &u))
}

func TestPatch_Marshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A models.Patch[int64] `json:"a"`
		B models.Patch[int64] `json:"b"`
	}{models.PatchOf[int64](3), models.PatchNull[int64]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(b))
}

func TestJobUpdate_Assignments(t *testing.T) {
	t.Run("declaration order", func(t *testing.T) {
		u := models.JobUpdate{
			Equity: models.PatchNull[float64](),
			Title:  models.PatchOf("Engineer"),
		}
		assert.Equal(t, query.Assignments{
			{Field: "title", Value: "Engineer"},
			{Field: "equity", Value: nil},
		}, u.Assignments())
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, models.JobUpdate{}.Assignments())
	})
}

func TestCompanyUpdate_AssignmentsUseRequestNames(t *testing.T) {
	u := models.CompanyUpdate{
		NumEmployees: models.PatchOf[int64](12),
		LogoURL:      models.PatchOf("http://x/logo.png"),
	}
	set, vals, err := query.CompileSet(u.Assignments(), models.CompanyAliases)
	require.NoError(t, err)
	assert.Equal(t, `"num_employees"=$1, "logo_url"=$2`, set)
	assert.Equal(t, []any{int64(12), "http://x/logo.png"}, vals)
}

func TestJobSearch_Filter(t *testing.T) {
	zero := int64(0)
	no := false
	f := models.JobSearch{MinSalary: &zero, HasEquity: &no}.Filter()

	assert.Equal(t, mo.None[string](), f.Title)
	assert.Equal(t, mo.Some[int64](0), f.MinSalary)
	assert.Equal(t, mo.Some(false), f.HasEquity)
}
