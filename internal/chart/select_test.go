package chart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"finchat-backend/internal/models"
)

func loadRegions(t *testing.T) *Dataset {
	t.Helper()
	ds, err := LoadCSV(strings.NewReader(
		"region,quarter,revenue\n" +
			"north,Q1,100\n" +
			"south,Q1,200\n" +
			"north,Q2,300\n" +
			"south,Q2,400\n"))
	assert.NoError(t, err)
	return ds
}

func TestSelectionExecute_ProjectsColumns(t *testing.T) {
	ds := loadRegions(t)
	spec := SelectionSpec{Columns: []string{"region", "revenue"}}

	rows, err := spec.Execute(ds)

	assert.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, map[string]any{"region": "north", "revenue": 100.0}, rows[0])
}

func TestSelectionExecute_FilterOps(t *testing.T) {
	ds := loadRegions(t)

	tests := []struct {
		name string
		cond Condition
		want int
	}{
		{"eq", Condition{Column: "region", Op: "eq", Value: "North"}, 2},
		{"neq", Condition{Column: "region", Op: "neq", Value: "north"}, 2},
		{"contains", Condition{Column: "quarter", Op: "contains", Value: "q1"}, 2},
		{"gt", Condition{Column: "revenue", Op: "gt", Value: "200"}, 2},
		{"gte", Condition{Column: "revenue", Op: "gte", Value: "200"}, 3},
		{"lt", Condition{Column: "revenue", Op: "lt", Value: "200"}, 1},
		{"lte", Condition{Column: "revenue", Op: "lte", Value: "200"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := SelectionSpec{Columns: []string{"region"}, Where: []Condition{tt.cond}}
			rows, err := spec.Execute(ds)
			assert.NoError(t, err)
			assert.Len(t, rows, tt.want)
		})
	}
}

func TestSelectionExecute_GroupSum(t *testing.T) {
	ds := loadRegions(t)
	spec := SelectionSpec{
		Columns: []string{"region", "revenue"},
		GroupBy: "region",
		Agg:     map[string]Aggregation{"revenue": AggSum},
	}

	rows, err := spec.Execute(ds)

	assert.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"region": "north", "revenue": 400.0},
		{"region": "south", "revenue": 600.0},
	}, rows)
}

func TestSelectionExecute_GroupMeanAndCount(t *testing.T) {
	ds := loadRegions(t)
	spec := SelectionSpec{
		Columns: []string{"region", "revenue", "quarter"},
		GroupBy: "region",
		Agg: map[string]Aggregation{
			"revenue": AggMean,
			"quarter": AggCount,
		},
	}

	rows, err := spec.Execute(ds)

	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 200.0, rows[0]["revenue"])
	assert.Equal(t, 2, rows[0]["quarter"])
}

func TestSelectionExecute_Limit(t *testing.T) {
	ds := loadRegions(t)
	spec := SelectionSpec{Columns: []string{"region"}, Limit: 2}

	rows, err := spec.Execute(ds)

	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSelectionExecute_ContractErrors(t *testing.T) {
	ds := loadRegions(t)

	tests := []struct {
		name string
		spec SelectionSpec
	}{
		{"no columns", SelectionSpec{}},
		{"unknown column", SelectionSpec{Columns: []string{"country"}}},
		{"unknown filter column", SelectionSpec{
			Columns: []string{"region"},
			Where:   []Condition{{Column: "country", Op: "eq", Value: "x"}},
		}},
		{"unknown group_by", SelectionSpec{Columns: []string{"region"}, GroupBy: "country"}},
		{"unknown op", SelectionSpec{
			Columns: []string{"region"},
			Where:   []Condition{{Column: "region", Op: "regex", Value: "x"}},
		}},
		{"non numeric filter value", SelectionSpec{
			Columns: []string{"region"},
			Where:   []Condition{{Column: "revenue", Op: "gt", Value: "lots"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Execute(ds)
			assert.Error(t, err)
			assert.Equal(t, models.KindContract, models.KindOf(err))
		})
	}
}

func TestParseSelectionSpec(t *testing.T) {
	reply := "```json\n" +
		`{"columns": ["region", "revenue"], "group_by": "region", "agg": {"revenue": "sum"}, "limit": 5}` + "\n" +
		"```"

	spec, err := ParseSelectionSpec(reply)

	assert.NoError(t, err)
	assert.Equal(t, []string{"region", "revenue"}, spec.Columns)
	assert.Equal(t, "region", spec.GroupBy)
	assert.Equal(t, AggSum, spec.Agg["revenue"])
	assert.Equal(t, 5, spec.Limit)
}

func TestParseSelectionSpec_NoBlock(t *testing.T) {
	_, err := ParseSelectionSpec("no data selection needed")
	assert.ErrorIs(t, err, ErrNoChartSpec)
}
