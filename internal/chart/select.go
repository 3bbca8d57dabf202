package chart

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"finchat-backend/internal/models"
)

// Condition is one row filter in a SelectionSpec.
type Condition struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  string `json:"value"`
}

// SelectionSpec is the declarative data selection the model emits on the
// explain path. Trusted code executes it; the model never sees raw rows
// beyond the samples in its prompt.
type SelectionSpec struct {
	Columns []string               `json:"columns"`
	Where   []Condition            `json:"where,omitempty"`
	GroupBy string                 `json:"group_by,omitempty"`
	Agg     map[string]Aggregation `json:"agg,omitempty"`
	Limit   int                    `json:"limit,omitempty"`
}

// ParseSelectionSpec extracts and decodes a selection from the first
// fenced code block of a model reply.
func ParseSelectionSpec(reply string) (*SelectionSpec, error) {
	block := firstFencedBlock(reply)
	if block == "" {
		return nil, ErrNoChartSpec
	}

	var spec SelectionSpec
	if err := json.Unmarshal([]byte(block), &spec); err != nil {
		return nil, models.NewContractError("chart.select",
			fmt.Sprintf("selection spec is not valid JSON: %v", err))
	}
	return &spec, nil
}

// Execute runs the selection against a dataset and returns the result as
// ordered column->value rows.
func (s *SelectionSpec) Execute(ds *Dataset) ([]map[string]any, error) {
	if len(s.Columns) == 0 {
		return nil, models.NewContractError("chart.select", "selection has no columns")
	}
	for _, col := range s.Columns {
		if !ds.HasColumn(col) {
			return nil, models.NewContractError("chart.select",
				fmt.Sprintf("column %q not in dataset", col))
		}
	}
	for _, cond := range s.Where {
		if !ds.HasColumn(cond.Column) {
			return nil, models.NewContractError("chart.select",
				fmt.Sprintf("filter column %q not in dataset", cond.Column))
		}
	}
	if s.GroupBy != "" && !ds.HasColumn(s.GroupBy) {
		return nil, models.NewContractError("chart.select",
			fmt.Sprintf("group_by column %q not in dataset", s.GroupBy))
	}

	rows, err := s.filterRows(ds)
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	if s.GroupBy != "" {
		out, err = s.aggregate(ds, rows)
		if err != nil {
			return nil, err
		}
	} else {
		out = make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			rec := make(map[string]any, len(s.Columns))
			for _, col := range s.Columns {
				rec[col] = cellValue(ds, row, col)
			}
			out = append(out, rec)
		}
	}

	if s.Limit > 0 && len(out) > s.Limit {
		out = out[:s.Limit]
	}
	return out, nil
}

func (s *SelectionSpec) filterRows(ds *Dataset) ([][]string, error) {
	if len(s.Where) == 0 {
		return ds.Rows, nil
	}

	var kept [][]string
	for _, row := range ds.Rows {
		match := true
		for _, cond := range s.Where {
			ok, err := matchCondition(ds, row, cond)
			if err != nil {
				return nil, err
			}
			if !ok {
				match = false
				break
			}
		}
		if match {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func matchCondition(ds *Dataset, row []string, cond Condition) (bool, error) {
	cell := ds.Value(row, cond.Column)
	switch cond.Op {
	case "eq":
		return strings.EqualFold(cell, cond.Value), nil
	case "neq":
		return !strings.EqualFold(cell, cond.Value), nil
	case "contains":
		return strings.Contains(strings.ToLower(cell), strings.ToLower(cond.Value)), nil
	case "gt", "gte", "lt", "lte":
		left, err := parseNumber(cell)
		if err != nil {
			return false, nil
		}
		right, err := parseNumber(cond.Value)
		if err != nil {
			return false, models.NewContractError("chart.select",
				fmt.Sprintf("filter value %q is not numeric", cond.Value))
		}
		switch cond.Op {
		case "gt":
			return left > right, nil
		case "gte":
			return left >= right, nil
		case "lt":
			return left < right, nil
		default:
			return left <= right, nil
		}
	default:
		return false, models.NewContractError("chart.select",
			fmt.Sprintf("unknown filter op %q", cond.Op))
	}
}

// aggregate groups rows and reduces the agg'd columns. Non-aggregated
// selected columns take the group key value.
func (s *SelectionSpec) aggregate(ds *Dataset, rows [][]string) ([]map[string]any, error) {
	type group struct {
		key    string
		sums   map[string]float64
		counts map[string]int
		n      int
	}

	groups := make(map[string]*group)
	var order []string
	for _, row := range rows {
		key := ds.Value(row, s.GroupBy)
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, sums: make(map[string]float64), counts: make(map[string]int)}
			groups[key] = g
			order = append(order, key)
		}
		g.n++
		for col, fn := range s.Agg {
			if fn == AggCount {
				continue
			}
			v, err := ds.Number(row, col)
			if err != nil {
				return nil, models.NewContractError("chart.select",
					fmt.Sprintf("cannot aggregate non-numeric cell in %q", col))
			}
			g.sums[col] += v
			g.counts[col]++
		}
	}
	sort.Strings(order)

	out := make([]map[string]any, 0, len(order))
	for _, key := range order {
		g := groups[key]
		rec := map[string]any{s.GroupBy: key}
		for col, fn := range s.Agg {
			switch fn {
			case AggSum:
				rec[col] = g.sums[col]
			case AggMean:
				if g.counts[col] > 0 {
					rec[col] = g.sums[col] / float64(g.counts[col])
				} else {
					rec[col] = 0.0
				}
			case AggCount:
				rec[col] = g.n
			case AggNone:
				// Passthrough makes no sense under grouping, take the sum.
				rec[col] = g.sums[col]
			default:
				return nil, models.NewContractError("chart.select",
					fmt.Sprintf("unknown agg %q for column %q", fn, col))
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func cellValue(ds *Dataset, row []string, col string) any {
	cell := ds.Value(row, col)
	if ds.Types[col] == ColumnNumber && cell != "" {
		if v, err := parseNumber(cell); err == nil {
			return v
		}
	}
	return cell
}
