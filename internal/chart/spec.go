package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"finchat-backend/internal/models"
)

// ErrNoChartSpec means the model reply contained no usable chart spec.
var ErrNoChartSpec = errors.New("no chart spec produced")

// ChartType enumerates the renderable chart shapes.
type ChartType string

const (
	ChartBar        ChartType = "bar"
	ChartGroupedBar ChartType = "grouped_bar"
	ChartLine       ChartType = "line"
	ChartScatter    ChartType = "scatter"
	ChartPie        ChartType = "pie"
)

// Aggregation enumerates the per-group reductions.
type Aggregation string

const (
	AggSum   Aggregation = "sum"
	AggMean  Aggregation = "mean"
	AggCount Aggregation = "count"
	AggNone  Aggregation = "none"
)

// ChartSpec is the declarative chart description the model emits. It is
// validated against the dataset before any rendering happens.
type ChartSpec struct {
	ChartType ChartType   `json:"chart_type"`
	X         string      `json:"x"`
	Y         string      `json:"y"`
	GroupBy   string      `json:"group_by,omitempty"`
	Agg       Aggregation `json:"agg"`
	Title     string      `json:"title,omitempty"`
}

// ParseChartSpec extracts and decodes the spec from the first fenced code
// block of a model reply. A reply without a block, or with an empty one,
// yields ErrNoChartSpec.
func ParseChartSpec(reply string) (*ChartSpec, error) {
	block := firstFencedBlock(reply)
	if block == "" {
		return nil, ErrNoChartSpec
	}

	var spec ChartSpec
	if err := json.Unmarshal([]byte(block), &spec); err != nil {
		return nil, models.NewContractError("chart.parse",
			fmt.Sprintf("chart spec is not valid JSON: %v", err))
	}
	if spec.Agg == "" {
		spec.Agg = AggNone
	}
	return &spec, nil
}

// Validate checks the spec against a dataset's columns and types.
func (s *ChartSpec) Validate(ds *Dataset) error {
	switch s.ChartType {
	case ChartBar, ChartGroupedBar, ChartLine, ChartScatter, ChartPie:
	default:
		return models.NewContractError("chart.validate",
			fmt.Sprintf("unknown chart_type %q", s.ChartType))
	}

	switch s.Agg {
	case AggSum, AggMean, AggCount, AggNone:
	default:
		return models.NewContractError("chart.validate",
			fmt.Sprintf("unknown agg %q", s.Agg))
	}

	if s.X == "" || !ds.HasColumn(s.X) {
		return models.NewContractError("chart.validate",
			fmt.Sprintf("x column %q not in dataset", s.X))
	}
	if s.Agg != AggCount {
		if s.Y == "" || !ds.HasColumn(s.Y) {
			return models.NewContractError("chart.validate",
				fmt.Sprintf("y column %q not in dataset", s.Y))
		}
		if ds.Types[s.Y] != ColumnNumber {
			return models.NewContractError("chart.validate",
				fmt.Sprintf("y column %q is not numeric", s.Y))
		}
	}
	if s.GroupBy != "" && !ds.HasColumn(s.GroupBy) {
		return models.NewContractError("chart.validate",
			fmt.Sprintf("group_by column %q not in dataset", s.GroupBy))
	}
	if s.ChartType == ChartGroupedBar && s.GroupBy == "" {
		return models.NewContractError("chart.validate", "grouped_bar requires group_by")
	}
	if s.ChartType == ChartScatter && ds.Types[s.X] != ColumnNumber {
		return models.NewContractError("chart.validate",
			fmt.Sprintf("scatter x column %q is not numeric", s.X))
	}
	return nil
}

// firstFencedBlock returns the contents of the first ``` block, with an
// optional language tag stripped.
func firstFencedBlock(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return ""
	}
	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	block := rest[:end]

	// Drop a language tag like "json" on the opening fence line.
	if nl := strings.IndexByte(block, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(block[:nl])
		if firstLine != "" && !strings.HasPrefix(firstLine, "{") && !strings.HasPrefix(firstLine, "[") {
			block = block[nl+1:]
		}
	}
	return strings.TrimSpace(block)
}
