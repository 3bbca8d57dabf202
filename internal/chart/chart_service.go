package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// LLM is the text-generation dependency, satisfied by the services LLM
// client.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service turns a natural-language request over a dataset into a rendered
// chart, optionally with selected data and an explanation.
type Service struct {
	llm      LLM
	renderer *Renderer
	logger   *log.Logger
}

// NewService wires the chart pipeline.
func NewService(llm LLM, renderer *Renderer, logger *log.Logger) *Service {
	return &Service{llm: llm, renderer: renderer, logger: logger}
}

// Result is one chart generation outcome. ChartData and Explanation are
// set only in explain mode.
type Result struct {
	PNG         []byte
	ChartData   string
	Explanation string
}

const chartPromptTemplate = `You are a data visualization assistant. Given the dataset below and the user's request, produce a chart specification.

%s
Reply with only a fenced JSON code block of this shape:
{"chart_type": "bar|grouped_bar|line|scatter|pie", "x": "<column>", "y": "<column>", "group_by": "<column, optional>", "agg": "sum|mean|count|none", "title": "<optional>"}

User request: %s`

const selectionPromptTemplate = `You are a data analyst. Given the dataset below and the user's request, pick the data behind the requested chart.

%s
Reply with only a fenced JSON code block of this shape:
{"columns": ["<column>", ...], "where": [{"column": "<column>", "op": "eq|neq|contains|gt|gte|lt|lte", "value": "<value>"}], "group_by": "<column, optional>", "agg": {"<column>": "sum|mean|count"}, "limit": 0}

User request: %s`

const explainPromptTemplate = `The user asked: %s

The chart was built from this data:
%s

Explain the trend this data shows in two or three sentences. Describe only what the numbers show. Do not give advice or recommendations.`

// MakeChart produces a chart for the request. With explain set it also
// selects the underlying data and generates a trend explanation.
func (s *Service) MakeChart(ctx context.Context, ds *Dataset, query string, explain bool) (*Result, error) {
	description := ds.Describe(5)

	reply, err := s.llm.Generate(ctx, fmt.Sprintf(chartPromptTemplate, description, query))
	if err != nil {
		return nil, err
	}

	spec, err := ParseChartSpec(reply)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(ds); err != nil {
		return nil, err
	}

	pngBytes, err := s.renderer.Render(spec, ds)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[CHART] rendered %s chart (%d bytes)", spec.ChartType, len(pngBytes))

	result := &Result{PNG: pngBytes}
	if !explain {
		return result, nil
	}

	chartData, err := s.selectData(ctx, ds, description, query)
	if err != nil {
		return nil, err
	}
	result.ChartData = chartData

	explanation, err := s.llm.Generate(ctx, fmt.Sprintf(explainPromptTemplate, query, chartData))
	if err != nil {
		return nil, err
	}
	result.Explanation = explanation
	return result, nil
}

// selectData runs the selection DSL round trip: ask the model what data
// matters, execute that selection here, and return it as JSON.
func (s *Service) selectData(ctx context.Context, ds *Dataset, description, query string) (string, error) {
	reply, err := s.llm.Generate(ctx, fmt.Sprintf(selectionPromptTemplate, description, query))
	if err != nil {
		return "", err
	}

	selection, err := ParseSelectionSpec(reply)
	if err != nil {
		return "", err
	}

	rows, err := selection.Execute(ds)
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode chart data: %w", err)
	}
	return string(encoded), nil
}
