package chart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scriptedLLM replays canned replies in order and records the prompts it
// was given.
type scriptedLLM struct {
	replies []string
	prompts []string
	err     error
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("scripted llm exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func newTestChartService(llm LLM) *Service {
	return NewService(llm, NewRenderer(""), log.New(io.Discard, "", 0))
}

const barSpecReply = "```json\n" +
	`{"chart_type": "bar", "x": "quarter", "y": "revenue", "agg": "sum", "title": "Revenue"}` + "\n```"

func TestMakeChart_RendersPNG(t *testing.T) {
	llm := &scriptedLLM{replies: []string{barSpecReply}}
	svc := newTestChartService(llm)

	result, err := svc.MakeChart(context.Background(), loadSales(t), "plot revenue by quarter", false)

	assert.NoError(t, err)
	assert.Equal(t, pngMagic, result.PNG[:len(pngMagic)])
	assert.Empty(t, result.ChartData)
	assert.Empty(t, result.Explanation)
	assert.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "plot revenue by quarter")
	assert.Contains(t, llm.prompts[0], "- revenue (number)")
}

func TestMakeChart_NoSpecInReply(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"I cannot chart that."}}
	svc := newTestChartService(llm)

	_, err := svc.MakeChart(context.Background(), loadSales(t), "plot something", false)

	assert.ErrorIs(t, err, ErrNoChartSpec)
}

func TestMakeChart_LLMError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("model unavailable")}
	svc := newTestChartService(llm)

	_, err := svc.MakeChart(context.Background(), loadSales(t), "plot something", false)

	assert.ErrorContains(t, err, "model unavailable")
}

func TestMakeChart_ExplainPath(t *testing.T) {
	selectionReply := "```json\n" +
		`{"columns": ["region", "revenue"], "group_by": "region", "agg": {"revenue": "sum"}}` + "\n```"
	llm := &scriptedLLM{replies: []string{
		barSpecReply,
		selectionReply,
		"Revenue grew steadily across quarters.",
	}}
	svc := newTestChartService(llm)

	result, err := svc.MakeChart(context.Background(), loadRegions(t), "show revenue by region", true)

	assert.NoError(t, err)
	assert.Equal(t, pngMagic, result.PNG[:len(pngMagic)])
	assert.Equal(t, "Revenue grew steadily across quarters.", result.Explanation)

	var rows []map[string]any
	assert.NoError(t, json.Unmarshal([]byte(result.ChartData), &rows))
	assert.Len(t, rows, 2)
	assert.Equal(t, "north", rows[0]["region"])
	assert.Equal(t, 400.0, rows[0]["revenue"])

	// Explanation prompt carries the selected data, not the raw dataset.
	assert.Len(t, llm.prompts, 3)
	assert.Contains(t, llm.prompts[2], result.ChartData)
	assert.Contains(t, llm.prompts[2], "Do not give advice")
}

func TestMakeChart_InvalidSpecColumn(t *testing.T) {
	reply := "```json\n" +
		`{"chart_type": "bar", "x": "month", "y": "revenue", "agg": "sum"}` + "\n```"
	llm := &scriptedLLM{replies: []string{reply}}
	svc := newTestChartService(llm)

	_, err := svc.MakeChart(context.Background(), loadSales(t), "plot by month", false)

	assert.ErrorContains(t, err, `x column "month" not in dataset`)
}
