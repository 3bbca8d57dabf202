package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"finchat-backend/internal/models"
)

func TestPartitionClient_ParsesElements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/general/v0/general", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "hi_res", r.FormValue("strategy"))
		assert.Equal(t, "true", r.FormValue("pdf_infer_table_structure"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"type": "Title", "text": "Annual Report", "metadata": {"page_number": 1, "filename": "report.pdf"}},
			{"type": "Table", "text": "Q1 100", "metadata": {"page_number": 2, "filename": "report.pdf", "text_as_html": "<table><tr><th>Quarter</th><th>Revenue</th></tr><tr><td>Q1</td><td>100</td></tr></table>"}}
		]`))
	}))
	defer server.Close()

	client := NewPartitionClient(server.URL, "", testLogger())
	elements, err := client.Partition(context.Background(), "report.pdf", strings.NewReader("%PDF"))

	assert.NoError(t, err)
	assert.Len(t, elements, 2)
	assert.Equal(t, "Title", elements[0].Category)
	assert.Equal(t, 1, elements[0].PageNumber)
	assert.Equal(t, models.ElementCategoryTable, elements[1].Category)
	assert.Contains(t, elements[1].HTML, "<table>")
}

func TestPartitionClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewPartitionClient(server.URL, "", testLogger())
	_, err := client.Partition(context.Background(), "report.pdf", strings.NewReader("%PDF"))

	assert.Error(t, err)
	assert.Equal(t, models.KindUpstream, models.KindOf(err))
}

func TestMergePages_GroupsAndOrders(t *testing.T) {
	elements := []models.Element{
		{Category: "NarrativeText", Text: "second page text", PageNumber: 2},
		{Category: "Title", Text: "Overview", PageNumber: 1},
		{Category: "NarrativeText", Text: "first page body", PageNumber: 1},
	}

	pages := MergePages(elements)

	assert.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "Overview\nfirst page body", pages[0].Text)
	assert.Equal(t, 2, pages[1].Number)
}

func TestMergePages_TableBecomesMarkdown(t *testing.T) {
	elements := []models.Element{
		{
			Category:   models.ElementCategoryTable,
			Text:       "Quarter Revenue Q1 100",
			HTML:       "<table><tr><th>Quarter</th><th>Revenue</th></tr><tr><td>Q1</td><td>100</td></tr></table>",
			PageNumber: 1,
		},
	}

	pages := MergePages(elements)

	assert.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "| Quarter | Revenue |")
	assert.Contains(t, pages[0].Text, "| --- | --- |")
	assert.Contains(t, pages[0].Text, "| Q1 | 100 |")
}

func TestMergePages_MetadataLastWriteWins(t *testing.T) {
	elements := []models.Element{
		{Category: "NarrativeText", Text: "a", PageNumber: 1, Metadata: map[string]string{"source": "first"}},
		{Category: "NarrativeText", Text: "b", PageNumber: 1, Metadata: map[string]string{"source": "second"}},
	}

	pages := MergePages(elements)

	assert.Equal(t, "second", pages[0].Metadata["source"])
}

func TestHTMLTableToMarkdown_NoTable(t *testing.T) {
	md, err := HTMLTableToMarkdown("<p>no table here</p>")
	assert.NoError(t, err)
	assert.Empty(t, md)
}
