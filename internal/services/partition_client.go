package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"finchat-backend/internal/models"
)

// PartitionClient talks to an unstructured-compatible partitioning API.
// The hi_res strategy runs layout detection so tables come back with their
// HTML structure intact.
type PartitionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewPartitionClient creates a client for the partitioning service.
func NewPartitionClient(baseURL, apiKey string, logger *log.Logger) *PartitionClient {
	return &PartitionClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			// hi_res layout detection on a long report takes a while.
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// partitionElement is the wire shape of one element in the API response.
type partitionElement struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		PageNumber int    `json:"page_number"`
		TextAsHTML string `json:"text_as_html"`
		Filename   string `json:"filename"`
	} `json:"metadata"`
}

// Partition uploads a PDF and returns its typed elements in document order.
func (c *PartitionClient) Partition(ctx context.Context, filename string, content io.Reader) ([]models.Element, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := writer.WriteField("strategy", "hi_res"); err != nil {
		return nil, fmt.Errorf("failed to write strategy field: %w", err)
	}
	if err := writer.WriteField("pdf_infer_table_structure", "true"); err != nil {
		return nil, fmt.Errorf("failed to write table structure field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/general/v0/general", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create partition request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("unstructured-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewUpstreamError("partition", fmt.Sprintf("partition service unreachable: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, models.NewUpstreamError("partition",
			fmt.Sprintf("partition service returned %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var wire []partitionElement
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, models.NewUpstreamError("partition", "failed to decode partition response", err)
	}

	elements := make([]models.Element, len(wire))
	for i, el := range wire {
		elements[i] = models.Element{
			Category:   el.Type,
			Text:       el.Text,
			HTML:       el.Metadata.TextAsHTML,
			PageNumber: el.Metadata.PageNumber,
			Metadata: map[string]string{
				"filename":    el.Metadata.Filename,
				"page_number": fmt.Sprintf("%d", el.Metadata.PageNumber),
			},
		}
	}

	c.logger.Printf("[PARTITION] %s produced %d elements in %v", filename, len(elements), time.Since(start))
	return elements, nil
}

// MergePages groups elements into per-page text blocks. Table elements
// contribute a Markdown rendering of their HTML so row structure survives
// chunking. Later elements on a page win metadata conflicts.
func MergePages(elements []models.Element) []models.Page {
	byNumber := make(map[int]*models.Page)
	for _, el := range elements {
		text := el.Text
		if el.Category == models.ElementCategoryTable && el.HTML != "" {
			if md, err := HTMLTableToMarkdown(el.HTML); err == nil && md != "" {
				text = md
			}
		}

		page, ok := byNumber[el.PageNumber]
		if !ok {
			page = &models.Page{Number: el.PageNumber, Metadata: make(map[string]string)}
			byNumber[el.PageNumber] = page
		}
		if page.Text != "" && text != "" {
			page.Text += "\n"
		}
		page.Text += text
		for k, v := range el.Metadata {
			page.Metadata[k] = v
		}
	}

	pages := make([]models.Page, 0, len(byNumber))
	for _, page := range byNumber {
		pages = append(pages, *page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages
}
