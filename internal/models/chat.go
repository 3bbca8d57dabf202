package models

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /doc-chat.
type ChatRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the body returned from POST /doc-chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// DocumentResponse is returned from POST /process-document.
type DocumentResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

// VisualizeRequest is the body of POST /visualize.
type VisualizeRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
	Explain   bool   `json:"explain,omitempty"`
}

// VisualizeExplainResponse is returned from POST /visualize when explain is
// requested: the PNG is base64-encoded next to the selected data and the
// trend explanation.
type VisualizeExplainResponse struct {
	Graph            string      `json:"graph"`
	GraphData        interface{} `json:"graph_data"`
	GraphExplanation string      `json:"graph_explanation"`
}

// BasicResponse is the generic status+message body used by small endpoints.
type BasicResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the fixed-shape error body produced by the HTTP layer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
