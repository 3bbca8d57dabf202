package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"finchat-backend/internal/models"
)

// AgentState tracks where the reasoning loop is.
type AgentState int

const (
	StateThink AgentState = iota
	StateAct
	StateObserve
	StateDone
	StateError
)

func (s AgentState) String() string {
	switch s {
	case StateThink:
		return "think"
	case StateAct:
		return "act"
	case StateObserve:
		return "observe"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	}
	return "unknown"
}

// maxParseErrors is how many malformed model replies the loop tolerates
// before giving up.
const maxParseErrors = 2

// AgentTool is an action the agent can take while answering.
type AgentTool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}

// Agent runs a bounded reason-act loop over an LLM and a fixed toolset.
// Every model turn either invokes a tool or produces the final answer, and
// the loop stops hard at maxIterations.
type Agent struct {
	llm           LLM
	maxIterations int
	logger        *log.Logger
}

// NewAgent creates an agent with a hard iteration cap.
func NewAgent(llm LLM, maxIterations int, logger *log.Logger) *Agent {
	if maxIterations <= 0 {
		maxIterations = 6
	}
	return &Agent{
		llm:           llm,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

const agentPromptTemplate = `You are a financial document analyst. Answer the question using the tools below.

Available tools:
%s
To use a tool, reply with exactly one line:
Action: <tool_name>[<input>]

When you know the answer, reply with:
Final Answer: <your answer>

Chat history:
%s

Question: %s

%s`

// Run answers a question, consulting tools as needed. chatHistory may be
// empty for the first turn of a session.
func (a *Agent) Run(ctx context.Context, question, chatHistory string, tools []AgentTool) (string, error) {
	var toolDesc strings.Builder
	byName := make(map[string]AgentTool, len(tools))
	for _, tool := range tools {
		fmt.Fprintf(&toolDesc, "- %s: %s\n", tool.Name, tool.Description)
		byName[tool.Name] = tool
	}

	var transcript strings.Builder
	parseErrors := 0
	state := StateThink

	for iter := 0; iter < a.maxIterations && state != StateDone && state != StateError; iter++ {
		if err := ctx.Err(); err != nil {
			return "", models.NewUpstreamError("agent", "agent run cancelled", err)
		}

		state = StateThink
		prompt := fmt.Sprintf(agentPromptTemplate, toolDesc.String(), chatHistory, question, transcript.String())
		reply, err := a.llm.Generate(ctx, prompt)
		if err != nil {
			return "", err
		}

		if answer, ok := parseFinalAnswer(reply); ok {
			state = StateDone
			a.logger.Printf("[AGENT] %s after %d iterations", state, iter+1)
			return answer, nil
		}

		toolName, toolInput, ok := parseAction(reply)
		if !ok {
			parseErrors++
			if parseErrors > maxParseErrors {
				state = StateError
				return "", models.NewContractError("agent", "model produced no parsable action or answer")
			}
			transcript.WriteString("Observation: reply was not a valid Action or Final Answer, try again\n")
			continue
		}

		state = StateAct
		tool, exists := byName[toolName]
		if !exists {
			transcript.WriteString(fmt.Sprintf("Action: %s[%s]\nObservation: unknown tool %q\n", toolName, toolInput, toolName))
			continue
		}

		observation, err := tool.Run(ctx, toolInput)
		if err != nil {
			a.logger.Printf("[AGENT] tool %s failed: %v", toolName, err)
			observation = fmt.Sprintf("tool error: %v", err)
		}
		state = StateObserve
		transcript.WriteString(fmt.Sprintf("Action: %s[%s]\nObservation: %s\n", toolName, toolInput, observation))
	}

	return "", models.NewContractError("agent",
		fmt.Sprintf("no final answer after %d iterations", a.maxIterations))
}

// parseFinalAnswer extracts the text after "Final Answer:".
func parseFinalAnswer(reply string) (string, bool) {
	idx := strings.Index(reply, "Final Answer:")
	if idx == -1 {
		return "", false
	}
	return strings.TrimSpace(reply[idx+len("Final Answer:"):]), true
}

// parseAction extracts the tool name and input from "Action: name[input]".
func parseAction(reply string) (name, input string, ok bool) {
	idx := strings.Index(reply, "Action:")
	if idx == -1 {
		return "", "", false
	}
	rest := reply[idx+len("Action:"):]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		rest = rest[:nl]
	}
	rest = strings.TrimSpace(rest)

	open := strings.IndexByte(rest, '[')
	close := strings.LastIndexByte(rest, ']')
	if open == -1 || close == -1 || close < open {
		return "", "", false
	}
	name = strings.TrimSpace(rest[:open])
	input = strings.TrimSpace(rest[open+1 : close])
	if name == "" {
		return "", "", false
	}
	return name, input, true
}
