// internal/bridge/bridge.go
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"montage/internal/plan"
	"montage/internal/selector"
)

// State of the tool-execution loop. Termination is explicit: the loop is a
// small state machine with an iteration budget rather than a bare counter.
type State string

const (
	StateAwaitingProposal State = "awaiting-proposal"
	StateExecuting        State = "executing"
	StateFinished         State = "finished"
)

// DefaultRoundBudget bounds the number of tool rounds in one user turn.
const DefaultRoundBudget = 8

// Turn is one entry of the conversation transcript fed to the model.
type Turn struct {
	Role    string `json:"role"` // "user", "assistant", "tool"
	Content string `json:"content"`
}

// ToolCall is one tool invocation proposed by the model.
type ToolCall struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// Proposal is the model's next step: either a tool call or, with Call nil,
// a final message ending the turn.
type Proposal struct {
	Call    *ToolCall `json:"call,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ModelClient produces proposals. It is injected explicitly so tests run
// against fakes and no global client state exists.
type ModelClient interface {
	Propose(ctx context.Context, transcript []Turn, tools []Tool) (*Proposal, error)
}

// PlanExecutor is the slice of the engine the bridge needs.
type PlanExecutor interface {
	ExecutePlan(compositionID string, p plan.EditPlan, resolvedElementID string) (plan.Result, error)
}

// Step records one executed tool round.
type Step struct {
	Tool    string      `json:"tool"`
	Result  plan.Result `json:"result"`
	Version int         `json:"version,omitempty"`
}

// Outcome summarizes a finished loop, including partial completion when
// the budget ran out or a selector needs disambiguation.
type Outcome struct {
	State                 State             `json:"state"`
	Steps                 []Step            `json:"steps"`
	Message               string            `json:"message,omitempty"`
	BudgetExhausted       bool              `json:"budgetExhausted,omitempty"`
	NeedsDisambiguation   bool              `json:"needsDisambiguation,omitempty"`
	DisambiguationOptions []selector.Option `json:"disambiguationOptions,omitempty"`
}

// Bridge drives the model's tool proposals against the engine, one edit
// plan per round, strictly sequentially.
type Bridge struct {
	client ModelClient
	engine PlanExecutor
	budget int
}

// New creates a bridge. A non-positive budget falls back to
// DefaultRoundBudget.
func New(client ModelClient, engine PlanExecutor, budget int) *Bridge {
	if budget <= 0 {
		budget = DefaultRoundBudget
	}
	return &Bridge{client: client, engine: engine, budget: budget}
}

// Run executes one user turn: the model proposes tool calls, the bridge
// translates and executes each against the composition, feeding results
// back, until the model finishes, a selector needs a human choice, or the
// round budget is exhausted.
func (b *Bridge) Run(ctx context.Context, compositionID, userRequest string) (*Outcome, error) {
	transcript := []Turn{{Role: "user", Content: userRequest}}
	outcome := &Outcome{State: StateAwaitingProposal, Steps: []Step{}}
	tools := Catalog()

	for round := 0; round < b.budget; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		proposal, err := b.client.Propose(ctx, transcript, tools)
		if err != nil {
			return nil, fmt.Errorf("model proposal: %w", err)
		}
		if proposal.Call == nil {
			outcome.State = StateFinished
			outcome.Message = proposal.Message
			return outcome, nil
		}

		outcome.State = StateExecuting
		step, halt := b.executeCall(compositionID, proposal.Call, outcome)
		if step != nil {
			outcome.Steps = append(outcome.Steps, *step)
		}
		if halt {
			outcome.State = StateFinished
			return outcome, nil
		}

		transcript = append(transcript, Turn{Role: "assistant", Content: describeCall(proposal.Call)})
		transcript = append(transcript, Turn{Role: "tool", Content: feedback(step)})
		outcome.State = StateAwaitingProposal
	}

	outcome.State = StateFinished
	outcome.BudgetExhausted = true
	outcome.Message = fmt.Sprintf("Stopped after %d tool rounds", b.budget)
	return outcome, nil
}

// executeCall runs one proposed call. The second return value reports
// whether the loop must stop (disambiguation needs a human).
func (b *Bridge) executeCall(compositionID string, call *ToolCall, outcome *Outcome) (*Step, bool) {
	editPlan, resolvedID, err := Translate(call.Tool, call.Arguments)
	if err != nil {
		// Bad arguments are conversation material, not a crash.
		log.Printf("bridge: translate %s: %v", call.Tool, err)
		return &Step{Tool: call.Tool, Result: plan.Result{Success: false, Error: err.Error()}}, false
	}

	result, err := b.engine.ExecutePlan(compositionID, editPlan, resolvedID)
	if err != nil {
		return &Step{Tool: call.Tool, Result: plan.Result{Success: false, Error: err.Error()}}, false
	}

	step := &Step{Tool: call.Tool, Result: result}
	if result.NeedsDisambiguation {
		outcome.NeedsDisambiguation = true
		outcome.DisambiguationOptions = result.DisambiguationOptions
		outcome.Message = "Multiple elements match; pick one and resubmit with resolvedElementId"
		return step, true
	}
	return step, false
}

func describeCall(call *ToolCall) string {
	return fmt.Sprintf("%s(%s)", call.Tool, string(call.Arguments))
}

func feedback(step *Step) string {
	if step == nil {
		return "no result"
	}
	if step.Result.Success {
		return step.Result.Receipt
	}
	return "error: " + step.Result.Error
}
