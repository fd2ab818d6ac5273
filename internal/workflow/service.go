// Package workflow runs optimisation workflows: a started workflow executes
// the analysis pipeline for its product, recording one task per stage and
// broadcasting progress to WebSocket subscribers as each task finishes.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/synapse-data/product.intel/internal/db"
	"github.com/synapse-data/product.intel/internal/monitoring"
	"github.com/synapse-data/product.intel/internal/pipeline"
	"github.com/synapse-data/product.intel/internal/wshub"
)

// DefaultAgentTimeout bounds a single remote agent invocation.
const DefaultAgentTimeout = 30 * time.Second

// Task statuses.
const (
	TaskPending   = "pending"
	TaskRunning   = "in_progress"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// Event types broadcast over the hub.
const (
	EventTaskStarted       = "task_started"
	EventTaskCompleted     = "task_completed"
	EventWorkflowCompleted = "workflow_completed"
)

// Service coordinates workflow execution.
type Service struct {
	db        *db.DB
	optimizer *pipeline.Optimizer
	hub       *wshub.Hub

	agentClient  *http.Client
	agentTimeout time.Duration

	wg sync.WaitGroup
}

// NewService wires the executor to its storage, pipeline, and event fan-out.
func NewService(database *db.DB, opt *pipeline.Optimizer, hub *wshub.Hub) *Service {
	return &Service{
		db:           database,
		optimizer:    opt,
		hub:          hub,
		agentClient:  &http.Client{Timeout: DefaultAgentTimeout},
		agentTimeout: DefaultAgentTimeout,
	}
}

// SetAgentTimeout overrides the remote agent invocation timeout.
func (s *Service) SetAgentTimeout(d time.Duration) {
	s.agentTimeout = d
	s.agentClient.Timeout = d
}

// Wait blocks until all background workflow runs have finished. Used during
// shutdown so in-flight runs record their terminal status.
func (s *Service) Wait() { s.wg.Wait() }

// Start transitions a workflow to running and executes it in the background.
// The product ID is read from the workflow goal ("product:<id>") or passed
// explicitly via productID.
func (s *Service) Start(ctx context.Context, workflowID int, productID any) error {
	w, err := s.db.GetWorkflow(workflowID)
	if err != nil {
		return err
	}
	if w.Status == db.WorkflowRunning {
		return fmt.Errorf("workflow %d is already running", workflowID)
	}

	if productID == nil {
		productID = productIDFromGoal(w.Goal)
	}

	if err := s.db.UpdateWorkflowStatus(workflowID, db.WorkflowRunning); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, workflowID, productID)
	}()
	return nil
}

// productIDFromGoal extracts a trailing "product:<id>" hint from the goal
// text, if present. Returns the raw string so the pipeline applies its own
// product ID validation.
func productIDFromGoal(goal string) any {
	for _, field := range strings.Fields(goal) {
		if rest, ok := strings.CutPrefix(field, "product:"); ok {
			return rest
		}
	}
	return goal
}

// run executes the pipeline stage by stage, persisting one task per stage and
// broadcasting progress. Stage failures do not halt the run; the pipeline
// carries its error forward and the workflow records the terminal status.
func (s *Service) run(ctx context.Context, workflowID int, productID any) {
	agents, err := s.db.ListAgents()
	if err != nil {
		monitoring.Logf("workflow %d: failed to list agents: %v", workflowID, err)
	}
	assignments := assignAgents(agents)

	var taskErr error
	final := s.optimizer.RunStages(ctx, productID, func(stage string, delta pipeline.State) {
		task := &db.Task{
			WorkflowID:  workflowID,
			Name:        stage,
			Description: fmt.Sprintf("Run the %s stage for product %v", stage, productID),
			Status:      TaskRunning,
			InputData:   map[string]any{"product_id": fmt.Sprintf("%v", productID)},
		}
		agent := assignments[stage]
		if agent != nil {
			task.AgentID = &agent.ID
		}
		if err := s.db.CreateTask(task); err != nil {
			monitoring.Logf("workflow %d: failed to create task for %s: %v", workflowID, stage, err)
			return
		}

		s.hub.Broadcast(wshub.Event{
			Type:       EventTaskStarted,
			WorkflowID: workflowID,
			Data:       map[string]any{"task_id": task.ID, "stage": stage},
		})

		if agent != nil {
			s.markAgent(agent, db.AgentBusy, &task.ID)
		}

		status := TaskCompleted
		output := map[string]any(delta)
		if msg, failed := delta.Err(); failed {
			status = TaskFailed
			output = map[string]any{"error": msg}
			taskErr = fmt.Errorf("%s", msg)
		}
		if agent != nil {
			if err := s.invokeAgent(ctx, agent, stage, delta); err != nil {
				monitoring.Logf("workflow %d: agent %d failed on %s: %v", workflowID, agent.ID, stage, err)
				s.markAgent(agent, db.AgentError, nil)
			} else {
				s.markAgent(agent, db.AgentIdle, nil)
			}
		}

		if err := s.db.FinishTask(task.ID, status, output); err != nil {
			monitoring.Logf("workflow %d: failed to finish task %d: %v", workflowID, task.ID, err)
		}

		s.hub.Broadcast(wshub.Event{
			Type:       EventTaskCompleted,
			WorkflowID: workflowID,
			Data:       map[string]any{"task_id": task.ID, "stage": stage, "status": status},
		})
	})

	status := db.WorkflowCompleted
	if _, failed := final.Err(); failed || taskErr != nil {
		status = db.WorkflowFailed
	}
	if err := s.db.UpdateWorkflowStatus(workflowID, status); err != nil {
		monitoring.Logf("workflow %d: failed to record status %s: %v", workflowID, status, err)
	}

	s.hub.Broadcast(wshub.Event{
		Type:       EventWorkflowCompleted,
		WorkflowID: workflowID,
		Data:       map[string]any{"status": status, "result": map[string]any(final)},
	})
	monitoring.Logf("workflow %d: finished with status %s", workflowID, status)
}

// assignAgents maps pipeline stages to registered agents by type. Stages
// without a matching agent run unassigned.
func assignAgents(agents []db.Agent) map[string]*db.Agent {
	byType := make(map[string]*db.Agent)
	for i := range agents {
		if _, ok := byType[agents[i].AgentType]; !ok {
			byType[agents[i].AgentType] = &agents[i]
		}
	}
	return map[string]*db.Agent{
		pipeline.StageFetch:     byType[db.AgentDataGatherer],
		pipeline.StageForecast:  byType[db.AgentAnalyzer],
		pipeline.StagePrice:     byType[db.AgentAnalyzer],
		pipeline.StageInventory: byType[db.AgentAnalyzer],
		pipeline.StageSummary:   byType[db.AgentReportGenerator],
	}
}

func (s *Service) markAgent(agent *db.Agent, status string, taskID *int) {
	if err := s.db.UpdateAgentStatus(agent.ID, status, taskID); err != nil {
		monitoring.Logf("failed to update agent %d status: %v", agent.ID, err)
	}
}

// invokeAgent posts the stage delta to the agent's endpoint, when one is
// configured. Agents without an endpoint are bookkeeping-only and always
// succeed. One attempt, bounded by the agent timeout.
func (s *Service) invokeAgent(ctx context.Context, agent *db.Agent, stage string, delta pipeline.State) error {
	if agent.EndpointURL == nil || *agent.EndpointURL == "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{"stage": stage, "state": map[string]any(delta)})
	if err != nil {
		return fmt.Errorf("failed to encode agent payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.agentTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *agent.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.agentClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("agent returned %s", resp.Status)
	}
	return nil
}
