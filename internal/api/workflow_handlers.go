package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/synapse-data/product.intel/internal/db"
	"github.com/synapse-data/product.intel/internal/monitoring"
)

// handleAgents serves the agent collection: GET lists, POST registers.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		agents, err := s.db.ListAgents()
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to retrieve agents: %v", err))
			return
		}
		if agents == nil {
			agents = []db.Agent{}
		}
		s.writeJSON(w, http.StatusOK, agents)

	case http.MethodPost:
		var agent db.Agent
		if err := json.NewDecoder(r.Body).Decode(&agent); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
		if agent.Name == "" || agent.AgentType == "" {
			s.writeJSONError(w, http.StatusBadRequest, "Agent name and agent_type are required")
			return
		}
		if err := s.db.CreateAgent(&agent); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create agent: %v", err))
			return
		}
		s.writeJSON(w, http.StatusCreated, agent)

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAgentByID serves GET /api/v1/agents/{id}.
func (s *Server) handleAgentByID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, ok := trailingID(w, s, r.URL.Path, "/api/v1/agents/")
	if !ok {
		return
	}

	agent, err := s.db.GetAgent(id)
	if err == sql.ErrNoRows {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Agent %d not found", id))
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve agent: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, agent)
}

// handleWorkflows serves the workflow collection: GET lists, POST creates.
// Creation requires an authenticated caller.
func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		workflows, err := s.db.ListWorkflows()
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to retrieve workflows: %v", err))
			return
		}
		if workflows == nil {
			workflows = []db.Workflow{}
		}
		s.writeJSON(w, http.StatusOK, workflows)

	case http.MethodPost:
		if _, ok := s.requireAuth(w, r); !ok {
			return
		}
		var wf db.Workflow
		if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
		if wf.Name == "" {
			s.writeJSONError(w, http.StatusBadRequest, "Workflow name is required")
			return
		}
		if err := s.db.CreateWorkflow(&wf); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create workflow: %v", err))
			return
		}
		s.writeJSON(w, http.StatusCreated, wf)

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// startRequest is the body of POST /api/v1/workflows/{id}/start. ProductID
// overrides the "product:<id>" hint in the workflow goal when given.
type startRequest struct {
	ProductID any `json:"product_id"`
}

// handleWorkflowByID routes GET /api/v1/workflows/{id},
// GET /api/v1/workflows/{id}/tasks, and POST /api/v1/workflows/{id}/start.
func (s *Server) handleWorkflowByID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/workflows/")
	idPart, action, _ := strings.Cut(rest, "/")
	id, err := strconv.Atoi(idPart)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid workflow ID")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		wf, err := s.db.GetWorkflow(id)
		if err == sql.ErrNoRows {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Workflow %d not found", id))
			return
		}
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve workflow: %v", err))
			return
		}
		s.writeJSON(w, http.StatusOK, wf)

	case action == "tasks" && r.Method == http.MethodGet:
		tasks, err := s.db.ListWorkflowTasks(id)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve tasks: %v", err))
			return
		}
		if tasks == nil {
			tasks = []db.Task{}
		}
		s.writeJSON(w, http.StatusOK, tasks)

	case action == "start" && r.Method == http.MethodPost:
		if _, ok := s.requireAuth(w, r); !ok {
			return
		}
		var req startRequest
		if r.Body != nil {
			// Body is optional; ignore decode errors on an empty body.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if err := s.workflows.Start(r.Context(), id, req.ProductID); err != nil {
			if err == sql.ErrNoRows {
				s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Workflow %d not found", id))
				return
			}
			s.writeJSONError(w, http.StatusConflict, fmt.Sprintf("Failed to start workflow: %v", err))
			return
		}
		s.writeJSON(w, http.StatusAccepted, map[string]any{
			"workflow_id": id,
			"status":      db.WorkflowRunning,
		})

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// subscribeWorkflow upgrades GET /ws/workflows/{id} to a WebSocket and keeps
// the read loop alive until the client disconnects. All writes flow through
// the hub.
func (s *Server) subscribeWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := trailingID(w, s, r.URL.Path, "/ws/workflows/")
	if !ok {
		return
	}

	conn, err := s.hub.Subscribe(w, r, id)
	if err != nil {
		// Upgrade failures already wrote an HTTP error response.
		monitoring.Logf("ws upgrade failed for workflow %d: %v", id, err)
		return
	}
	defer func() {
		s.hub.Unsubscribe(id, conn)
		conn.Close()
	}()

	// Drain client frames; the hub owns writes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// trailingID parses the numeric path segment after prefix, writing a 400 on
// failure.
func trailingID(w http.ResponseWriter, s *Server, path, prefix string) (int, bool) {
	raw := strings.TrimSuffix(strings.TrimPrefix(path, prefix), "/")
	id, err := strconv.Atoi(raw)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid ID in path")
		return 0, false
	}
	return id, true
}
