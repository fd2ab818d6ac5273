package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Agent statuses.
const (
	AgentIdle    = "idle"
	AgentBusy    = "busy"
	AgentError   = "error"
	AgentOffline = "offline"
)

// Agent types.
const (
	AgentCoordinator     = "coordinator"
	AgentDataGatherer    = "data_gatherer"
	AgentAnalyzer        = "analyzer"
	AgentReportGenerator = "report_generator"
)

// Workflow statuses.
const (
	WorkflowCreated   = "created"
	WorkflowRunning   = "running"
	WorkflowCompleted = "completed"
	WorkflowFailed    = "failed"
)

// Agent is a registered worker in the collaboration registry.
type Agent struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	AgentType     string    `json:"agent_type"`
	Description   []string  `json:"description"`
	Status        string    `json:"status"`
	Capabilities  []string  `json:"capabilities"`
	CurrentTaskID *int      `json:"current_task_id"`
	EndpointURL   *string   `json:"endpoint_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// Workflow groups the tasks of one optimisation run request.
type Workflow struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Goal        string    `json:"goal"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task is one unit of work within a workflow, mapped 1:1 onto a pipeline
// stage when the workflow is started.
type Task struct {
	ID          int            `json:"id"`
	WorkflowID  int            `json:"workflow_id"`
	AgentID     *int           `json:"agent_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	InputData   map[string]any `json:"input_data"`
	OutputData  map[string]any `json:"output_data"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateAgent registers a new agent.
func (db *DB) CreateAgent(agent *Agent) error {
	description, err := json.Marshal(emptyIfNil(agent.Description))
	if err != nil {
		return fmt.Errorf("failed to encode description: %w", err)
	}
	capabilities, err := json.Marshal(emptyIfNil(agent.Capabilities))
	if err != nil {
		return fmt.Errorf("failed to encode capabilities: %w", err)
	}
	if agent.Status == "" {
		agent.Status = AgentIdle
	}

	result, err := db.Exec(
		`INSERT INTO agents (name, agent_type, description, status, capabilities, endpoint_url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		agent.Name, agent.AgentType, string(description), agent.Status,
		string(capabilities), agent.EndpointURL,
	)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	agent.ID = int(id)
	return nil
}

// ListAgents returns all registered agents in registration order.
func (db *DB) ListAgents() ([]Agent, error) {
	rows, err := db.Query(
		`SELECT id, name, agent_type, description, status, capabilities,
		        current_task_id, endpoint_url, created_at
		 FROM agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

// GetAgent retrieves one agent by ID.
func (db *DB) GetAgent(id int) (*Agent, error) {
	row := db.QueryRow(
		`SELECT id, name, agent_type, description, status, capabilities,
		        current_task_id, endpoint_url, created_at
		 FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*Agent, error) {
	var agent Agent
	var description, capabilities string
	var currentTaskID sql.NullInt64
	var endpointURL sql.NullString
	var createdAtUnix int64

	err := row.Scan(
		&agent.ID, &agent.Name, &agent.AgentType, &description, &agent.Status,
		&capabilities, &currentTaskID, &endpointURL, &createdAtUnix,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}

	if err := json.Unmarshal([]byte(description), &agent.Description); err != nil {
		return nil, fmt.Errorf("failed to decode description: %w", err)
	}
	if err := json.Unmarshal([]byte(capabilities), &agent.Capabilities); err != nil {
		return nil, fmt.Errorf("failed to decode capabilities: %w", err)
	}
	if currentTaskID.Valid {
		v := int(currentTaskID.Int64)
		agent.CurrentTaskID = &v
	}
	if endpointURL.Valid {
		agent.EndpointURL = &endpointURL.String
	}
	agent.CreatedAt = time.Unix(createdAtUnix, 0)
	return &agent, nil
}

// UpdateAgentStatus sets an agent's status and current task.
func (db *DB) UpdateAgentStatus(id int, status string, currentTaskID *int) error {
	_, err := db.Exec(
		"UPDATE agents SET status = ?, current_task_id = ? WHERE id = ?",
		status, currentTaskID, id)
	if err != nil {
		return fmt.Errorf("failed to update agent status: %w", err)
	}
	return nil
}

// CreateWorkflow inserts a new workflow in the created state.
func (db *DB) CreateWorkflow(workflow *Workflow) error {
	if workflow.Status == "" {
		workflow.Status = WorkflowCreated
	}
	result, err := db.Exec(
		"INSERT INTO workflows (name, description, goal, status) VALUES (?, ?, ?, ?)",
		workflow.Name, workflow.Description, workflow.Goal, workflow.Status)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	workflow.ID = int(id)
	return nil
}

// ListWorkflows returns all workflows, newest first.
func (db *DB) ListWorkflows() ([]Workflow, error) {
	rows, err := db.Query(
		"SELECT id, name, description, goal, status, created_at FROM workflows ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []Workflow
	for rows.Next() {
		var w Workflow
		var createdAtUnix int64
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.Goal, &w.Status, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		w.CreatedAt = time.Unix(createdAtUnix, 0)
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

// GetWorkflow retrieves one workflow by ID; returns sql.ErrNoRows when the
// workflow does not exist.
func (db *DB) GetWorkflow(id int) (*Workflow, error) {
	var w Workflow
	var createdAtUnix int64
	err := db.QueryRow(
		"SELECT id, name, description, goal, status, created_at FROM workflows WHERE id = ?", id,
	).Scan(&w.ID, &w.Name, &w.Description, &w.Goal, &w.Status, &createdAtUnix)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	w.CreatedAt = time.Unix(createdAtUnix, 0)
	return &w, nil
}

// UpdateWorkflowStatus transitions a workflow's status.
func (db *DB) UpdateWorkflowStatus(id int, status string) error {
	_, err := db.Exec("UPDATE workflows SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update workflow status: %w", err)
	}
	return nil
}

// CreateTask inserts a task for a workflow.
func (db *DB) CreateTask(task *Task) error {
	input, err := json.Marshal(emptyMapIfNil(task.InputData))
	if err != nil {
		return fmt.Errorf("failed to encode input data: %w", err)
	}
	if task.Status == "" {
		task.Status = "pending"
	}

	result, err := db.Exec(
		`INSERT INTO tasks (workflow_id, agent_id, name, description, status, input_data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.WorkflowID, task.AgentID, task.Name, task.Description, task.Status, string(input))
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	task.ID = int(id)
	return nil
}

// FinishTask records a task's terminal status and output.
func (db *DB) FinishTask(id int, status string, output map[string]any) error {
	encoded, err := json.Marshal(emptyMapIfNil(output))
	if err != nil {
		return fmt.Errorf("failed to encode output data: %w", err)
	}
	_, err = db.Exec("UPDATE tasks SET status = ?, output_data = ? WHERE id = ?",
		status, string(encoded), id)
	if err != nil {
		return fmt.Errorf("failed to finish task: %w", err)
	}
	return nil
}

// ListWorkflowTasks returns a workflow's tasks in creation order.
func (db *DB) ListWorkflowTasks(workflowID int) ([]Task, error) {
	rows, err := db.Query(
		`SELECT id, workflow_id, agent_id, name, description, status, input_data, output_data, created_at
		 FROM tasks WHERE workflow_id = ? ORDER BY id`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var agentID sql.NullInt64
		var input, output string
		var createdAtUnix int64
		if err := rows.Scan(&t.ID, &t.WorkflowID, &agentID, &t.Name, &t.Description,
			&t.Status, &input, &output, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if agentID.Valid {
			v := int(agentID.Int64)
			t.AgentID = &v
		}
		if err := json.Unmarshal([]byte(input), &t.InputData); err != nil {
			return nil, fmt.Errorf("failed to decode input data: %w", err)
		}
		if err := json.Unmarshal([]byte(output), &t.OutputData); err != nil {
			return nil, fmt.Errorf("failed to decode output data: %w", err)
		}
		t.CreatedAt = time.Unix(createdAtUnix, 0)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyMapIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
