package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/repo"
)

// memStore is an in-memory backing for every repository plus the transaction
// runner. InTx snapshots the whole store and restores it when fn fails,
// matching the all-or-nothing contract of the real runner.
type memStore struct {
	statuses     map[string]domain.Status
	edges        map[string]domain.TransitionEdge
	tasks        map[string]domain.Task
	audit        []domain.AuditRecord
	nextRecordID int64

	// popped on each UpdateStatus call to simulate lost CAS races
	updateStatusErrs []error
}

func newMemStore() *memStore {
	return &memStore{
		statuses: map[string]domain.Status{},
		edges:    map[string]domain.TransitionEdge{},
		tasks:    map[string]domain.Task{},
	}
}

func edgeKey(orgID, fromID, toID string) string {
	return orgID + "|" + fromID + "|" + toID
}

func (m *memStore) repos() repo.Repositories {
	return repo.Repositories{
		Statuses:    memStatuses{m},
		Transitions: memTransitions{m},
		Tasks:       memTasks{m},
		Audit:       memAudit{m},
	}
}

func (m *memStore) InTx(ctx context.Context, fn func(r repo.Repositories) error) error {
	statuses := make(map[string]domain.Status, len(m.statuses))
	for k, v := range m.statuses {
		statuses[k] = v
	}
	edges := make(map[string]domain.TransitionEdge, len(m.edges))
	for k, v := range m.edges {
		edges[k] = v
	}
	tasks := make(map[string]domain.Task, len(m.tasks))
	for k, v := range m.tasks {
		tasks[k] = v
	}
	audit := append([]domain.AuditRecord(nil), m.audit...)
	nextRecordID := m.nextRecordID

	if err := fn(m.repos()); err != nil {
		m.statuses = statuses
		m.edges = edges
		m.tasks = tasks
		m.audit = audit
		m.nextRecordID = nextRecordID
		return err
	}
	return nil
}

type memStatuses struct{ s *memStore }

func (m memStatuses) Create(ctx context.Context, status domain.Status) error {
	for _, existing := range m.s.statuses {
		if existing.OrganizationID == status.OrganizationID && existing.Name == status.Name {
			return domain.ErrDuplicateName
		}
	}
	m.s.statuses[status.ID] = status
	return nil
}

func (m memStatuses) Get(ctx context.Context, orgID, id string) (domain.Status, error) {
	status, ok := m.s.statuses[id]
	if !ok || status.OrganizationID != orgID {
		return domain.Status{}, repo.ErrNotFound
	}
	return status, nil
}

func (m memStatuses) GetDefault(ctx context.Context, orgID string) (domain.Status, error) {
	for _, status := range m.s.statuses {
		if status.OrganizationID == orgID && status.IsDefault {
			return status, nil
		}
	}
	return domain.Status{}, repo.ErrNotFound
}

func (m memStatuses) ListActive(ctx context.Context, orgID string) ([]domain.Status, error) {
	out := make([]domain.Status, 0)
	for _, status := range m.s.statuses {
		if status.OrganizationID == orgID && status.IsActive {
			out = append(out, status)
		}
	}
	sortStatuses(out)
	return out, nil
}

func (m memStatuses) ClearDefault(ctx context.Context, orgID string) error {
	for id, status := range m.s.statuses {
		if status.OrganizationID == orgID && status.IsDefault {
			status.IsDefault = false
			m.s.statuses[id] = status
		}
	}
	return nil
}

func (m memStatuses) SetActive(ctx context.Context, orgID, id string, active bool) error {
	status, ok := m.s.statuses[id]
	if !ok || status.OrganizationID != orgID {
		return repo.ErrNotFound
	}
	status.IsActive = active
	m.s.statuses[id] = status
	return nil
}

type memTransitions struct{ s *memStore }

func (m memTransitions) Create(ctx context.Context, edge domain.TransitionEdge) error {
	key := edgeKey(edge.OrganizationID, edge.FromStatusID, edge.ToStatusID)
	if _, ok := m.s.edges[key]; ok {
		return domain.ErrDuplicateEdge
	}
	m.s.edges[key] = edge
	return nil
}

func (m memTransitions) Get(ctx context.Context, orgID, fromID, toID string) (domain.TransitionEdge, error) {
	edge, ok := m.s.edges[edgeKey(orgID, fromID, toID)]
	if !ok {
		return domain.TransitionEdge{}, repo.ErrNotFound
	}
	return edge, nil
}

func (m memTransitions) SetActive(ctx context.Context, orgID, fromID, toID string, active bool) error {
	key := edgeKey(orgID, fromID, toID)
	edge, ok := m.s.edges[key]
	if !ok {
		return repo.ErrNotFound
	}
	edge.IsActive = active
	m.s.edges[key] = edge
	return nil
}

func (m memTransitions) ExistsActive(ctx context.Context, orgID, fromID, toID string) (bool, error) {
	edge, ok := m.s.edges[edgeKey(orgID, fromID, toID)]
	return ok && edge.IsActive, nil
}

func (m memTransitions) ListOutgoing(ctx context.Context, orgID, fromID string) ([]domain.Status, error) {
	out := make([]domain.Status, 0)
	for _, edge := range m.s.edges {
		if edge.OrganizationID != orgID || edge.FromStatusID != fromID || !edge.IsActive {
			continue
		}
		status, ok := m.s.statuses[edge.ToStatusID]
		if ok && status.IsActive {
			out = append(out, status)
		}
	}
	sortStatuses(out)
	return out, nil
}

type memTasks struct{ s *memStore }

func (m memTasks) Create(ctx context.Context, task domain.Task) error {
	if _, ok := m.s.tasks[task.ID]; ok {
		return fmt.Errorf("task already exists: %s", task.ID)
	}
	m.s.tasks[task.ID] = task
	return nil
}

func (m memTasks) Get(ctx context.Context, id string) (domain.Task, error) {
	task, ok := m.s.tasks[id]
	if !ok {
		return domain.Task{}, repo.ErrNotFound
	}
	return task, nil
}

func (m memTasks) UpdateStatus(ctx context.Context, taskID, toStatusID string, expectedVersion int64) error {
	if len(m.s.updateStatusErrs) > 0 {
		err := m.s.updateStatusErrs[0]
		m.s.updateStatusErrs = m.s.updateStatusErrs[1:]
		if err != nil {
			return err
		}
	}
	task, ok := m.s.tasks[taskID]
	if !ok {
		return repo.ErrNotFound
	}
	if task.StatusVersion != expectedVersion {
		return domain.ErrConcurrentModification
	}
	status := toStatusID
	task.CurrentStatusID = &status
	task.StatusVersion++
	m.s.tasks[taskID] = task
	return nil
}

type memAudit struct{ s *memStore }

func (m memAudit) Append(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	record.ChangedAt = record.ChangedAt.UTC()
	if err := record.Validate(); err != nil {
		return domain.AuditRecord{}, err
	}
	if strings.TrimSpace(record.IntegritySHA256) == "" {
		integrity, err := domain.ComputeIntegritySHA256(record)
		if err != nil {
			return domain.AuditRecord{}, err
		}
		record.IntegritySHA256 = integrity
	}
	m.s.nextRecordID++
	record.RecordID = m.s.nextRecordID
	m.s.audit = append(m.s.audit, record)
	return record, nil
}

func (m memAudit) History(ctx context.Context, taskID string) ([]domain.AuditRecord, error) {
	out := make([]domain.AuditRecord, 0)
	for _, record := range m.s.audit {
		if record.TaskID == taskID {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ChangedAt.Before(out[j].ChangedAt)
		}
		return out[i].RecordID < out[j].RecordID
	})
	return out, nil
}

func sortStatuses(statuses []domain.Status) {
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].OrderIndex != statuses[j].OrderIndex {
			return statuses[i].OrderIndex < statuses[j].OrderIndex
		}
		return statuses[i].ID < statuses[j].ID
	})
}
