package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/taskdeck/internal/model"
)

// TaskStore owns task records. Every read and write is scoped by the
// owner's user ID: a task belonging to someone else is indistinguishable
// from one that does not exist.
type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var deadline sql.NullTime
	var completed int

	err := scanner.Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Category,
		&deadline, &completed, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Completed = completed != 0
	if deadline.Valid {
		t.Deadline = &deadline.Time
	}
	return &t, nil
}

const taskCols = `id, user_id, title, description, category, deadline, completed, created_at`

func (s *TaskStore) Create(ownerID, title, description, category string, deadline *time.Time) (*model.Task, error) {
	var dl sql.NullTime
	if deadline != nil {
		dl = sql.NullTime{Time: *deadline, Valid: true}
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, user_id, title, description, category, deadline) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, title, description, category, dl,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(ownerID, id)
}

// ListByOwner returns one page of the owner's tasks, newest first, plus
// the owner's total task count for pagination. created_at has second
// resolution, so rowid breaks ties between inserts in the same second.
func (s *TaskStore) ListByOwner(ownerID string, page, limit int) ([]model.Task, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		ownerID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE user_id = ?`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	return tasks, total, nil
}

func (s *TaskStore) GetByID(ownerID, id string) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Update replaces the task's fields in a single conditional statement:
// the ownership filter and the mutation are one UPDATE, so the task
// cannot be deleted or reassigned between check and write. Title is
// always replaced; nil optional fields keep their stored values.
func (s *TaskStore) Update(ownerID, id, title string, description, category *string, deadline *time.Time, completed *bool) (*model.Task, error) {
	var dl sql.NullTime
	if deadline != nil {
		dl = sql.NullTime{Time: *deadline, Valid: true}
	}
	var done any
	if completed != nil {
		if *completed {
			done = 1
		} else {
			done = 0
		}
	}

	result, err := s.db.Exec(
		`UPDATE tasks SET
			title = ?,
			description = COALESCE(?, description),
			category = COALESCE(?, category),
			deadline = COALESCE(?, deadline),
			completed = COALESCE(?, completed)
		 WHERE id = ? AND user_id = ?`,
		title, description, category, dl, done, id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ownerID, id)
}

// MarkCompleted sets completed on the owner's task, leaving every other
// field untouched. Filter and mutation are a single statement.
func (s *TaskStore) MarkCompleted(ownerID, id string) (*model.Task, error) {
	result, err := s.db.Exec(
		`UPDATE tasks SET completed = 1 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark task completed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ownerID, id)
}

// Delete removes the owner's task. It reports false when no matching
// owned task exists.
func (s *TaskStore) Delete(ownerID, id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
