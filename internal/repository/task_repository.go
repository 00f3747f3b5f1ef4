package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/models"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetByUserID(ctx context.Context, userID string, completed *bool, limit, offset int) ([]models.Task, int, error)
	GetAllByUserID(ctx context.Context, userID string) ([]models.Task, error)
	GetAllWithOwner(ctx context.Context, search string, completed *bool, limit, offset int) ([]models.TaskWithOwner, int, error)
	GetCompletedBetween(ctx context.Context, from, to time.Time) ([]models.Task, error)
	CountStats(ctx context.Context, today time.Time) (total, completed, overdue int, err error)
	Update(ctx context.Context, task *models.Task) error
	SetCompleted(ctx context.Context, id string, completed bool, completedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	*PostgresRepository
}

func NewTaskRepository(db *sql.DB, logger zerolog.Logger) TaskRepository {
	return &taskRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const taskColumns = `id, user_id, title, COALESCE(description, ''), due_date, completed, completed_at, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }, task *models.Task) error {
	return row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Completed,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, due_date, completed, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Completed,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)

	return err
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task := &models.Task{}
	err := scanTask(r.db.QueryRowContext(ctx, query, id), task)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return task, err
}

func (r *taskRepository) GetByUserID(ctx context.Context, userID string, completed *bool, limit, offset int) ([]models.Task, int, error) {
	countQuery := `
		SELECT COUNT(*) FROM tasks
		WHERE user_id = $1 AND ($2::boolean IS NULL OR completed = $2)
	`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID, completed).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND ($2::boolean IS NULL OR completed = $2)
		ORDER BY due_date ASC, created_at ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, userID, completed, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *taskRepository) GetAllByUserID(ctx context.Context, userID string) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *taskRepository) GetAllWithOwner(ctx context.Context, search string, completed *bool, limit, offset int) ([]models.TaskWithOwner, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM tasks t
		JOIN users u ON t.user_id = u.id
		WHERE ($1 = '' OR t.title ILIKE '%' || $1 || '%' OR u.name ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%')
		  AND ($2::boolean IS NULL OR t.completed = $2)
	`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, search, completed).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			t.id, t.user_id, t.title, COALESCE(t.description, ''), t.due_date, t.completed, t.completed_at, t.created_at, t.updated_at,
			u.name AS owner_name, u.email AS owner_email
		FROM tasks t
		JOIN users u ON t.user_id = u.id
		WHERE ($1 = '' OR t.title ILIKE '%' || $1 || '%' OR u.name ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%')
		  AND ($2::boolean IS NULL OR t.completed = $2)
		ORDER BY t.created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, search, completed, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []models.TaskWithOwner
	for rows.Next() {
		var t models.TaskWithOwner
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.DueDate,
			&t.Completed,
			&t.CompletedAt,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.OwnerName,
			&t.OwnerEmail,
		)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *taskRepository) GetCompletedBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE completed AND completed_at >= $1 AND completed_at < $2
		ORDER BY completed_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *taskRepository) CountStats(ctx context.Context, today time.Time) (int, int, int, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN completed THEN 1 END),
			COUNT(CASE WHEN NOT completed AND due_date < $1 THEN 1 END)
		FROM tasks
	`

	var total, completed, overdue int
	err := r.db.QueryRowContext(ctx, query, today).Scan(&total, &completed, &overdue)
	return total, completed, overdue, err
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = NULLIF($2, ''), due_date = $3, updated_at = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.DueDate,
		task.UpdatedAt,
		task.ID,
	)

	return err
}

func (r *taskRepository) SetCompleted(ctx context.Context, id string, completed bool, completedAt *time.Time) error {
	query := `
		UPDATE tasks
		SET completed = $1, completed_at = $2, updated_at = $3
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query, completed, completedAt, time.Now().UTC(), id)
	return err
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tasks WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func collectTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
