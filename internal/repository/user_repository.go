package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/models"
)

// Sort options for the admin student directory. Values are whitelisted
// ORDER BY clauses; anything else falls back to SortByName.
const (
	SortByName           = "name"
	SortByMostCompleted  = "most_completed"
	SortByMostOverdue    = "most_overdue"
	SortByCompletionRate = "completion_rate"
)

var studentOrderings = map[string]string{
	SortByName:           "u.name ASC",
	SortByMostCompleted:  "completed_tasks DESC, u.name ASC",
	SortByMostOverdue:    "overdue_tasks DESC, u.name ASC",
	SortByCompletionRate: "completion_rate DESC, u.name ASC",
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetStudentsWithStats(ctx context.Context, search, sortBy string, today time.Time, limit, offset int) ([]models.UserWithStats, int, error)
	GetStudentsCreatedSince(ctx context.Context, since time.Time) ([]models.User, error)
	GetAllStudentsWithStats(ctx context.Context, today time.Time) ([]models.UserWithStats, error)
	CountAdmins(ctx context.Context) (int, error)
	CountStudents(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePhotoKey(ctx context.Context, id, photoKey string) error
	UpdateRole(ctx context.Context, id string, role models.Role) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	*PostgresRepository
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) UserRepository {
	return &userRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, photo_key, role, bio, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PhotoKey,
		user.Role,
		user.Bio,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, name, COALESCE(photo_key, ''), role, COALESCE(bio, ''), password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PhotoKey,
		&user.Role,
		&user.Bio,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, COALESCE(photo_key, ''), role, COALESCE(bio, ''), password_hash, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PhotoKey,
		&user.Role,
		&user.Bio,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

func (r *userRepository) GetStudentsWithStats(ctx context.Context, search, sortBy string, today time.Time, limit, offset int) ([]models.UserWithStats, int, error) {
	countQuery := `
		SELECT COUNT(*) FROM users u
		WHERE u.role = 'STUDENT'
		  AND ($1 = '' OR u.name ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%')
	`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	ordering, ok := studentOrderings[sortBy]
	if !ok {
		ordering = studentOrderings[SortByName]
	}

	query := `
		SELECT
			u.id, u.email, u.name, COALESCE(u.photo_key, ''), u.role, COALESCE(u.bio, ''), u.created_at, u.updated_at,
			COUNT(t.id) AS total_tasks,
			COUNT(CASE WHEN t.completed THEN 1 END) AS completed_tasks,
			COUNT(CASE WHEN NOT t.completed AND t.due_date < $2 THEN 1 END) AS overdue_tasks,
			COALESCE(ROUND(100.0 * COUNT(CASE WHEN t.completed THEN 1 END) / NULLIF(COUNT(t.id), 0)), 0)::int AS completion_rate
		FROM users u
		LEFT JOIN tasks t ON u.id = t.user_id
		WHERE u.role = 'STUDENT'
		  AND ($1 = '' OR u.name ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%')
		GROUP BY u.id
		ORDER BY ` + ordering + `
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, search, today, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	students, err := scanStudentsWithStats(rows)
	if err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *userRepository) GetAllStudentsWithStats(ctx context.Context, today time.Time) ([]models.UserWithStats, error) {
	query := `
		SELECT
			u.id, u.email, u.name, COALESCE(u.photo_key, ''), u.role, COALESCE(u.bio, ''), u.created_at, u.updated_at,
			COUNT(t.id) AS total_tasks,
			COUNT(CASE WHEN t.completed THEN 1 END) AS completed_tasks,
			COUNT(CASE WHEN NOT t.completed AND t.due_date < $1 THEN 1 END) AS overdue_tasks,
			COALESCE(ROUND(100.0 * COUNT(CASE WHEN t.completed THEN 1 END) / NULLIF(COUNT(t.id), 0)), 0)::int AS completion_rate
		FROM users u
		LEFT JOIN tasks t ON u.id = t.user_id
		WHERE u.role = 'STUDENT'
		GROUP BY u.id
		ORDER BY u.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStudentsWithStats(rows)
}

func scanStudentsWithStats(rows *sql.Rows) ([]models.UserWithStats, error) {
	var students []models.UserWithStats
	for rows.Next() {
		var s models.UserWithStats
		err := rows.Scan(
			&s.ID,
			&s.Email,
			&s.Name,
			&s.PhotoKey,
			&s.Role,
			&s.Bio,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.TotalTasks,
			&s.CompletedTasks,
			&s.OverdueTasks,
			&s.CompletionRate,
		)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *userRepository) GetStudentsCreatedSince(ctx context.Context, since time.Time) ([]models.User, error) {
	query := `
		SELECT id, email, name, COALESCE(photo_key, ''), role, COALESCE(bio, ''), password_hash, created_at, updated_at
		FROM users
		WHERE role = 'STUDENT' AND created_at >= $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Name,
			&u.PhotoKey,
			&u.Role,
			&u.Bio,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *userRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = 'ADMIN'`).Scan(&count)
	return count, err
}

func (r *userRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = 'STUDENT'`).Scan(&count)
	return count, err
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, bio = NULLIF($2, ''), updated_at = $3
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Bio,
		user.UpdatedAt,
		user.ID,
	)

	return err
}

func (r *userRepository) UpdatePhotoKey(ctx context.Context, id, photoKey string) error {
	query := `UPDATE users SET photo_key = NULLIF($1, ''), updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, photoKey, time.Now().UTC(), id)
	return err
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, role, time.Now().UTC(), id)
	return err
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
