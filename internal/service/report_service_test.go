package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkovtun/study-tracker/internal/models"
)

type fakeUserRepo struct {
	users    map[string]*models.User
	students []models.UserWithStats
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetStudentsWithStats(ctx context.Context, search, sortBy string, today time.Time, limit, offset int) ([]models.UserWithStats, int, error) {
	return r.students, len(r.students), nil
}

func (r *fakeUserRepo) GetStudentsCreatedSince(ctx context.Context, since time.Time) ([]models.User, error) {
	var recent []models.User
	for _, user := range r.users {
		if user.Role == models.RoleStudent && !user.CreatedAt.Before(since) {
			recent = append(recent, *user)
		}
	}
	return recent, nil
}

func (r *fakeUserRepo) GetAllStudentsWithStats(ctx context.Context, today time.Time) ([]models.UserWithStats, error) {
	return r.students, nil
}

func (r *fakeUserRepo) CountAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, user := range r.users {
		if user.Role == models.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) CountStudents(ctx context.Context) (int, error) {
	count := 0
	for _, user := range r.users {
		if user.Role == models.RoleStudent {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if existing, ok := r.users[user.ID]; ok {
		existing.Name = user.Name
		existing.Bio = user.Bio
		existing.UpdatedAt = user.UpdatedAt
	}
	return nil
}

func (r *fakeUserRepo) UpdatePhotoKey(ctx context.Context, id, photoKey string) error {
	if user, ok := r.users[id]; ok {
		user.PhotoKey = photoKey
	}
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id string, role models.Role) error {
	if user, ok := r.users[id]; ok {
		user.Role = role
	}
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func studentWithStats(name, email string, joined time.Time, total, completed int) models.UserWithStats {
	return models.UserWithStats{
		User: models.User{
			Name:      name,
			Email:     email,
			Role:      models.RoleStudent,
			CreatedAt: joined,
		},
		TotalTasks:     total,
		CompletedTasks: completed,
	}
}

func TestWriteStudentsCSV(t *testing.T) {
	repo := newFakeUserRepo()
	joined := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	repo.students = []models.UserWithStats{
		studentWithStats("Ann", "ann@example.com", joined, 3, 2),
		studentWithStats("Bob", "bob@example.com", joined.AddDate(0, 0, 5), 0, 0),
	}

	svc := NewReportService(repo, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.WriteStudentsCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"name", "email", "role", "joined", "total_tasks", "completed_tasks"}, records[0])
	assert.Equal(t, []string{"Ann", "ann@example.com", "STUDENT", "2024-01-10", "3", "2"}, records[1])
	assert.Equal(t, []string{"Bob", "bob@example.com", "STUDENT", "2024-01-15", "0", "0"}, records[2])
}

func TestWriteStudentsCSVEscapesSpecialCharacters(t *testing.T) {
	repo := newFakeUserRepo()
	joined := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	repo.students = []models.UserWithStats{
		studentWithStats(`Doe, Jane "JD"`, "jane@example.com", joined, 1, 1),
	}

	svc := NewReportService(repo, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.WriteStudentsCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, `Doe, Jane "JD"`, records[1][0])
}

func TestWriteStudentsCSVHeaderOnlyWhenEmpty(t *testing.T) {
	svc := NewReportService(newFakeUserRepo(), zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.WriteStudentsCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
