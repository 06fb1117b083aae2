package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/issue-service/internal/domain"
)

// IssueRepository encapsulates issue persistence. Save is an upsert: an
// issue with a zero id is inserted and receives its id from the store.
type IssueRepository interface {
	Save(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id int64) (*domain.Issue, error)
	List(ctx context.Context) ([]domain.Issue, error)
	ListByStatus(ctx context.Context, status domain.IssueStatus) ([]domain.Issue, error)
	ListByAssignedUser(ctx context.Context, userID int64) ([]domain.Issue, error)
	ListIDsByCollaborator(ctx context.Context, userID int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository returns a Postgres-backed implementation.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueSelect = `
    SELECT i.id, i.title, i.description, i.requester, i.status, i.priority, i.tags,
           i.created_at, i.updated_at,
           u.id, u.username, u.name, u.email, u.phone, u.address, u.department,
           u.created_at, u.updated_at
    FROM issues i
    LEFT JOIN users u ON u.id = i.assigned_user_id`

func (r *issueRepository) Save(ctx context.Context, issue *domain.Issue) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if issue.ID == 0 {
		const insert = `
            INSERT INTO issues (title, description, requester, status, priority, assigned_user_id, tags, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
            RETURNING id`
		if err := tx.QueryRow(ctx, insert,
			issue.Title,
			issue.Description,
			issue.Requester,
			issue.Status,
			issue.Priority,
			issue.AssignedUserID(),
			issue.Tags,
			issue.CreatedAt,
			issue.UpdatedAt,
		).Scan(&issue.ID); err != nil {
			return err
		}
	} else {
		const update = `
            UPDATE issues SET title=$1, description=$2, requester=$3, status=$4, priority=$5,
                assigned_user_id=$6, tags=$7, updated_at=$8
            WHERE id=$9`
		cmd, err := tx.Exec(ctx, update,
			issue.Title,
			issue.Description,
			issue.Requester,
			issue.Status,
			issue.Priority,
			issue.AssignedUserID(),
			issue.Tags,
			issue.UpdatedAt,
			issue.ID,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM issue_collaborators WHERE issue_id=$1`, issue.ID); err != nil {
		return err
	}
	for _, collaborator := range issue.Collaborators {
		if _, err := tx.Exec(ctx,
			`INSERT INTO issue_collaborators (issue_id, user_id) VALUES ($1,$2)`,
			issue.ID, collaborator.ID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *issueRepository) GetByID(ctx context.Context, id int64) (*domain.Issue, error) {
	row := r.pool.QueryRow(ctx, issueSelect+` WHERE i.id=$1`, id)
	issue, err := scanIssue(row)
	if err != nil {
		return nil, err
	}
	collaborators, err := r.collaboratorsFor(ctx, []int64{issue.ID})
	if err != nil {
		return nil, err
	}
	issue.Collaborators = collaborators[issue.ID]
	return issue, nil
}

func (r *issueRepository) List(ctx context.Context) ([]domain.Issue, error) {
	return r.listWhere(ctx, issueSelect+` ORDER BY i.id`)
}

func (r *issueRepository) ListByStatus(ctx context.Context, status domain.IssueStatus) ([]domain.Issue, error) {
	return r.listWhere(ctx, issueSelect+` WHERE i.status=$1 ORDER BY i.id`, status)
}

func (r *issueRepository) ListByAssignedUser(ctx context.Context, userID int64) ([]domain.Issue, error) {
	return r.listWhere(ctx, issueSelect+` WHERE i.assigned_user_id=$1 ORDER BY i.id`, userID)
}

func (r *issueRepository) ListIDsByCollaborator(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT issue_id FROM issue_collaborators WHERE user_id=$1 ORDER BY issue_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *issueRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM issues WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *issueRepository) listWhere(ctx context.Context, query string, args ...any) ([]domain.Issue, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []domain.Issue
	var ids []int64
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
		ids = append(ids, issue.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return issues, nil
	}

	collaborators, err := r.collaboratorsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for idx := range issues {
		issues[idx].Collaborators = collaborators[issues[idx].ID]
	}
	return issues, nil
}

func (r *issueRepository) collaboratorsFor(ctx context.Context, issueIDs []int64) (map[int64][]domain.User, error) {
	const query = `
        SELECT ic.issue_id, u.id, u.username, u.name, u.email, u.phone, u.address, u.department,
               u.created_at, u.updated_at
        FROM issue_collaborators ic
        JOIN users u ON u.id = ic.user_id
        WHERE ic.issue_id = ANY($1)
        ORDER BY u.id`
	rows, err := r.pool.Query(ctx, query, issueIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]domain.User)
	for rows.Next() {
		var issueID int64
		var user domain.User
		if err := rows.Scan(
			&issueID,
			&user.ID,
			&user.Username,
			&user.Name,
			&user.Email,
			&user.Phone,
			&user.Address,
			&user.Department,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result[issueID] = append(result[issueID], user)
	}
	return result, rows.Err()
}

// rowScanner covers pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var issue domain.Issue
	var assignee domain.User
	var assigneeID *int64
	var username, name, email, phone, address, department *string
	var assigneeCreated, assigneeUpdated *time.Time

	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Requester,
		&issue.Status,
		&issue.Priority,
		&issue.Tags,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&assigneeID,
		&username,
		&name,
		&email,
		&phone,
		&address,
		&department,
		&assigneeCreated,
		&assigneeUpdated,
	); err != nil {
		return nil, err
	}

	if assigneeID != nil {
		assignee.ID = *assigneeID
		assignee.Username = deref(username)
		assignee.Name = deref(name)
		assignee.Email = deref(email)
		assignee.Phone = deref(phone)
		assignee.Address = deref(address)
		assignee.Department = deref(department)
		if assigneeCreated != nil {
			assignee.CreatedAt = *assigneeCreated
		}
		assignee.UpdatedAt = assigneeUpdated
		issue.AssignedUser = &assignee
	}
	return &issue, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
