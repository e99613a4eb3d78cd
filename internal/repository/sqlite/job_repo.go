package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/job"
	"github.com/jmoiron/sqlx"
)

var _ job.Repo = (*JobRepo)(nil)

type JobRepo struct{ db *DB }

func NewJobRepo(db *DB) *JobRepo { return &JobRepo{db: db} }

const (
	qJobExists  = `SELECT id FROM jobs WHERE id = ?;`
	qJobUsers   = `SELECT user_id FROM job_assigned_users WHERE job_id = ? ORDER BY user_id;`
	qJobTeams   = `SELECT team_id FROM job_assigned_teams WHERE job_id = ? ORDER BY team_id;`
	qJobInsert  = `INSERT INTO jobs (created_at) VALUES (?);`
	qJobAssignU = `INSERT OR IGNORE INTO job_assigned_users (job_id, user_id) VALUES (?, ?);`
	qJobAssignT = `INSERT OR IGNORE INTO job_assigned_teams (job_id, team_id) VALUES (?, ?);`
)

func (r *JobRepo) GetByID(ctx context.Context, id int64) (*job.Job, error) {
	ext := r.db.ext(ctx)
	j := &job.Job{}
	if err := sqlx.GetContext(ctx, ext, &j.ID, qJobExists, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	j.AssignedUserIDs = make([]int64, 0)
	if err := sqlx.SelectContext(ctx, ext, &j.AssignedUserIDs, qJobUsers, id); err != nil {
		return nil, fmt.Errorf("job users: %w", err)
	}
	j.AssignedTeamIDs = make([]int64, 0)
	if err := sqlx.SelectContext(ctx, ext, &j.AssignedTeamIDs, qJobTeams, id); err != nil {
		return nil, fmt.Errorf("job teams: %w", err)
	}
	return j, nil
}

// Create stores a job with its assignments. Jobs are owned by another
// service; this is how seed data and tests populate them.
func (r *JobRepo) Create(ctx context.Context, j *job.Job) error {
	ext := r.db.ext(ctx)
	res, err := ext.ExecContext(ctx, qJobInsert, ts(now()))
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	if j.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("job id: %w", err)
	}
	for _, uid := range j.AssignedUserIDs {
		if _, err := ext.ExecContext(ctx, qJobAssignU, j.ID, uid); err != nil {
			return fmt.Errorf("assign user %d: %w", uid, err)
		}
	}
	for _, tid := range j.AssignedTeamIDs {
		if _, err := ext.ExecContext(ctx, qJobAssignT, j.ID, tid); err != nil {
			return fmt.Errorf("assign team %d: %w", tid, err)
		}
	}
	return nil
}
