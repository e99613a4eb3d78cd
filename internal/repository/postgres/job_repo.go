package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/job"
	"github.com/jackc/pgx/v5"
)

var _ job.Repo = (*JobRepo)(nil)

// JobRepo reads job assignment state. Jobs themselves are owned by the jobs
// service; this repo never writes them.
type JobRepo struct{ db *DB }

func NewJobRepo(db *DB) *JobRepo { return &JobRepo{db: db} }

const qJobAssignments = `
SELECT j.id,
       COALESCE((SELECT array_agg(user_id ORDER BY user_id) FROM job_assigned_users WHERE job_id = j.id), '{}'),
       COALESCE((SELECT array_agg(team_id ORDER BY team_id) FROM job_assigned_teams WHERE job_id = j.id), '{}')
FROM jobs j
WHERE j.id = $1;`

func (r *JobRepo) GetByID(ctx context.Context, id int64) (*job.Job, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var j job.Job
	err := r.db.execQueryer(ctx).QueryRow(ctx, qJobAssignments, id).
		Scan(&j.ID, &j.AssignedUserIDs, &j.AssignedTeamIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return &j, nil
}
