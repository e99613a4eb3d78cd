package job

type Job struct {
	ID              int64   `json:"id"`
	AssignedUserIDs []int64 `json:"assigned_user_ids"`
	AssignedTeamIDs []int64 `json:"assigned_team_ids"`
}

func (j *Job) Unassigned() bool {
	return len(j.AssignedUserIDs) == 0 && len(j.AssignedTeamIDs) == 0
}

func (j *Job) AssignedTo(userID int64) bool {
	for _, id := range j.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
