package outbox

import "time"

// ResultRecorded is emitted when an athlete submits a workout result.
type ResultRecorded struct {
	ResultID     string    `json:"result_id"`
	AssignmentID string    `json:"assignment_id"`
	AthleteID    string    `json:"athlete_id"`
	WorkoutID    string    `json:"workout_id"`
	Variant      string    `json:"rx_or_scaled"`
	TimeSeconds  *int      `json:"time_seconds,omitempty"`
	IsPR         bool      `json:"is_pr"`
	CompletedAt  time.Time `json:"completed_at"`
}

// RecordAchieved is emitted alongside ResultRecorded when the submission set
// a new personal record.
type RecordAchieved struct {
	RecordID     string    `json:"record_id"`
	AthleteID    string    `json:"athlete_id"`
	MovementName string    `json:"movement_name"`
	RecordType   string    `json:"record_type"`
	Value        int       `json:"value"`
	Unit         string    `json:"unit"`
	AchievedAt   time.Time `json:"achieved_at"`
}
