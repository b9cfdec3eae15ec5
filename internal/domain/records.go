package domain

import "time"

// IsPersonalRecord decides whether a newly submitted time beats the athlete's
// best known prior time for the same workout. Only timed rx results qualify:
// scaled performances are not comparable to prescribed ones. A first-ever rx
// time is always a record; otherwise the new time must be strictly faster.
func IsPersonalRecord(timeSeconds *int, variant Variant, bestPrior *int) bool {
	if timeSeconds == nil || variant != VariantRx {
		return false
	}
	if bestPrior == nil {
		return true
	}
	return *timeSeconds < *bestPrior
}

// MintPersonalRecord builds the append-only record entry for a PR result.
// The movement name is the workout's display name: distinct workouts sharing
// a conceptual movement are tracked as distinct movements.
func MintPersonalRecord(id string, result WorkoutResult, workoutName string, achievedAt time.Time) PersonalRecord {
	return PersonalRecord{
		ID:              id,
		AthleteID:       result.AthleteID,
		MovementName:    workoutName,
		RecordType:      "time",
		Value:           *result.TimeSeconds,
		Unit:            "seconds",
		WorkoutResultID: result.ID,
		AchievedAt:      achievedAt,
	}
}
