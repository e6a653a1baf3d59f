package pipeline

import "washboard/internal/models"

// StageConfig describes one board column: what the action button shows, where
// it sends the booking and whether photo evidence for the current stage must
// be attached before advancing. This table is the single source for the UI
// and the tests; no per-screen transition logic exists elsewhere.
type StageConfig struct {
	Label         string
	Color         string
	Next          string
	RequiresPhoto bool
}

var stageConfigs = map[string]StageConfig{
	models.StatusScheduled: {
		Label: "Начать мойку",
		Color: "blue",
		Next:  models.StatusStageOne,
	},
	models.StatusStageOne: {
		Label:         "На этап 2",
		Color:         "yellow",
		Next:          models.StatusStageTwo,
		RequiresPhoto: true,
	},
	models.StatusStageTwo: {
		Label:         "На этап 3",
		Color:         "orange",
		Next:          models.StatusStageThree,
		RequiresPhoto: true,
	},
	models.StatusStageThree: {
		Label:         "Завершить",
		Color:         "green",
		Next:          models.StatusCompleted,
		RequiresPhoto: true,
	},
	models.StatusCompleted: {
		Label: "Завершено",
		Color: "gray",
	},
}

// BoardStages lists the five kanban columns in display order.
var BoardStages = []string{
	models.StatusScheduled,
	models.StatusStageOne,
	models.StatusStageTwo,
	models.StatusStageThree,
	models.StatusCompleted,
}

// AllStatuses is every status the board loads, including the cancelled exit.
var AllStatuses = []string{
	models.StatusScheduled,
	models.StatusStageOne,
	models.StatusStageTwo,
	models.StatusStageThree,
	models.StatusCompleted,
	models.StatusCancelled,
}

// Config returns the stage configuration for a status.
func Config(status string) (StageConfig, bool) {
	cfg, ok := stageConfigs[status]
	return cfg, ok
}

// IsTerminal reports whether a status has no destination column on the board.
// Completed and cancelled bookings live only in the drawer.
func IsTerminal(status string) bool {
	return status == models.StatusCompleted || status == models.StatusCancelled
}

// IsKnownStatus reports whether the status is one of the six board statuses.
func IsKnownStatus(status string) bool {
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}
