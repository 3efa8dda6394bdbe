package lifecycle

import "github.com/arnavshah/alterations-api/pkg/models"

const ResultSuccess = "Success"

// step is what a scan does to a part in a given status.
type step struct {
	to     models.Status
	stamp  string
	result string
	ok     bool
}

// next resolves a scan against the part's current status. Anything that is
// not a valid transition comes back with ok=false and a descriptive result.
func next(from models.Status, scan models.ScanType) step {
	if scan == models.ScanStatusCheck {
		return step{result: "Status: " + string(from)}
	}
	if from == models.StatusOnHold {
		return step{result: "Part is on hold"}
	}
	if from == models.StatusPickedUp {
		return step{result: "Already picked up"}
	}

	switch scan {
	case models.ScanStartWork:
		switch from {
		case models.StatusNotStarted:
			return step{to: models.StatusInProgress, stamp: "started_at", result: ResultSuccess, ok: true}
		case models.StatusInProgress:
			return step{result: "Work already started"}
		default:
			return step{result: "Work already completed"}
		}
	case models.ScanFinishWork:
		switch from {
		case models.StatusInProgress:
			return step{to: models.StatusComplete, stamp: "completed_at", result: ResultSuccess, ok: true}
		case models.StatusNotStarted:
			return step{result: "Work not started"}
		default:
			return step{result: "Work already completed"}
		}
	case models.ScanPickup:
		if from == models.StatusComplete {
			return step{to: models.StatusPickedUp, stamp: "picked_up_at", result: ResultSuccess, ok: true}
		}
		return step{result: "Part not ready for pickup"}
	}
	return step{result: "Status: " + string(from)}
}

// rollUp derives the job status from all of its parts. The second result is
// false when the parts do not determine a new job status.
func rollUp(parts []models.AlterationJobPart) (models.Status, bool) {
	if len(parts) == 0 {
		return "", false
	}

	allPickedUp, allDone := true, true
	for _, p := range parts {
		if p.Status != models.StatusPickedUp {
			allPickedUp = false
		}
		if p.Status != models.StatusComplete && p.Status != models.StatusPickedUp {
			allDone = false
		}
	}

	// PICKED_UP is the stronger condition and must win.
	switch {
	case allPickedUp:
		return models.StatusPickedUp, true
	case allDone:
		return models.StatusComplete, true
	default:
		return "", false
	}
}
