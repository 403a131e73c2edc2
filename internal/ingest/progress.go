package ingest

import (
	"time"
)

// Progress tracks the progress of a run
type Progress struct {
	RunID              string        `json:"run_id"`
	Total              int           `json:"total"`
	Processed          int           `json:"processed"`
	CurrentID          string        `json:"current_id"`
	PercentComplete    float64       `json:"percent_complete"`
	StartTime          time.Time     `json:"start_time"`
	ElapsedTime        time.Duration `json:"elapsed_time"`
	EstimatedRemaining time.Duration `json:"estimated_remaining"`
	Summary            Summary       `json:"summary"`
}

// ProgressCallback is called after every message
type ProgressCallback func(*Progress)

// AddProgressCallback adds a progress callback function
func (p *Pipeline) AddProgressCallback(callback ProgressCallback) {
	p.progressMutex.Lock()
	defer p.progressMutex.Unlock()
	p.progressCallbacks = append(p.progressCallbacks, callback)
}

func (p *Pipeline) updateProgress(progress *Progress, currentID string, summary Summary) {
	progress.Processed++
	progress.CurrentID = currentID
	progress.Summary = summary
	progress.ElapsedTime = p.now().Sub(progress.StartTime)
	if progress.Total > 0 {
		progress.PercentComplete = float64(progress.Processed) / float64(progress.Total) * 100
	}

	progress.EstimatedRemaining = 0
	if progress.Processed > 0 && progress.Processed < progress.Total {
		avgPerMessage := progress.ElapsedTime / time.Duration(progress.Processed)
		progress.EstimatedRemaining = avgPerMessage * time.Duration(progress.Total-progress.Processed)
	}

	p.progressMutex.RLock()
	callbacks := append([]ProgressCallback(nil), p.progressCallbacks...)
	p.progressMutex.RUnlock()

	for _, callback := range callbacks {
		snapshot := *progress
		callback(&snapshot)
	}
}
