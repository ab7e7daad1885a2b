package tasks

import (
	"fmt"

	"github.com/desertthunder/flickx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchFirstPage Phase = iota
	FetchPages
	ExportDone
)

func (p Phase) String() string {
	switch p {
	case FetchFirstPage:
		return "fetch_first_page"
	case FetchPages:
		return "fetch_pages"
	case ExportDone:
		return "export_done"
	default:
		return ""
	}
}

// sendProgress sends update without blocking. A nil or full channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func firstPageUpdate(kind models.MembershipKind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFirstPage,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %s...", kind),
	}
}

func pageFetchedUpdate(step, total, page, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ page %d (%d movies)", step, total, page, count),
	}
}

func pageFailedUpdate(step, total, page int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ page %d: %v", step, total, page, err),
	}
}

func exportDoneUpdate(result *ExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportDone,
		Step:    result.Pages,
		Total:   result.Pages,
		Message: fmt.Sprintf("Exported %d movies from %d pages (%d failed)", len(result.Items), result.Pages, len(result.Failed)),
		Data:    result,
	}
}
