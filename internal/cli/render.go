package cli

import (
	"fmt"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/ui"
)

const emptyState = "No TODO items yet. Create one to get started!"

func stats(items []model.TodoItem) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

func listPanel(items []model.TodoItem, group bool) []string {
	d, p := stats(items)
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), d,
		ui.C(t.Pending, t.SymUnchecked), p,
		ui.C(t.Accent, "Total"), len(items),
	)

	lines := []string{header, ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)), ""}
	switch {
	case len(items) == 0:
		lines = append(lines, ui.C(t.Muted, emptyState))
	case group:
		lines = append(lines, groupLines(items)...)
	default:
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "", ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	return lines
}

func flatLines(items []model.TodoItem) []string {
	t := ui.Current()
	out := make([]string, 0, len(items))
	for _, it := range items {
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		line := fmt.Sprintf("%s %s %s %s",
			ui.C(t.Muted, fmt.Sprintf("#%-3d", it.ID)),
			ui.C(color, box),
			ui.PriorityBadge(it.Priority),
			ui.Truncate(it.Description, 80),
		)
		if it.Category != nil {
			line += " " + ui.C(t.Accent, "@"+*it.Category)
		}
		if it.DueDate != nil && !it.DueDate.IsZero() {
			line += " " + ui.C(t.Muted, "due "+it.DueDate.Format(model.DateLayout))
		}
		out = append(out, line)
	}
	return out
}

func groupLines(items []model.TodoItem) []string {
	var pend, done []model.TodoItem
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	t := ui.Current()
	var lines []string
	lines = append(lines, ui.C(t.Accent, fmt.Sprintf("Pending (%d)", len(pend))))
	if len(pend) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Accent, fmt.Sprintf("Completed (%d)", len(done))))
	if len(done) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}

func detailLines(it model.TodoItem) []string {
	t := ui.Current()
	status := ui.C(t.Pending, "pending")
	if it.Completed {
		status = ui.C(t.Success, "completed")
	}
	due := "-"
	if it.DueDate != nil && !it.DueDate.IsZero() {
		due = it.DueDate.Format(model.DateLayout)
	}
	cat := it.CategoryOrEmpty()
	if cat == "" {
		cat = "-"
	}
	return []string{
		ui.C(t.Title, fmt.Sprintf("#%d %s", it.ID, it.Description)),
		"",
		"status:   " + status,
		"priority: " + ui.PriorityBadge(it.Priority),
		"due:      " + due,
		"category: " + cat,
		ui.C(t.Muted, "created:  "+it.CreatedAt.Format("2006-01-02 15:04")),
		ui.C(t.Muted, "updated:  "+it.UpdatedAt.Format("2006-01-02 15:04")),
	}
}
