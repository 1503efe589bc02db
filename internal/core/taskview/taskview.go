// Package taskview derives everything the task list shows from the cached
// tasks, the cached users and the current user. All functions are pure.
package taskview

import (
	"fmt"
	"hash/fnv"
	"unicode"

	"github.com/flowtask/flowtask/internal/core/domain"
)

// FilterMine returns tasks unchanged when enabled is false, otherwise only
// the tasks assigned to userID. The input slice is never modified.
func FilterMine(tasks []domain.Task, userID int64, enabled bool) []domain.Task {
	if !enabled {
		return tasks
	}
	mine := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsAssignedTo(userID) {
			mine = append(mine, t)
		}
	}
	return mine
}

// Stats are the profile counters.
type Stats struct {
	Assigned  int
	Created   int
	Completed int
}

// ComputeStats counts in a single pass. Completed is a subset of Assigned.
func ComputeStats(tasks []domain.Task, userID int64) Stats {
	var s Stats
	for _, t := range tasks {
		if t.IsAssignedTo(userID) {
			s.Assigned++
			if t.Status == domain.StatusDone {
				s.Completed++
			}
		}
		if t.IsCreatedBy(userID) {
			s.Created++
		}
	}
	return s
}

// Presentation is how a status is rendered.
type Presentation struct {
	Label      string
	Color      string
	Background string
}

var presentations = map[domain.TaskStatus]Presentation{
	domain.StatusTodo:       {Label: "To Do", Color: "#f59e0b", Background: "rgba(245, 158, 11, 0.1)"},
	domain.StatusInProgress: {Label: "In Progress", Color: "#3b82f6", Background: "rgba(59, 130, 246, 0.1)"},
	domain.StatusDone:       {Label: "Done", Color: "#10b981", Background: "rgba(16, 185, 129, 0.1)"},
}

// StatusPresentation maps the closed status domain. An unknown status is a
// programming error and panics.
func StatusPresentation(status domain.TaskStatus) Presentation {
	p, ok := presentations[status]
	if !ok {
		panic(fmt.Sprintf("taskview: unknown task status %q", status))
	}
	return p
}

// MineHighlight is the accent used for cards assigned to the current user.
const MineHighlight = "#4f8cff"

// Card is one rendered row of the task list.
type Card struct {
	Task         domain.Task
	IsMine       bool
	AssignedTo   *domain.User
	CreatedBy    *domain.User
	Presentation Presentation
	// Accent is MineHighlight for the user's own tasks, the status color otherwise.
	Accent string
}

// Cards resolves assignee and creator against users and flags ownership.
// Unknown user ids resolve to nil.
func Cards(tasks []domain.Task, users []domain.User, currentUserID int64) []Card {
	byID := make(map[int64]*domain.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	lookup := func(id *int64) *domain.User {
		if id == nil {
			return nil
		}
		return byID[*id]
	}

	cards := make([]Card, 0, len(tasks))
	for _, t := range tasks {
		p := StatusPresentation(t.Status)
		c := Card{
			Task:         t,
			IsMine:       currentUserID != 0 && t.IsAssignedTo(currentUserID),
			AssignedTo:   lookup(t.AssignedUserID),
			CreatedBy:    lookup(t.CreatedByID),
			Presentation: p,
			Accent:       p.Color,
		}
		if c.IsMine {
			c.Accent = MineHighlight
		}
		cards = append(cards, c)
	}
	return cards
}

// Input is everything a View is derived from.
type Input struct {
	Tasks         []domain.Task
	Users         []domain.User
	CurrentUserID int64
	OnlyMine      bool
}

// View is the derived task list state.
type View struct {
	Cards []Card
	Stats Stats
	// Total is the size of the unfiltered collection.
	Total int
}

// Build derives the full view. Stats always cover the unfiltered tasks.
func Build(in Input) View {
	visible := FilterMine(in.Tasks, in.CurrentUserID, in.OnlyMine && in.CurrentUserID != 0)
	return View{
		Cards: Cards(visible, in.Users, in.CurrentUserID),
		Stats: ComputeStats(in.Tasks, in.CurrentUserID),
		Total: len(in.Tasks),
	}
}

var avatarPalette = []string{
	"#667eea", "#764ba2", "#f59e0b", "#10b981", "#3b82f6",
	"#ef4444", "#8b5cf6", "#ec4899", "#14b8a6", "#f97316",
}

// AvatarColor picks a stable color for a user's initials from seed
// (usually the email).
func AvatarColor(seed string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return avatarPalette[int(h.Sum32()%uint32(len(avatarPalette)))]
}

// Initial returns the upper-cased first letter of name, or "?".
func Initial(name string) string {
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}
