package taskview

import (
	"testing"

	"github.com/flowtask/flowtask/internal/core/domain"
)

func id(v int64) *int64 { return &v }

func fixtureTasks() []domain.Task {
	return []domain.Task{
		{ID: 1, Title: "a", Status: domain.StatusTodo, AssignedUserID: id(1), CreatedByID: id(2)},
		{ID: 2, Title: "b", Status: domain.StatusDone, AssignedUserID: id(1), CreatedByID: id(1)},
		{ID: 3, Title: "c", Status: domain.StatusInProgress, AssignedUserID: id(2), CreatedByID: id(1)},
		{ID: 4, Title: "d", Status: domain.StatusDone},
		{ID: 5, Title: "e", Status: domain.StatusDone, AssignedUserID: id(2)},
	}
}

func TestFilterMine(t *testing.T) {
	tasks := fixtureTasks()

	if got := FilterMine(tasks, 1, false); len(got) != len(tasks) {
		t.Fatalf("disabled filter must return all tasks, got %d", len(got))
	}

	for _, userID := range []int64{1, 2, 3} {
		got := FilterMine(tasks, userID, true)
		inResult := map[int64]bool{}
		for _, task := range got {
			inResult[task.ID] = true
		}
		for _, task := range tasks {
			assigned := task.AssignedUserID != nil && *task.AssignedUserID == userID
			if inResult[task.ID] != assigned {
				t.Errorf("user %d task %d: in result = %v, assigned = %v", userID, task.ID, inResult[task.ID], assigned)
			}
		}
	}
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		user int64
		want Stats
	}{
		{1, Stats{Assigned: 2, Created: 2, Completed: 1}},
		{2, Stats{Assigned: 2, Created: 1, Completed: 1}},
		{9, Stats{}},
	}
	for _, tt := range tests {
		got := ComputeStats(fixtureTasks(), tt.user)
		if got != tt.want {
			t.Errorf("user %d: stats = %+v, want %+v", tt.user, got, tt.want)
		}
		if got.Completed > got.Assigned || got.Assigned < 0 || got.Created < 0 {
			t.Errorf("user %d: inconsistent stats %+v", tt.user, got)
		}
	}

	if got := ComputeStats(nil, 1); got != (Stats{}) {
		t.Errorf("empty collection must give zero stats, got %+v", got)
	}
}

func TestStatusPresentation(t *testing.T) {
	want := map[domain.TaskStatus]string{
		domain.StatusTodo:       "To Do",
		domain.StatusInProgress: "In Progress",
		domain.StatusDone:       "Done",
	}
	for _, s := range domain.Statuses() {
		p := StatusPresentation(s)
		if p.Label != want[s] || p.Color == "" {
			t.Errorf("%q: unexpected presentation %+v", s, p)
		}
	}
}

func TestStatusPresentation_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown status")
		}
	}()
	StatusPresentation("Blocked")
}

func TestCards(t *testing.T) {
	users := []domain.User{{ID: 1, Name: "ann"}, {ID: 2, Name: "Bob"}}
	cards := Cards(fixtureTasks(), users, 1)

	if len(cards) != 5 {
		t.Fatalf("expected 5 cards, got %d", len(cards))
	}
	first := cards[0]
	if !first.IsMine || first.Accent != MineHighlight {
		t.Errorf("task 1 should be highlighted as mine: %+v", first)
	}
	if first.AssignedTo == nil || first.AssignedTo.Name != "ann" || first.CreatedBy == nil || first.CreatedBy.Name != "Bob" {
		t.Errorf("task 1 users not resolved: %+v", first)
	}
	third := cards[2]
	if third.IsMine || third.Accent != StatusPresentation(domain.StatusInProgress).Color {
		t.Errorf("task 3 should use the status accent: %+v", third)
	}
	if cards[3].AssignedTo != nil || cards[3].CreatedBy != nil {
		t.Errorf("unassigned task must resolve to nil users: %+v", cards[3])
	}
}

func TestBuild(t *testing.T) {
	view := Build(Input{Tasks: fixtureTasks(), CurrentUserID: 2, OnlyMine: true})
	if view.Total != 5 || len(view.Cards) != 2 {
		t.Fatalf("unexpected view size: total=%d cards=%d", view.Total, len(view.Cards))
	}
	if view.Stats != (Stats{Assigned: 2, Created: 1, Completed: 1}) {
		t.Fatalf("stats must cover the unfiltered collection, got %+v", view.Stats)
	}

	anon := Build(Input{Tasks: fixtureTasks(), OnlyMine: true})
	if len(anon.Cards) != 5 {
		t.Fatalf("the mine filter needs a user; got %d cards", len(anon.Cards))
	}
}

func TestAvatarColorAndInitial(t *testing.T) {
	if AvatarColor("a@b.com") != AvatarColor("a@b.com") {
		t.Fatalf("avatar color must be stable")
	}
	if Initial("ann") != "A" || Initial("") != "?" || Initial("éva") != "É" {
		t.Fatalf("unexpected initials: %q %q %q", Initial("ann"), Initial(""), Initial("éva"))
	}
}
