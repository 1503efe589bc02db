package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
	"github.com/flowtask/flowtask/internal/core/taskview"
)

func tasksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and manage tasks",
	}
	cmd.AddCommand(tasksListCmd(e))
	cmd.AddCommand(tasksShowCmd(e))
	cmd.AddCommand(tasksCreateCmd(e))
	cmd.AddCommand(tasksEditCmd(e))
	cmd.AddCommand(tasksStatusCmd(e))
	cmd.AddCommand(tasksDeleteCmd(e))
	return cmd
}

func tasksListCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List tasks with your statistics",
		Args:        cobra.NoArgs,
		Annotations: action("Loading tasks"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, s, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			mine, _ := cmd.Flags().GetBool("mine")
			rawStatus, _ := cmd.Flags().GetString("status")
			var status domain.TaskStatus
			if rawStatus != "" {
				if status, err = domain.ParseTaskStatus(rawStatus); err != nil {
					return err
				}
			}

			tasks, err := a.tasks.Tasks(cmd.Context())
			if err != nil {
				return err
			}
			users, err := a.tasks.Users(cmd.Context())
			if err != nil {
				return err
			}

			view := taskview.Build(taskview.Input{
				Tasks:         tasks,
				Users:         users,
				CurrentUserID: s.UserID(),
				OnlyMine:      mine,
			})
			cards := view.Cards
			if status != "" {
				cards = filterStatus(cards, status)
			}

			out := cmd.OutOrStdout()
			renderStats(out, view.Stats)
			fmt.Fprintln(out)
			if len(cards) == 0 {
				fmt.Fprintln(out, "No tasks to show.")
				return nil
			}
			renderTaskTable(out, cards, painterFor(out))
			fmt.Fprintf(out, "\nShowing %d of %d tasks.\n", len(cards), view.Total)
			return nil
		},
	}

	cmd.Flags().BoolP("mine", "m", false, "Only tasks assigned to me")
	cmd.Flags().StringP("status", "s", "", "Only tasks with this status (todo, in-progress, done)")
	return cmd
}

func filterStatus(cards []taskview.Card, status domain.TaskStatus) []taskview.Card {
	out := make([]taskview.Card, 0, len(cards))
	for _, c := range cards {
		if c.Task.Status == status {
			out = append(out, c)
		}
	}
	return out
}

func tasksShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "show ID",
		Short:       "Show one task",
		Args:        cobra.ExactArgs(1),
		Annotations: action("Loading the task"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, s, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			task, err := a.tasks.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			users, err := a.tasks.Users(cmd.Context())
			if err != nil {
				return err
			}

			card := taskview.Cards([]domain.Task{*task}, users, s.UserID())[0]
			renderTaskDetail(cmd.OutOrStdout(), card, painterFor(cmd.OutOrStdout()))
			return nil
		},
	}
}

func tasksCreateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Create a task",
		Args:        cobra.NoArgs,
		Annotations: action("Creating the task"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}

			draft := domain.NewTaskDraft()
			if err := applyDraftFlags(cmd.Flags(), &draft); err != nil {
				return err
			}
			if draft.Title == "" {
				p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
				if draft.Title, err = p.line("Title"); err != nil {
					return err
				}
			}

			task, err := a.tasks.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task #%d %q.\n", task.ID, task.Title)
			return nil
		},
	}
	draftFlags(cmd.Flags())
	return cmd
}

func tasksEditCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "edit ID",
		Short:       "Change the fields of a task",
		Long: `Only the flags you pass are changed. Pass an empty value (or --assignee 0)
to clear an optional field; the cleared field is sent as null.`,
		Args:        cobra.ExactArgs(1),
		Annotations: action("Saving the task"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			current, err := a.tasks.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			draft := domain.DraftFromTask(*current)
			if err := applyDraftFlags(cmd.Flags(), &draft); err != nil {
				return err
			}
			task, err := a.tasks.Update(cmd.Context(), id, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task #%d.\n", task.ID)
			return nil
		},
	}
	draftFlags(cmd.Flags())
	return cmd
}

func tasksStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "status ID STATUS",
		Short:       "Move a task to another status (todo, in-progress, done)",
		Args:        cobra.ExactArgs(2),
		Annotations: action("Updating the status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			status, err := domain.ParseTaskStatus(args[1])
			if err != nil {
				return err
			}

			task, err := a.tasks.ChangeStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task #%d is now %s.\n", task.ID, taskview.StatusPresentation(task.Status).Label)
			return nil
		},
	}
}

func tasksDeleteCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "delete ID",
		Aliases:     []string{"rm"},
		Short:       "Delete a task after confirmation",
		Args:        cobra.ExactArgs(1),
		Annotations: action("Delete"),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			var confirm ports.Confirmer = newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if yes, _ := cmd.Flags().GetBool("yes"); yes {
				confirm = assumeYes{}
			}
			deleted, err := a.tasks.Delete(cmd.Context(), id, confirm)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing deleted.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func parseTaskID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

func draftFlags(fs *pflag.FlagSet) {
	fs.StringP("title", "t", "", "Title")
	fs.StringP("description", "d", "", "Description")
	fs.StringP("status", "s", "", "Status (todo, in-progress, done)")
	fs.String("deadline", "", "Deadline (YYYY-MM-DD or RFC 3339)")
	fs.Int64P("assignee", "a", 0, "Assigned user id (0 to unassign)")
	fs.String("attachment", "", "Attachment URL")
}

// applyDraftFlags copies the flags that were set onto draft.
func applyDraftFlags(fs *pflag.FlagSet, draft *domain.TaskDraft) error {
	if fs.Changed("title") {
		draft.Title, _ = fs.GetString("title")
	}
	if fs.Changed("description") {
		v, _ := fs.GetString("description")
		draft.Description = optionalString(v)
	}
	if fs.Changed("status") {
		raw, _ := fs.GetString("status")
		status, err := domain.ParseTaskStatus(raw)
		if err != nil {
			return err
		}
		draft.Status = status
	}
	if fs.Changed("deadline") {
		raw, _ := fs.GetString("deadline")
		deadline, err := parseDeadline(raw)
		if err != nil {
			return err
		}
		draft.Deadline = deadline
	}
	if fs.Changed("assignee") {
		id, _ := fs.GetInt64("assignee")
		draft.AssignedUserID = nil
		if id != 0 {
			draft.AssignedUserID = &id
		}
	}
	if fs.Changed("attachment") {
		v, _ := fs.GetString("attachment")
		draft.AttachmentURL = optionalString(v)
	}
	return nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func parseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(dateLayout, raw, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q: use YYYY-MM-DD or RFC 3339", raw)
	}
	return &t, nil
}
