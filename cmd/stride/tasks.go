package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/models"
)

var taskDate string
var taskFilter string
var taskCategory string
var taskPriority string
var taskDaily bool

var taskCmd = &cobra.Command{
	Use:     "tasks",
	Short:   "List the tasks of a day",
	Aliases: []string{"t"},
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, ok := derive.ParseTaskFilter(taskFilter)
		if !ok {
			return fmt.Errorf("unknown filter %q (want all, daily or overdue)", taskFilter)
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		tasks, err := sess.svc.Tasks.GetAll(cmd.Context())
		if err != nil {
			return err
		}

		now := today()
		date := taskDate
		if date == "" {
			date = now
		}
		visible := derive.FilterTasks(tasks, filter, date, now)

		fmt.Printf("%s  %s\n", text.Bold.Sprint(derive.FilterLabel(filter, date, now)),
			text.FgHiBlack.Sprintf("%d%% 完成", derive.Progress(visible)))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleDouble)
		t.Style().Options.SeparateRows = false
		t.AppendHeader(table.Row{
			text.FgGreen.Sprint("ID"), text.FgGreen.Sprint(text.Bold.Sprint("标题")),
			text.FgGreen.Sprint("分类"), text.FgGreen.Sprint("优先级"),
			text.FgGreen.Sprint("日期"), text.FgGreen.Sprint("状态"),
		})
		for _, task := range visible {
			t.AppendRow(table.Row{
				task.ID,
				taskTitle(task, now),
				task.Category,
				priorityColored(task.Priority),
				task.Date,
				statusColored(task.Completed),
			})
		}
		t.Render()
		return nil
	},
}

var addTaskCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		priority := models.Priority(taskPriority)
		if !priority.Valid() {
			return fmt.Errorf("unknown priority %q (want high, medium or low)", taskPriority)
		}
		date := taskDate
		if date == "" {
			date = today()
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		task, err := sess.svc.Tasks.Create(cmd.Context(), models.TaskPatch{
			Title:     &args[0],
			Category:  &taskCategory,
			Priority:  &priority,
			Completed: models.Ptr(false),
			IsDaily:   &taskDaily,
			Date:      &date,
		})
		if err != nil {
			return err
		}
		color.Green("✅ Task %s has been created.", task.ID)
		return nil
	},
}

var doneTaskCmd = &cobra.Command{
	Use:   "done [task ID]",
	Short: "Toggle the completion of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		tasks, err := sess.svc.Tasks.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		for _, task := range tasks {
			if task.ID != args[0] {
				continue
			}
			updated, err := sess.svc.Tasks.ToggleComplete(cmd.Context(), task.ID, !task.Completed)
			if err != nil {
				return err
			}
			color.Green("✅ %s: %s", updated.Title, statusLabel(updated.Completed))
			return nil
		}
		return fmt.Errorf("task %s not found", args[0])
	},
}

var deleteTaskCmd = &cobra.Command{
	Use:     "delete [task ID]",
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.svc.Tasks.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		color.Green("✅ Task %s has been deleted.", args[0])
		return nil
	},
}

func taskTitle(t models.Task, today string) string {
	title := t.Title
	if t.IsDaily {
		title += " " + text.FgCyan.Sprint("[每日]")
	}
	if derive.IsOverdue(t, today) {
		return text.FgHiRed.Sprint(title)
	}
	return title
}

func priorityColored(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return text.FgHiRed.Sprint("高")
	case models.PriorityLow:
		return text.FgHiBlack.Sprint("低")
	}
	return text.FgHiYellow.Sprint("中")
}

func statusLabel(completed bool) string {
	if completed {
		return "已完成"
	}
	return "未完成"
}

func statusColored(completed bool) string {
	if completed {
		return text.FgHiGreen.Sprint(statusLabel(completed))
	}
	return text.FgHiBlue.Sprint(statusLabel(completed))
}

func init() {
	taskCmd.AddCommand(addTaskCmd)
	taskCmd.AddCommand(doneTaskCmd)
	taskCmd.AddCommand(deleteTaskCmd)
	rootCmd.AddCommand(taskCmd)
	taskCmd.PersistentFlags().StringVarP(&taskDate, "date", "d", "", "Day to show or schedule (YYYY-MM-DD, default today)")
	taskCmd.Flags().StringVarP(&taskFilter, "filter", "f", "", "Named filter: all, daily or overdue")
	addTaskCmd.Flags().StringVar(&taskCategory, "category", "工作", "Task category")
	addTaskCmd.Flags().StringVarP(&taskPriority, "priority", "p", string(models.PriorityMedium), "Priority: high, medium or low")
	addTaskCmd.Flags().BoolVar(&taskDaily, "daily", false, "Repeat the task every day")
}
