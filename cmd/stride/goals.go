package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/service"
)

var goalCmd = &cobra.Command{
	Use:     "goals",
	Short:   "List long-term goals",
	Aliases: []string{"g"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		goals, err := sess.svc.Goals.GetAll(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleDouble)
		t.Style().Options.SeparateRows = false
		t.AppendHeader(table.Row{
			text.FgGreen.Sprint("ID"), text.FgGreen.Sprint(text.Bold.Sprint("标题")),
			text.FgGreen.Sprint("分类"), text.FgGreen.Sprint("里程碑"),
			text.FgGreen.Sprint("进度"), text.FgGreen.Sprint("截止"),
		})
		for _, g := range goals {
			t.AppendRow(table.Row{
				g.ID,
				g.Title,
				g.Category,
				fmt.Sprintf("%d/%d", completedCount(g.Milestones), len(g.Milestones)),
				progressBar(g.Progress, 10),
				g.Deadline,
			})
		}
		t.Render()
		return nil
	},
}

var showGoalCmd = &cobra.Command{
	Use:     "show [goal ID]",
	Short:   "Show a goal and its milestones",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"s"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		g, err := findGoal(cmd, sess, args[0])
		if err != nil {
			return err
		}

		titleStyle := color.New(color.FgCyan, color.Bold).SprintFunc()
		metaStyle := color.New(color.FgHiGreen).SprintFunc()

		fmt.Printf("[%v] %v\n", titleStyle(g.ID), titleStyle(g.Title))
		fmt.Println(strings.Repeat("-", 50))
		fmt.Printf("Category: %v\n", metaStyle(g.Category))
		if g.Deadline != "" {
			fmt.Printf("Deadline: %v\n", metaStyle(g.Deadline))
		}
		fmt.Printf("Progress: %v\n\n", progressBar(g.Progress, 20))
		for i, m := range g.Milestones {
			check := "[ ]"
			if m.Completed {
				check = text.FgHiGreen.Sprint("[x]")
			}
			fmt.Printf("%2d. %s %s\n", i+1, check, m.Title)
		}
		return nil
	},
}

var checkGoalCmd = &cobra.Command{
	Use:   "check [goal ID] [milestone number]",
	Short: "Toggle a milestone of a goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid milestone number %q", args[1])
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		g, err := findGoal(cmd, sess, args[0])
		if err != nil {
			return err
		}
		updated, err := toggleMilestone(cmd.Context(), sess.svc.Goals, g, n)
		if err != nil {
			return err
		}
		color.Green("✅ %s: %d%%", updated.Title, updated.Progress)
		return nil
	},
}

var deleteGoalCmd = &cobra.Command{
	Use:     "delete [goal ID]",
	Short:   "Delete a goal and its milestones",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.svc.Goals.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		color.Green("✅ Goal %s has been deleted.", args[0])
		return nil
	},
}

func findGoal(cmd *cobra.Command, sess *session, id string) (models.Goal, error) {
	goals, err := sess.svc.Goals.GetAll(cmd.Context())
	if err != nil {
		return models.Goal{}, err
	}
	for _, g := range goals {
		if g.ID == id {
			return g, nil
		}
	}
	return models.Goal{}, fmt.Errorf("goal %s not found", id)
}

// toggleMilestone flips the nth (1-based) milestone of g. The write is
// guarded by g's revision.
func toggleMilestone(ctx context.Context, goals *service.Goals, g models.Goal, n int) (models.Goal, error) {
	if n < 1 || n > len(g.Milestones) {
		return models.Goal{}, fmt.Errorf("goal %s has no milestone %d", g.ID, n)
	}

	ms := append([]models.Milestone{}, g.Milestones...)
	ms[n-1].Completed = !ms[n-1].Completed
	return goals.Update(ctx, g.ID, models.GoalPatch{
		Milestones:       &ms,
		ExpectedRevision: models.Ptr(g.Revision),
	})
}

func completedCount(ms []models.Milestone) int {
	n := 0
	for _, m := range ms {
		if m.Completed {
			n++
		}
	}
	return n
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	return text.FgHiGreen.Sprint(strings.Repeat("█", filled)) +
		text.FgHiBlack.Sprint(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d%%", percent)
}

func init() {
	goalCmd.AddCommand(showGoalCmd)
	goalCmd.AddCommand(checkGoalCmd)
	goalCmd.AddCommand(deleteGoalCmd)
	rootCmd.AddCommand(goalCmd)
}
