package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/models"
)

var inboxSearch string
var inboxContent string
var inboxTags []string
var inboxMeta bool

var inboxCmd = &cobra.Command{
	Use:     "inbox",
	Short:   "List captured inspirations",
	Aliases: []string{"i"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		items, err := sess.svc.Inspirations.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		items = derive.SearchInspirations(items, inboxSearch)

		fmt.Println(strings.Repeat("=", 30))
		fmt.Printf("收集箱: %d 条\n", len(items))
		fmt.Println(strings.Repeat("=", 30))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleDouble)
		t.Style().Options.SeparateRows = false
		t.AppendHeader(table.Row{
			text.FgGreen.Sprint("ID"), text.FgGreen.Sprint(text.Bold.Sprint("标题")),
			text.FgGreen.Sprint("类型"), text.FgGreen.Sprint("标签"),
			text.FgGreen.Sprint("时间"),
		})
		for _, it := range items {
			t.AppendRow(table.Row{
				it.ID,
				it.Title,
				string(it.Type),
				text.FgCyan.Sprint(strings.Join(it.Tags, " ")),
				it.Timestamp,
			})
		}
		t.Render()
		return nil
	},
}

var showInboxCmd = &cobra.Command{
	Use:     "show [inspiration ID]",
	Short:   "Show an inspiration",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"s"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		it, err := sess.svc.Inspirations.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		titleStyle := color.New(color.FgCyan, color.Bold).SprintFunc()
		metaStyle := color.New(color.FgHiGreen).SprintFunc()

		fmt.Printf("[%v] %v\n", titleStyle(it.ID), titleStyle(it.Title))
		fmt.Println(strings.Repeat("-", 50))
		fmt.Printf("Type: %v\n", metaStyle(it.Type))
		fmt.Printf("Tags: %v\n", metaStyle(strings.Join(it.Tags, " ")))
		if it.ImageSrc != "" {
			fmt.Printf("Image: %v\n", metaStyle(it.ImageSrc))
		}
		if it.Duration != "" {
			fmt.Printf("Duration: %v\n", metaStyle(it.Duration))
		}
		fmt.Printf("Created: %v (%v)\n", metaStyle(it.CreatedAt.Format("2006-01-02 15:04")), metaStyle(it.Timestamp))

		if !inboxMeta && it.Content != "" {
			rendered, err := glamour.Render(it.Content, "dark")
			if err != nil {
				color.Yellow("⚠️ Failed to render content: %v", err)
				fmt.Println(it.Content)
			} else {
				fmt.Println(rendered)
			}
		}
		return nil
	},
}

var addInboxCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Capture a text inspiration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var title string
		if len(args) == 1 {
			title = strings.TrimSpace(args[0])
		}
		content := strings.TrimSpace(inboxContent)
		if title == "" && content == "" {
			return fmt.Errorf("a title or --content is required")
		}

		tags := []string{}
		for _, raw := range inboxTags {
			tags = derive.AddTag(tags, raw)
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		it, err := sess.svc.Inspirations.Create(cmd.Context(), models.InspirationPatch{
			Type:    models.Ptr(models.InspirationText),
			Title:   &title,
			Content: &content,
			Tags:    &tags,
		})
		if err != nil {
			return err
		}
		color.Green("✅ Inspiration %s has been captured.", it.ID)
		return nil
	},
}

var deleteInboxCmd = &cobra.Command{
	Use:     "delete [inspiration ID]",
	Short:   "Delete an inspiration",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.svc.Inspirations.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		color.Green("✅ Inspiration %s has been deleted.", args[0])
		return nil
	},
}

func init() {
	inboxCmd.AddCommand(showInboxCmd)
	inboxCmd.AddCommand(addInboxCmd)
	inboxCmd.AddCommand(deleteInboxCmd)
	rootCmd.AddCommand(inboxCmd)
	inboxCmd.Flags().StringVarP(&inboxSearch, "search", "q", "", "Search by title, content or tag")
	showInboxCmd.Flags().BoolVar(&inboxMeta, "meta", false, "Show only metadata without content")
	addInboxCmd.Flags().StringVar(&inboxContent, "content", "", "Body text")
	addInboxCmd.Flags().StringSliceVarP(&inboxTags, "tag", "t", []string{}, "Tags")
}
