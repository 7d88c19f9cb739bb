package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehdry/flowline"
	"github.com/mehdry/flowline/internal/presentation/tui"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/schema"
	"github.com/mehdry/flowline/pkg/session"
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <file-or-name>",
	Short: "Run an interactive preview conversation",
	Long: `Starts a simulated chat against the automation. Type messages as the
contact would; delays play out in real time and buttons can be clicked by
number.

Commands inside the chat:
  /click <n>   click button n on the last message that had buttons
  /transcript  replay the full conversation so far
  exit, quit   leave the preview`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		record, err := loadRecord(cmd, args[0])
		if err != nil {
			fmt.Printf("Error loading automation: %v\n", err)
			os.Exit(1)
		}

		recipient, _ := cmd.Flags().GetString("recipient")
		fast, _ := cmd.Flags().GetBool("fast")

		if err := runPreview(cmd, record, recipient, fast); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runPreview(cmd *cobra.Command, record *schema.Automation, recipient string, fast bool) error {
	app := flowline.New(nil)
	if err := app.Save(cmd.Context(), record); err != nil {
		return err
	}

	opts := []session.PreviewOption{}
	if recipient != "" {
		opts = append(opts, session.WithRecipient(recipient, nil))
	}
	if fast {
		opts = append(opts,
			session.WithLatency(session.NoLatency),
			session.WithSleeper(func(time.Duration) {}),
		)
	}

	p, err := app.Preview(cmd.Context(), record.Name, opts...)
	if err != nil {
		return err
	}

	tui.PrintBanner()
	fmt.Printf("Previewing '%s'. Type a message, or 'exit' to leave.\n\n", record.Name)

	render := tui.NewRenderer()
	reader := bufio.NewReader(os.Stdin)

	// Step that produced the most recent buttons, for /click.
	var buttonStep string

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		text := strings.TrimSpace(line)

		switch {
		case text == "":
			continue
		case text == "exit" || text == "quit":
			fmt.Println("Bye!")
			return nil
		case text == "/transcript":
			for _, e := range p.Transcript() {
				printEntry(render, e)
			}
			continue
		case strings.HasPrefix(text, "/click"):
			index, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(text, "/click")))
			if err != nil {
				fmt.Println(tui.Status("Usage: /click <button number>"))
				continue
			}
			if buttonStep == "" {
				fmt.Println(tui.Status("No buttons to click yet."))
				continue
			}
			entries, err := p.ClickButton(cmd.Context(), buttonStep, index-1)
			if err != nil {
				fmt.Println(tui.Status(err.Error()))
				continue
			}
			buttonStep = printEntries(render, entries, buttonStep)
			continue
		}

		entries, err := p.SendMessage(cmd.Context(), text)
		if err != nil {
			fmt.Println(tui.Status(err.Error()))
		}
		buttonStep = printEntries(render, entries, buttonStep)
	}
}

func printEntries(render func(string) (string, error), entries []session.TranscriptEntry, buttonStep string) string {
	for _, e := range entries {
		if e.Direction == session.Inbound {
			continue // the user just typed it
		}
		printEntry(render, e)
		if e.Effect != nil && len(e.Effect.Buttons) > 0 {
			buttonStep = e.Effect.StepID
			for i, btn := range e.Effect.Buttons {
				fmt.Println(tui.Status(fmt.Sprintf("  [%d] %s (%s)", i+1, btn.Text, btn.Type)))
			}
		}
	}
	return buttonStep
}

func printEntry(render func(string) (string, error), e session.TranscriptEntry) {
	if e.Effect == nil {
		fmt.Println(tui.Status(e.Text))
		return
	}
	if e.Effect.Type == domain.EffectMessage {
		if out, err := render(e.Text); err == nil {
			fmt.Print(tui.Outbound(strings.TrimRight(out, "\n")) + "\n")
			return
		}
	}
	fmt.Println(tui.Outbound(e.Text))
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().String("recipient", "", "Phone number of the simulated contact")
	previewCmd.Flags().Bool("fast", false, "Skip typing pauses and play delays instantly")
}
