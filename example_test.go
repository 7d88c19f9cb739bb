package flowline_test

import (
	"context"
	"fmt"
	"log"

	"github.com/mehdry/flowline"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/schema"
	"github.com/mehdry/flowline/pkg/session"
)

// ExampleNew demonstrates storing an automation and previewing it without
// any external backend. This is how builders test an automation before
// publishing it to a live channel.
func ExampleNew() {
	app := flowline.New(nil)
	ctx := context.Background()

	// 1. Define the automation: a keyword trigger followed by one message.
	err := app.Save(ctx, &schema.Automation{
		Name: "welcome",
		Workflow: []schema.StepRecord{
			{ID: "t1", Type: domain.StepTypeTrigger, Config: map[string]any{
				"type": "keyword", "keywords": []any{"hello"},
			}},
			{ID: "m1", Type: domain.StepTypeMessage, Config: map[string]any{
				"text": "Welcome aboard!",
			}},
		},
		Connections: []schema.EdgeRecord{{From: "t1", To: "m1"}},
	})
	if err != nil {
		log.Fatal(err)
	}

	// 2. Start a preview conversation. NoLatency skips the cosmetic
	// typing pauses so the transcript comes back immediately.
	p, err := app.Preview(ctx, "welcome", session.WithLatency(session.NoLatency))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Send an inbound message and print what happened.
	entries, err := p.SendMessage(ctx, "hello")
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range entries {
		fmt.Println(e.Direction, e.Text)
	}

	// Output:
	// inbound hello
	// outbound Welcome aboard!
}

// ExampleApp_Validate shows builder-time linting of a stored automation.
func ExampleApp_Validate() {
	app := flowline.New(nil)
	ctx := context.Background()

	// A message step with no trigger anywhere in the graph.
	err := app.Save(ctx, &schema.Automation{
		Name: "draft",
		Workflow: []schema.StepRecord{
			{ID: "m1", Type: domain.StepTypeMessage, Config: map[string]any{
				"text": "Nobody can reach me.",
			}},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	issues, err := app.Validate(ctx, "draft")
	if err != nil {
		log.Fatal(err)
	}
	for _, issue := range issues {
		fmt.Println(issue)
	}

	// Output:
	// warning: no trigger step: the automation can never match an inbound message
}
