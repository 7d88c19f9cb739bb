/*
Package flowline is a builder and preview engine for customer-messaging
automations: graphs of typed steps (messages, conditions, delays, data
inputs, AI responses, API calls) matched to inbound messages by a trigger
and walked deterministically by a runtime engine.

It separates the automation definition (Graph) from the execution state
(RunState) and side-effects (Effects). The engine never sends anything
itself; every walk returns the ordered list of effects for the host to
deliver. This Hexagonal Architecture allows flowline to be embedded in any
interface: CLI, HTTP server, or MCP agent infrastructure.

# Key Features

  - Deterministic Execution: Given the same graph, state and message, the
    walk is always reproducible.
  - Suspension: data_input steps pause the run for an answer; delay steps
    suspend it with a resume deadline. Both persist as plain RunState.
  - Preview Sessions: simulate a full conversation, including button
    clicks and delay playback, without touching a live channel.
  - Strict Contracts: graph compilation validates step configs and edge
    integrity up front.

# Usage

Store an automation record, then preview it:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/mehdry/flowline"
		"github.com/mehdry/flowline/pkg/domain"
		"github.com/mehdry/flowline/pkg/schema"
	)

	func main() {
		app := flowline.New(nil)
		ctx := context.Background()

		err := app.Save(ctx, &schema.Automation{
			Name: "welcome",
			Workflow: []schema.StepRecord{
				{ID: "t1", Type: domain.StepTypeTrigger, Config: map[string]any{
					"type": "keyword", "keywords": []any{"hello"},
				}},
				{ID: "m1", Type: domain.StepTypeMessage, Config: map[string]any{
					"text": "Hi {{first_name}}!",
				}},
			},
			Connections: []schema.EdgeRecord{{From: "t1", To: "m1"}},
		})
		if err != nil {
			log.Fatal(err)
		}

		p, err := app.Preview(ctx, "welcome")
		if err != nil {
			log.Fatal(err)
		}

		entries, _ := p.SendMessage(ctx, "hello")
		for _, e := range entries {
			fmt.Println(e.Direction, e.Text)
		}
	}
*/
package flowline
