/*
Package dsl provides a fluent Go API for programmatically constructing
automation graphs.

It lets developers define flows in type-safe Go instead of hand-writing
YAML or JSON records. This is particularly useful for dynamic graph
generation, unit testing, and leveraging IDE autocompletion.

Example usage:

	package main

	import (
		"github.com/mehdry/flowline/pkg/dsl"
	)

	func main() {
		b := dsl.New("welcome")

		b.Trigger("t1").Keywords("hello", "hi").To("greet")

		b.Message("greet").
			Text("Welcome! What can we do for you?").
			Button("See pricing").
			LinkButton("Visit site", "https://example.com").
			ButtonTo(0, "pricing")

		b.Message("pricing").Text("Plans start at $10/month.")

		g, err := b.Build()
		// ... run g through the engine or a preview
		_ = g
		_ = err
	}
*/
package dsl
