/*
Package dsl builds vaudio content in Go instead of JSON files.

The builder produces the same documents a content directory would hold and serves them
from an in-memory loader, which is handy for tests and generated content.

	b := dsl.New()

	b.Menu("Main menu").
		Choice(domain.KeyOne, "Play", dsl.GameTarget("demo")).
		Choice(domain.KeyFour, "Quit", dsl.Exit)

	b.Game("demo", "Demo").
		Command(domain.KeyOne, domain.ActionChoice).
		Scene("start", "Start", "A dark room.").
		Go(domain.KeyOne, "Light the lamp", "lit").
		Scene("lit", "Lit", "You can see.")

	loader, err := b.Build()
	// ... vaudio.New(".", vaudio.WithLoader(loader))
*/
package dsl
