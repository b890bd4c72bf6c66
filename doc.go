/*
Package vaudio is an engine for accessible interactive fiction driven by four input signals.

Every supported device (keyboard, pointer, game controller, touch screen, voice) is reduced
to the signals 1 to 4. A timing-window resolver turns them into commands: a single signal, or
one of the legal pairs 1+2, 1+4, 3+2 and 3+4 when two arrive close together. Commands drive a
navigation state machine over two kinds of content:

  - Programs: menus whose choices are selected with a single signal and confirmed with 3+4.
    A choice may open a nested menu, jump to another program ("@/file.json"), go back ("-"),
    enter a game ("games/<id>") or exit ("*").
  - Games: scene graphs where each command maps to a semantic action (choice, menu, info,
    repeat) declared by the game.

Everything the state machine does is published on an event bus, so renderers, metrics and
remote clients observe the same stream.

# Usage

	engine, err := vaudio.New("./content")
	if err != nil {
		log.Fatal(err)
	}
	if err := engine.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer engine.Stop()

	engine.Bus().Subscribe(domain.EventMessage, func(ev domain.Event) error {
		fmt.Println(ev.Message)
		return nil
	})

	// Feed raw device input; the resolver decides between singles and pairs.
	engine.Input(ctx, "keyboard", []byte(`{"key":"w"}`))

	<-engine.Done()

Content is read from a directory by default. Use WithLoader to serve it from memory, Redis or
a Loam repository instead.
*/
package vaudio
