/*
Package runner hosts an engine in a process: it starts the engine, attaches a renderer to
its event bus, runs the input sources that feed it, and returns when the exit target is
reached, the input is exhausted or the process is interrupted.

	eng, _ := vaudio.New("./content")
	r := runner.NewRunner(
		runner.WithRenderer(runner.NewTextRenderer(os.Stdout)),
		runner.WithSource(runner.NewLineSource(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, eng); err != nil {
		log.Fatal(err)
	}

Renderers implement ports.Renderer; the text renderer targets terminals and pipes, the
JSON renderer emits one object per line for machine consumers.
*/
package runner
