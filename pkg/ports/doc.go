/*
Package ports defines the driven ports (interfaces) of the vaudio engine.

These interfaces decouple the navigation core from content storage, presentation and input
transports.

# Key Interfaces

  - ContentLoader: loads raw program, game, scene and config files (file system, Markdown, Redis, memory).
  - Renderer: the render/message sink.
  - CommandSource: the single "next resolved command" suspension point of the run loop.
  - InputSource: a device reader pushing signals into a Controller (terminal, MQTT).
  - Controller: the surface used by network transports to inject signals and read state.
*/
package ports
