/*
Package domain contains the core model of the vaudio engine.

It defines the four-signal vocabulary, resolved commands, the content graphs consumed by the
navigation state machine and the application state it owns. The package is pure: no I/O, no
timers, no persistence.

# Key Entities

  - Signal / Command: the atomic inputs 1..4 and the eight resolved commands built from them.
  - ProgramNode / Choice / ChoiceSlot: menu content, with single or cyclable list slots.
  - Scene / GameGraph: narrative content and the per-game command semantics.
  - AppState: the single-writer aggregate (mode, stack, pending selection, game state).
  - Event: the envelope carried by the event bus.
*/
package domain
