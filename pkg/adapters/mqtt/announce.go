package mqtt

import (
	"encoding/json"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
)

// Announcement is published on <topic>/out/<kind>.
type Announcement struct {
	Kind    domain.EventKind `json:"kind"`
	Key     string           `json:"key,omitempty"`
	Message string           `json:"message,omitempty"`
	Mode    string           `json:"mode,omitempty"`
	Node    string           `json:"node,omitempty"`
}

var announced = []domain.EventKind{
	domain.EventCommandExecuted,
	domain.EventMessage,
	domain.EventSelection,
	domain.EventProgramLoaded,
	domain.EventSceneChanged,
	domain.EventModeChanged,
	domain.EventExit,
}

// Announce publishes engine output under topic. The returned function detaches it.
// Publishing is fire-and-forget; a slow broker never blocks dispatch.
func Announce(bus *eventbus.Bus, p Publisher, topic string) (detach func()) {
	subs := make([]eventbus.Subscription, 0, len(announced))
	for _, kind := range announced {
		subs = append(subs, bus.Subscribe(kind, func(ev domain.Event) error {
			data, err := json.Marshal(announcement(ev))
			if err != nil {
				return err
			}
			p.Publish(topic+"/out/"+string(ev.Kind), 0, false, data)
			return nil
		}))
	}
	return func() {
		for _, s := range subs {
			bus.Unsubscribe(s)
		}
	}
}

func announcement(ev domain.Event) Announcement {
	a := Announcement{Kind: ev.Kind, Message: ev.Message}
	if ev.Command != nil {
		a.Key = string(ev.Command.Key)
	}
	str := func(k string) string {
		v, _ := ev.Data[k].(string)
		return v
	}
	switch ev.Kind {
	case domain.EventCommandExecuted:
		a.Mode = str("mode")
	case domain.EventSelection:
		a.Key = str("key")
		a.Message = str("label")
	case domain.EventProgramLoaded:
		a.Node = str("id")
	case domain.EventSceneChanged:
		a.Node = str("scene")
	case domain.EventModeChanged:
		a.Mode = str("to")
	}
	return a
}
