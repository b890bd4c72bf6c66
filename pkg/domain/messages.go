package domain

import "strings"

// Messages holds the user-facing strings of the state machine.
// Templates may reference {path} and {goto}.
type Messages struct {
	CommandNotRecognized     string `json:"commandNotRecognized" mapstructure:"commandNotRecognized"`
	OptionNotAvailable       string `json:"optionNotAvailable" mapstructure:"optionNotAvailable"`
	ReturnNotAvailable       string `json:"returnNotAvailable" mapstructure:"returnNotAvailable"`
	ProgramLoadError         string `json:"programLoadError" mapstructure:"programLoadError"`
	GameLoadError            string `json:"gameLoadError" mapstructure:"gameLoadError"`
	SceneLoadError           string `json:"sceneLoadError" mapstructure:"sceneLoadError"`
	NavigationNotImplemented string `json:"navigationNotImplemented" mapstructure:"navigationNotImplemented"`
	ChoiceNotAvailable       string `json:"choiceNotAvailable" mapstructure:"choiceNotAvailable"`
	ExtraFrameError          string `json:"extraFrameError" mapstructure:"extraFrameError"`
	ExtraFrame               string `json:"extraFrame" mapstructure:"extraFrame"`
}

// DefaultMessages returns the built-in English strings.
func DefaultMessages() Messages {
	return Messages{
		CommandNotRecognized:     "Command not recognized.",
		OptionNotAvailable:       "Option not available.",
		ReturnNotAvailable:       "Return not available in this context.",
		ProgramLoadError:         "Failed to load program: {path}",
		GameLoadError:            "Failed to load game: {path}",
		SceneLoadError:           "Failed to load scene: {path}",
		NavigationNotImplemented: "Navigation not implemented: {goto}",
		ChoiceNotAvailable:       "Choice not available.",
		ExtraFrameError:          "Failed to load extra frame.",
		ExtraFrame:               "Extra frame {extra}: {description}",
	}
}

// Merge returns m with every empty field filled from fallback.
func (m Messages) Merge(fallback Messages) Messages {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Messages{
		CommandNotRecognized:     pick(m.CommandNotRecognized, fallback.CommandNotRecognized),
		OptionNotAvailable:       pick(m.OptionNotAvailable, fallback.OptionNotAvailable),
		ReturnNotAvailable:       pick(m.ReturnNotAvailable, fallback.ReturnNotAvailable),
		ProgramLoadError:         pick(m.ProgramLoadError, fallback.ProgramLoadError),
		GameLoadError:            pick(m.GameLoadError, fallback.GameLoadError),
		SceneLoadError:           pick(m.SceneLoadError, fallback.SceneLoadError),
		NavigationNotImplemented: pick(m.NavigationNotImplemented, fallback.NavigationNotImplemented),
		ChoiceNotAvailable:       pick(m.ChoiceNotAvailable, fallback.ChoiceNotAvailable),
		ExtraFrameError:          pick(m.ExtraFrameError, fallback.ExtraFrameError),
		ExtraFrame:               pick(m.ExtraFrame, fallback.ExtraFrame),
	}
}

// Format substitutes {name} placeholders in a template.
func Format(template string, args map[string]string) string {
	if len(args) == 0 {
		return template
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
