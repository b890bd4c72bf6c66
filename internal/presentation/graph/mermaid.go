package graph

import (
	"fmt"
	"path"
	"strings"

	"github.com/aretw0/vaudio/internal/validator"
	"github.com/aretw0/vaudio/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromState marks the current program or scene and the visited scenes of a state.
func OverlayFromState(s *domain.AppState) *GraphOverlay {
	if s == nil {
		return nil
	}
	o := &GraphOverlay{}
	if s.Mode == domain.ModeGame && s.GamePath != "" {
		for _, id := range s.Game.History {
			o.VisitedNodes = append(o.VisitedNodes, scenePath(s.GamePath, id))
		}
		o.CurrentNode = scenePath(s.GamePath, s.Game.CurrentScene)
		return o
	}
	o.VisitedNodes = append(o.VisitedNodes, s.ProgramStack...)
	o.CurrentNode = s.ProgramPath
	return o
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a content map.
// It applies semantic styling:
// - Initial menu: ((Circle))
// - Game: [[Subroutine]]
// - Scene: ([Stadium])
// - Exit: {{Hexagon}}
// - Program: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(m validator.Map, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, node := range m.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case node.Kind == validator.KindGame:
			opener, closer = "[[", "]]"
		case node.Kind == validator.KindScene:
			opener, closer = "([", "])"
		case node.Kind == validator.KindExit:
			opener, closer = "{{", "}}"
		}

		label := node.ID
		switch {
		case node.Kind == validator.KindExit:
			label = "exit"
		case node.Label != "":
			label = fmt.Sprintf("%s <br/> %s", escape(node.Label), node.ID)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, e := range m.Edges {
		safeFrom := sanitizeMermaidID(e.From)
		safeTo := sanitizeMermaidID(e.To)

		// Crossing from menus into a game or between programs of different folders is a jump.
		isJump := path.Dir(e.From) != path.Dir(e.To)

		arrow := "-->"
		if isJump {
			arrow = "-.->"
		}
		if e.Key != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", e.Key)
			if isJump {
				arrow = fmt.Sprintf("-. \"%s\" .->", e.Key)
			}
		}
		if e.Back {
			arrow = fmt.Sprintf("-. ↩ %s .->", e.Key)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeFrom, arrow, safeTo))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func scenePath(dir, id string) string {
	if id == "" {
		return ""
	}
	p := path.Join(dir, id)
	if path.Ext(id) == "" {
		p += ".json"
	}
	return p
}

func sanitizeMermaidID(id string) string {
	if id == "*" {
		return "exit"
	}
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
