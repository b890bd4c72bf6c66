package validator

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/vaudio/internal/compiler"
	"github.com/aretw0/vaudio/internal/runtime"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/ports"
)

// NodeKind tells programs, games and scenes apart on the content map.
type NodeKind string

const (
	KindProgram NodeKind = "program"
	KindGame    NodeKind = "game"
	KindScene   NodeKind = "scene"
	KindExit    NodeKind = "exit"
)

// Node is a piece of content reached by the crawl. ID is its content path.
type Node struct {
	ID    string
	Kind  NodeKind
	Label string
}

// Edge is a navigation from one content path to another, labeled by the command key.
type Edge struct {
	From string
	To   string
	Key  domain.CommandKey
	Back bool
}

// Map is the reachable content graph, in crawl order.
type Map struct {
	Nodes []Node
	Edges []Edge
}

// Node returns the node with the given path.
func (m *Map) Node(id string) (Node, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Issue is one problem found while crawling.
type Issue struct {
	Path    string
	Problem string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Problem)
}

// Report is the result of Validate.
type Report struct {
	Map       Map
	Issues    []Issue
	Unreached []string
	Programs  int
	Games     int
	Scenes    int
	Extras    int
	visited   map[string]bool
}

// Err summarizes the issues, or returns nil when there are none.
// Unreached files are informational.
func (r *Report) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	lines := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		lines[i] = issue.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Issues), strings.Join(lines, "\n- "))
}

func (r *Report) issue(p, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: p, Problem: fmt.Sprintf(format, args...)})
}

func (r *Report) addNode(n Node) bool {
	if r.visited[n.ID] {
		return false
	}
	r.visited[n.ID] = true
	r.Map.Nodes = append(r.Map.Nodes, n)
	return true
}

type crawler struct {
	loader ports.ContentLoader
	parser *compiler.Parser
	report *Report
	queue  []string
}

// Validate crawls the content reachable from the initial menu and reports broken
// targets, unparsable files and missing scenes or extra frames.
// The program and game menus are crawled too when present.
func Validate(ctx context.Context, loader ports.ContentLoader, initial string) (*Report, error) {
	if initial == "" {
		initial = runtime.InitialMenuPath
	}
	c := &crawler{
		loader: loader,
		parser: compiler.NewParser(),
		report: &Report{visited: make(map[string]bool)},
	}

	if _, err := loader.Load(ctx, initial); err != nil {
		return nil, fmt.Errorf("initial menu %q: %w", initial, err)
	}
	c.queue = append(c.queue, initial)
	for _, optional := range []string{runtime.ProgramMenuPath, runtime.GameMenuPath} {
		if _, err := loader.Load(ctx, optional); err == nil {
			c.queue = append(c.queue, optional)
		}
	}

	for len(c.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		if strings.HasPrefix(next, runtime.GamesPrefix) && !strings.HasSuffix(next, ".json") {
			c.game(ctx, next)
			continue
		}
		c.program(ctx, next)
	}

	if lister, ok := loader.(ports.ContentLister); ok {
		c.unreached(ctx, lister)
	}
	return c.report, nil
}

func (c *crawler) load(ctx context.Context, p string) ([]byte, bool) {
	data, err := c.loader.Load(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrContentNotFound) {
			c.report.issue(p, "missing")
		} else {
			c.report.issue(p, "load error: %v", err)
		}
		return nil, false
	}
	return data, true
}

func (c *crawler) program(ctx context.Context, p string) {
	if c.report.visited[p] {
		return
	}
	data, ok := c.load(ctx, p)
	if !ok {
		c.report.visited[p] = true
		return
	}
	node, err := c.parser.ParseProgram(p, data)
	if err != nil {
		c.report.visited[p] = true
		c.report.issue(p, "%v", err)
		return
	}
	c.report.addNode(Node{ID: p, Kind: KindProgram, Label: node.Description})
	c.report.Programs++
	c.choices(p, node.Choices)
}

func (c *crawler) choices(from string, slots map[domain.CommandKey]*domain.ChoiceSlot) {
	for _, key := range domain.CommandKeys {
		slot, ok := slots[key]
		if !ok || slot == nil {
			continue
		}
		for _, choice := range slot.Options() {
			if choice.HasSubmenu() {
				c.choices(from, choice.Choices)
				continue
			}
			c.target(from, key, choice.Goto)
		}
	}
}

func (c *crawler) target(from string, key domain.CommandKey, target string) {
	switch {
	case target == "":
	case target == runtime.TargetExit:
		c.report.addNode(Node{ID: runtime.TargetExit, Kind: KindExit, Label: "exit"})
		c.edge(from, runtime.TargetExit, key, false)
	case target == runtime.TargetBack:
		c.edge(from, from, key, true)
	case strings.HasPrefix(target, runtime.TargetProgramRef):
		p := runtime.ProgramRoot + strings.TrimPrefix(target, runtime.TargetProgramRef)
		c.edge(from, p, key, false)
		c.queue = append(c.queue, p)
	case strings.HasPrefix(target, runtime.GamesPrefix):
		dir := gameDir(target)
		c.edge(from, dir, key, false)
		c.queue = append(c.queue, dir)
	default:
		c.report.issue(from, "choice %s has unsupported target %q", key, target)
	}
}

func (c *crawler) edge(from, to string, key domain.CommandKey, back bool) {
	c.report.Map.Edges = append(c.report.Map.Edges, Edge{From: from, To: to, Key: key, Back: back})
}

func (c *crawler) game(ctx context.Context, dir string) {
	if c.report.visited[dir] {
		return
	}
	mainPath := path.Join(dir, runtime.GameMainFile)
	data, ok := c.load(ctx, mainPath)
	if !ok {
		c.report.visited[dir] = true
		return
	}
	g, err := c.parser.ParseGame(mainPath, data)
	if err != nil {
		c.report.visited[dir] = true
		c.report.issue(mainPath, "%v", err)
		return
	}
	c.report.addNode(Node{ID: dir, Kind: KindGame, Label: firstNonEmpty(g.Title, g.ID)})
	c.report.Games++

	for _, key := range g.ExtraKeys() {
		p := path.Join(dir, g.Extra[key])
		c.report.visited[p] = true
		if data, ok := c.load(ctx, p); ok {
			if _, err := c.parser.ParseExtra(p, data); err != nil {
				c.report.issue(p, "%v", err)
				continue
			}
			c.report.Extras++
		}
	}

	entry := scenePath(dir, g.Entry)
	c.edge(dir, entry, "", false)
	scenes := []string{entry}
	for len(scenes) > 0 {
		p := scenes[0]
		scenes = scenes[1:]
		if c.report.visited[p] {
			continue
		}
		data, ok := c.load(ctx, p)
		if !ok {
			c.report.visited[p] = true
			continue
		}
		scene, err := c.parser.ParseScene(p, data)
		if err != nil {
			c.report.visited[p] = true
			c.report.issue(p, "%v", err)
			continue
		}
		c.report.addNode(Node{ID: p, Kind: KindScene, Label: firstNonEmpty(scene.Title, scene.ID)})
		c.report.Scenes++
		for _, key := range domain.CommandKeys {
			for _, branch := range scene.Choices[key] {
				if branch.Goto == "" {
					continue
				}
				next := scenePath(dir, branch.Goto)
				c.edge(p, next, key, false)
				scenes = append(scenes, next)
			}
		}
	}
}

// unreached lists content files the crawl never touched.
func (c *crawler) unreached(ctx context.Context, lister ports.ContentLister) {
	all, err := lister.List(ctx)
	if err != nil {
		return
	}
	for _, p := range all {
		if c.report.visited[p] || p == runtime.ConfigPath {
			continue
		}
		if path.Base(p) == runtime.GameMainFile && c.report.visited[path.Dir(p)] {
			continue
		}
		c.report.Unreached = append(c.report.Unreached, p)
	}
	sort.Strings(c.report.Unreached)
}

func gameDir(target string) string {
	dir := strings.TrimSuffix(strings.TrimSpace(target), "/")
	if strings.HasPrefix(path.Base(dir), "main.") {
		dir = path.Dir(dir)
	}
	return dir
}

func scenePath(dir, id string) string {
	p := path.Join(dir, id)
	if path.Ext(id) == "" {
		p += ".json"
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
