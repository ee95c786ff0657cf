// Package graphcontrol holds the handle to a session's 3D renderer and the
// camera navigation built on top of it.
package graphcontrol

import (
	"strings"
	"sync"
	"time"

	"coursegraph/domain/graph"
)

const (
	// ZoomDistance is how far the camera stands off from a focused node
	ZoomDistance = 500.0
	// CameraTransition is the animation length of every camera move
	CameraTransition = 1500 * time.Millisecond

	originEpsilon = 1e-6
)

// DefaultCamera is where ResetView puts the camera
var DefaultCamera = graph.Vec3{Z: 400}

// Renderer is the live force-graph view of one session
type Renderer interface {
	// GraphData returns the renderer's current nodes, in its own order, with
	// their live coordinates.
	GraphData() graph.Snapshot
	// CameraPosition animates the camera to position, looking at lookAt.
	CameraPosition(position, lookAt graph.Vec3, transition time.Duration)
}

// CourseInfo describes a course and the modules it links to
type CourseInfo struct {
	Course  graph.Node
	Modules []graph.Node
}

// ModuleNames returns the module names in node order
func (c CourseInfo) ModuleNames() []string {
	names := make([]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		names = append(names, m.Name)
	}
	return names
}

// Store is the graph control state of one session. Every navigation
// operation is a no-op while no renderer is mounted. Store is safe for
// concurrent use.
type Store struct {
	mu        sync.RWMutex
	renderer  Renderer
	selection Selection
}

// NewStore creates an empty store with nothing mounted
func NewStore() *Store {
	return &Store{}
}

// Mount attaches the renderer the store drives
func (s *Store) Mount(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = r
}

// Unmount detaches the current renderer
func (s *Store) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = nil
}

// Mounted reports whether a renderer is attached
func (s *Store) Mounted() bool {
	return s.current() != nil
}

func (s *Store) current() Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderer
}

// Snapshot returns the mounted renderer's current data
func (s *Store) Snapshot() (graph.Snapshot, bool) {
	r := s.current()
	if r == nil {
		return graph.Snapshot{}, false
	}
	return r.GraphData(), true
}

// ZoomToNode moves the camera onto the node with the given id. It reports
// whether a camera move was issued.
func (s *Store) ZoomToNode(id string) bool {
	r := s.current()
	if r == nil {
		return false
	}
	node, ok := r.GraphData().NodeByID(id)
	if !ok {
		return false
	}
	r.CameraPosition(CameraFor(node.Position()), node.Position(), CameraTransition)
	return true
}

// CameraFor returns the camera position ZoomDistance beyond target along the
// ray from the origin. A target at the origin has no ray, so the camera goes
// on the +z axis above it instead.
func CameraFor(target graph.Vec3) graph.Vec3 {
	length := target.Length()
	if length < originEpsilon {
		return target.Add(graph.Vec3{Z: ZoomDistance})
	}
	return target.Scale(1 + ZoomDistance/length)
}

// SearchNode returns the first node whose name or id contains query, ignoring case
func (s *Store) SearchNode(query string) (graph.Node, bool) {
	snap, ok := s.Snapshot()
	if !ok {
		return graph.Node{}, false
	}
	return snap.FindByName(query, nil)
}

// FocusOnCourse zooms to the first course matching name and returns it
func (s *Store) FocusOnCourse(name string) (graph.Node, bool) {
	course, ok := s.findCourse(name)
	if !ok {
		return graph.Node{}, false
	}
	s.ZoomToNode(course.ID)
	return course, true
}

// ResetView puts the camera back to its default position over the origin
func (s *Store) ResetView() {
	if r := s.current(); r != nil {
		r.CameraPosition(DefaultCamera, graph.Origin, CameraTransition)
	}
}

// CourseInfo resolves a course by name and collects the modules linked from it
func (s *Store) CourseInfo(name string) (CourseInfo, bool) {
	snap, ok := s.Snapshot()
	if !ok {
		return CourseInfo{}, false
	}
	course, ok := findCourse(snap, name)
	if !ok {
		return CourseInfo{}, false
	}
	return CourseInfo{
		Course:  course,
		Modules: snap.Targets(course.ID, graph.OfType(graph.NodeTypeModule)),
	}, true
}

// CourseNames lists the course node names of the mounted graph
func (s *Store) CourseNames() []string {
	snap, ok := s.Snapshot()
	if !ok {
		return nil
	}
	return snap.NamesOf(graph.NodeTypeCourse)
}

func (s *Store) findCourse(name string) (graph.Node, bool) {
	snap, ok := s.Snapshot()
	if !ok {
		return graph.Node{}, false
	}
	return findCourse(snap, name)
}

// findCourse matches course names only, unlike SearchNode which also matches ids
func findCourse(snap graph.Snapshot, name string) (graph.Node, bool) {
	q := strings.ToLower(name)
	for _, n := range snap.Nodes {
		if n.Type == graph.NodeTypeCourse && strings.Contains(strings.ToLower(n.Name), q) {
			return n, true
		}
	}
	return graph.Node{}, false
}
