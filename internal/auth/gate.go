package auth

import "sync"

// Area is the navigation region the app shell should show.
type Area int

const (
	// AreaPublic holds the login and registration screens.
	AreaPublic Area = iota
	// AreaProtected holds the tabs and detail screens.
	AreaProtected
)

// Gate maps auth state to the navigation area and notifies listeners on
// transitions, driving the login/tabs redirect.
type Gate struct {
	mu        sync.Mutex
	area      Area
	listeners map[int]func(Area)
	nextID    int
	unsub     func()
}

func NewGate(session *Session) *Gate {
	g := &Gate{listeners: map[int]func(Area){}}
	g.unsub = session.OnAuthStateChanged(func(u *User) {
		g.set(areaFor(u))
	})
	return g
}

func (g *Gate) Area() Area {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.area
}

func (g *Gate) OnChange(fn func(Area)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	area := g.area
	g.mu.Unlock()

	fn(area)

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// Close detaches the gate from its session.
func (g *Gate) Close() {
	g.unsub()
}

func (g *Gate) set(area Area) {
	g.mu.Lock()
	changed := area != g.area
	g.area = area
	fns := make([]func(Area), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range fns {
		fn(area)
	}
}

func areaFor(u *User) Area {
	if u == nil {
		return AreaPublic
	}
	return AreaProtected
}
