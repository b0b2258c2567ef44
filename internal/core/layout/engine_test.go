package layout

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Ning0612/Filegraph/internal/core/graph"
	"github.com/Ning0612/Filegraph/internal/core/hierarchy"
	"github.com/Ning0612/Filegraph/internal/domain"
)

type fixture struct {
	t     *testing.T
	ix    *hierarchy.Index
	model *graph.Model
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, ix: hierarchy.NewIndex(), model: graph.New()}
}

func (f *fixture) add(path, parent string, size int64) {
	f.t.Helper()
	d, err := f.ix.Add(domain.FileRecord{Path: path, ParentDir: parent, Size: size})
	if err != nil {
		f.t.Fatalf("Add(%s) error = %v", path, err)
	}
	if err := f.model.Apply(d); err != nil {
		f.t.Fatalf("Apply(%s) error = %v", path, err)
	}
}

func quiet() Params {
	p := DefaultParams()
	p.ChargeStrength = 0
	p.CenterStrength = 0
	p.CollidePadding = 0
	return p
}

func run(e *Engine, max int) int {
	n := 0
	for n < max && e.Tick() {
		n++
	}
	return n
}

func TestEngine_ConvergesAndStops(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 20; i++ {
		f.add(fmt.Sprintf("/r/d%d/f%d", i%3, i), fmt.Sprintf("d%d", i%3), int64(i*10))
	}
	e := New(DefaultParams(), WithSeed(1))
	e.Sync(f.model)

	steps := run(e, 1000)
	if steps < 290 || steps > 310 {
		t.Errorf("converged after %d ticks, want about 300", steps)
	}
	if e.Active() || e.Tick() {
		t.Error("engine still active after convergence")
	}
	for _, n := range e.Nodes() {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Fatalf("node %s has NaN position", n.ID)
		}
	}
}

func TestEngine_PinnedNodeHoldsWhileRecordsArrive(t *testing.T) {
	f := newFixture(t)
	f.add("/r/a.txt", ".", 10)
	f.add("/r/sub/b.txt", "sub", 20)

	e := New(DefaultParams(), WithSeed(2))
	e.Sync(f.model)
	run(e, 10)

	if err := e.Pin("dir:sub", 123.5, -42); err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	for i := 0; i < 15; i++ {
		f.add(fmt.Sprintf("/r/sub/more%d", i), "sub", int64(i))
		e.Sync(f.model)
		run(e, 5)

		n, _ := e.Node("dir:sub")
		if n.X != 123.5 || n.Y != -42 || n.VX != 0 || n.VY != 0 {
			t.Fatalf("pinned node moved to (%v, %v) after record %d", n.X, n.Y, i)
		}
	}

	if err := e.Unpin("dir:sub"); err != nil {
		t.Fatalf("Unpin() error = %v", err)
	}
	e.Reheat(0.5)
	run(e, 5)
	if n, _ := e.Node("dir:sub"); n.X == 123.5 && n.Y == -42 {
		t.Error("unpinned node did not resume moving")
	}
}

func TestEngine_PinnedNodeStillPushesOthers(t *testing.T) {
	f := newFixture(t)
	f.add("/r/a", ".", 1)
	f.add("/r/b", ".", 1)

	p := quiet()
	p.ChargeStrength = -300
	e := New(p, WithSeed(3))
	e.Sync(f.model)

	if err := e.Pin("file:/r/a", 400, 300); err != nil {
		t.Fatal(err)
	}
	if err := e.Pin(domain.RootID, 400, 320); err != nil {
		t.Fatal(err)
	}
	before, _ := e.Node("file:/r/b")
	run(e, 50)
	after, _ := e.Node("file:/r/b")
	if before.X == after.X && before.Y == after.Y {
		t.Error("free node felt no force from pinned neighbours")
	}
}

func TestEngine_SetParamsKeepsPositions(t *testing.T) {
	f := newFixture(t)
	f.add("/r/a", ".", 5)

	p := quiet()
	p.LinkDistance = 100
	e := New(p, WithSeed(4))
	e.Sync(f.model)
	run(e, 1000)

	if d := distance(e, domain.RootID, "file:/r/a"); math.Abs(d-100) > 1 {
		t.Fatalf("link length = %v, want about 100", d)
	}

	before := e.Nodes()
	p.LinkDistance = 40
	if err := e.SetParams(p); err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}
	after := e.Nodes()
	for i := range before {
		if before[i].X != after[i].X || before[i].Y != after[i].Y {
			t.Fatalf("SetParams() moved %s", before[i].ID)
		}
	}
	if !e.Active() {
		t.Fatal("SetParams() did not reheat")
	}

	run(e, 1000)
	if d := distance(e, domain.RootID, "file:/r/a"); math.Abs(d-40) > 1 {
		t.Errorf("link length = %v, want about 40", d)
	}
}

func TestEngine_CollideSeparatesOverlap(t *testing.T) {
	f := newFixture(t)
	f.add("/r/a", ".", 100)
	f.add("/r/b", ".", 100)

	p := quiet()
	p.LinkDistance = MinLinkDistance
	p.CollidePadding = 5
	e := New(p, WithSeed(5))
	e.Sync(f.model)
	// start the two files on top of each other
	_ = e.Pin("file:/r/a", 300, 300)
	_ = e.Pin("file:/r/b", 300, 300)
	_ = e.Unpin("file:/r/a")
	_ = e.Unpin("file:/r/b")
	run(e, 1000)

	na, _ := e.Node("file:/r/a")
	nb, _ := e.Node("file:/r/b")
	want := na.Radius + nb.Radius + 2*p.CollidePadding
	if d := distance(e, "file:/r/a", "file:/r/b"); d < want*0.9 {
		t.Errorf("files overlap: distance %v, want >= %v", d, want)
	}
}

func TestEngine_SyncSpawnsNearParentAndDrops(t *testing.T) {
	f := newFixture(t)
	f.add("/r/a", ".", 1)
	e := New(DefaultParams(), WithSeed(6))
	e.Sync(f.model)
	run(e, 400)
	if e.Active() {
		t.Fatal("expected convergence")
	}

	f.add("/r/deep/x", "deep", 1)
	e.Sync(f.model)
	if !e.Active() || e.Alpha() < reheatAlpha {
		t.Errorf("adding nodes did not reheat, alpha = %v", e.Alpha())
	}
	if d := distance(e, domain.RootID, "dir:deep"); math.Abs(d-spawnRadius) > 1e-9 {
		t.Errorf("new dir spawned %v from parent, want %v", d, spawnRadius)
	}

	f.model.Reset()
	e.Sync(f.model)
	if e.Len() != 0 || len(e.Links()) != 0 {
		t.Errorf("Sync() after reset kept %d nodes", e.Len())
	}
}

func TestEngine_PinUnknownNode(t *testing.T) {
	e := New(DefaultParams())
	if err := e.Pin("nope", 0, 0); !errors.Is(err, domain.ErrNodeNotFound) {
		t.Errorf("Pin() = %v, want ErrNodeNotFound", err)
	}
	if err := e.Unpin("nope"); !errors.Is(err, domain.ErrNodeNotFound) {
		t.Errorf("Unpin() = %v, want ErrNodeNotFound", err)
	}
}

func TestEngine_NodeAt(t *testing.T) {
	f := newFixture(t)
	f.add("/r/a", ".", 1)
	e := New(DefaultParams(), WithSeed(7))
	e.Sync(f.model)
	_ = e.Pin(domain.RootID, 0, 0)
	_ = e.Pin("file:/r/a", 100, 100)

	tests := []struct {
		x, y float64
		want string
		ok   bool
	}{
		{0, 0, domain.RootID, true},
		{5, 5, domain.RootID, true},
		{100, 103, "file:/r/a", true},
		{50, 50, "", false},
	}
	for _, tt := range tests {
		got, ok := e.NodeAt(tt.x, tt.y)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NodeAt(%v, %v) = %q, %v; want %q, %v", tt.x, tt.y, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEngine_TickCallback(t *testing.T) {
	f := newFixture(t)
	f.add("/r/a", ".", 1)
	e := New(DefaultParams(), WithSeed(8))
	e.Sync(f.model)

	var frames []Frame
	e.OnTick(func(fr Frame) { frames = append(frames, fr) })
	run(e, 3)
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if len(frames[0].Nodes) != 2 || len(frames[0].Links) != 1 {
		t.Errorf("frame = %+v", frames[0])
	}
	if !(frames[2].Alpha < frames[0].Alpha) {
		t.Error("alpha did not cool")
	}
}

func TestEngine_DragTargetKeepsWarm(t *testing.T) {
	e := New(DefaultParams())
	run(e, 1000)
	if e.Active() {
		t.Fatal("empty engine should converge")
	}
	e.SetAlphaTarget(DragAlphaTarget)
	run(e, 500)
	if !e.Active() || e.Alpha() < 0.29 {
		t.Errorf("alpha = %v, want near the drag target", e.Alpha())
	}
	e.SetAlphaTarget(0)
	run(e, 1000)
	if e.Active() {
		t.Error("engine did not cool after drag ended")
	}
}

func TestEngine_Reset(t *testing.T) {
	f := newFixture(t)
	f.add("/r/a", ".", 1)
	e := New(DefaultParams())
	e.Sync(f.model)
	e.SetAlphaTarget(0.3)
	e.Reset()
	if e.Len() != 0 || e.Alpha() != alphaStart {
		t.Errorf("Reset() left len=%d alpha=%v", e.Len(), e.Alpha())
	}
	if _, ok := e.Node(domain.RootID); ok {
		t.Error("Reset() kept nodes")
	}
}

func distance(e *Engine, a, b string) float64 {
	na, _ := e.Node(a)
	nb, _ := e.Node(b)
	return math.Hypot(na.X-nb.X, na.Y-nb.Y)
}
