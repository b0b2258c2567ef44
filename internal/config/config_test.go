package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ning0612/Filegraph/internal/domain"
)

func TestLoadFromString_Defaults(t *testing.T) {
	cfg, err := LoadFromString("")
	if err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}

	if cfg.Server.Addr != "localhost:8000" || cfg.Server.Workers != 8 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Client.ServerURL != "http://localhost:8000" || cfg.Client.DialTimeout != 10*time.Second {
		t.Errorf("client defaults = %+v", cfg.Client)
	}
	p := cfg.Layout.Params()
	if p.LinkDistance != 50 || p.ChargeStrength != -100 || p.CenterStrength != 0.1 || p.CollidePadding != 2 {
		t.Errorf("layout defaults = %+v", p)
	}
	if cfg.Layout.TickInterval != 33*time.Millisecond || cfg.Layout.IdleInterval != 250*time.Millisecond {
		t.Errorf("tick intervals = %v, %v", cfg.Layout.TickInterval, cfg.Layout.IdleInterval)
	}
	if cfg.Log.RedactHome {
		t.Error("RedactHome should default to false")
	}
	if cfg.View.MinScale != 0.1 || cfg.View.MaxScale != 8 || !cfg.View.ShowLabels {
		t.Errorf("view defaults = %+v", cfg.View)
	}
}

func TestLoadFromString_Overrides(t *testing.T) {
	yaml := `
server:
  addr: ":9000"
  folders:
    - /srv/photos
    - /srv/music
  workers: 4
layout:
  link_distance: 120
  charge_strength: -300
  tick_interval: 16ms
log:
  level: debug
  console: none
  redact_home: true
`
	cfg, err := LoadFromString(yaml)
	if err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.Workers != 4 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if len(cfg.Server.Folders) != 2 || cfg.Server.Folders[0] != "/srv/photos" {
		t.Errorf("folders = %v", cfg.Server.Folders)
	}
	if cfg.Layout.LinkDistance != 120 || cfg.Layout.ChargeStrength != -300 || cfg.Layout.TickInterval != 16*time.Millisecond {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	// untouched keys keep their defaults
	if cfg.Layout.CenterStrength != 0.1 {
		t.Errorf("CenterStrength = %v", cfg.Layout.CenterStrength)
	}
	if s := cfg.Log.Settings(); s.Level != "debug" || s.Console != "none" || !s.RedactHome {
		t.Errorf("log settings = %+v", s)
	}
}

func TestLoadFromString_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero workers", "server:\n  workers: 0\n"},
		{"duplicate folder", "server:\n  folders: [/a, /a]\n"},
		{"link distance out of range", "layout:\n  link_distance: 500\n"},
		{"positive charge", "layout:\n  charge_strength: 10\n"},
		{"idle faster than tick", "layout:\n  tick_interval: 100ms\n  idle_interval: 50ms\n"},
		{"inverted view extent", "view:\n  min_scale: 4\n  max_scale: 2\n"},
		{"file log without path", "log:\n  file:\n    enabled: true\n    path: \"\"\n"},
		{"malformed yaml", "server: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.yaml)
			if !errors.Is(err, domain.ErrConfigInvalid) {
				t.Errorf("LoadFromString() error = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FILEGRAPH_CLIENT_SERVER_URL", "http://scanner:8000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Client.ServerURL != "http://scanner:8000" {
		t.Errorf("ServerURL = %q, want env override", cfg.Client.ServerURL)
	}
}

func TestResolveFolders(t *testing.T) {
	base := t.TempDir()
	for _, d := range []string{"beta", "alpha", ".cache"} {
		if err := os.Mkdir(filepath.Join(base, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(base, "notes.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	s := ServerConfig{
		Folders:     []string{"/srv/first", filepath.Join(base, "alpha")},
		FoldersBase: base,
	}
	got, err := s.ResolveFolders()
	if err != nil {
		t.Fatalf("ResolveFolders() error = %v", err)
	}
	want := []string{filepath.Clean("/srv/first"), filepath.Join(base, "alpha"), filepath.Join(base, "beta")}
	if len(got) != len(want) {
		t.Fatalf("ResolveFolders() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("folder[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	s.FoldersBase = filepath.Join(base, "missing")
	if _, err := s.ResolveFolders(); err == nil {
		t.Error("ResolveFolders() with a missing base returned nil error")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("FG_TEST_DIR", "/data")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/scans", filepath.Join(home, "scans")},
		{"$FG_TEST_DIR/x", filepath.Clean("/data/x")},
		{"/a/./b/", filepath.Clean("/a/b")},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
