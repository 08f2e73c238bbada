package vpn

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

var homeTunnel = Identity{Template: "tunnel", Instance: "home"}

func TestController_Commands(t *testing.T) {
	runner := newFakeRunner()
	c := NewController(runner, homeTunnel)
	ctx := context.Background()

	c.Start(ctx)
	c.IsActive(ctx)
	c.Stop(ctx)

	want := []string{
		"systemctl start tunnel@home",
		"systemctl is-active tunnel@home",
		"systemctl stop tunnel@home",
	}
	if got := runner.commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if !runner.calls[0].opts.Elevate || !runner.calls[2].opts.Elevate {
		t.Error("start and stop must request elevation")
	}
	if q := runner.calls[1].opts; q.Elevate || !q.Quiet {
		t.Errorf("is-active opts = %+v, want unelevated and quiet", q)
	}
}

func TestController_ExitCodes(t *testing.T) {
	tests := []struct {
		verb     string
		code     int
		want     bool
		expected string
	}{
		{"start", 0, true, "start ok"},
		{"start", 1, false, "start failed"},
		{"stop", 5, false, "stop failed"},
		{"is-active", 0, true, "active"},
		{"is-active", 3, false, "inactive"},
		{"is-active", ExitNotFound, false, "systemctl missing"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			runner := newFakeRunner()
			runner.script(tt.verb, tt.code)
			c := NewController(runner, homeTunnel)

			var got bool
			switch tt.verb {
			case "start":
				got = c.Start(context.Background())
			case "stop":
				got = c.Stop(context.Background())
			case "is-active":
				got = c.IsActive(context.Background())
			}
			if got != tt.want {
				t.Errorf("%s = %v, want %v", tt.verb, got, tt.want)
			}
		})
	}
}

func TestController_StartIsIdempotent(t *testing.T) {
	runner := newFakeRunner()
	c := NewController(runner, homeTunnel)
	ctx := context.Background()

	if !c.Start(ctx) || !c.Start(ctx) {
		t.Fatal("Start() on an active unit should still succeed")
	}
	if !c.IsActive(ctx) {
		t.Error("IsActive() after a successful Start() should be true")
	}
}

func TestController_NoInstance(t *testing.T) {
	runner := newFakeRunner()
	c := NewController(runner, Identity{Template: "tunnel"})
	ctx := context.Background()

	if c.Start(ctx) || c.Stop(ctx) || c.IsActive(ctx) {
		t.Error("commands without an instance must report false")
	}
	if n := len(runner.commands()); n != 0 {
		t.Errorf("no command should run without an instance, ran %d", n)
	}
}

func TestController_Serialized(t *testing.T) {
	runner := newFakeRunner()
	runner.delay = 10 * time.Millisecond
	c := NewController(runner, homeTunnel)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); c.Start(ctx) }()
		go func() { defer wg.Done(); c.Stop(ctx) }()
		go func() { defer wg.Done(); c.IsActive(ctx) }()
	}
	wg.Wait()

	if p := runner.peak(); p != 1 {
		t.Errorf("peak concurrent commands = %d, want 1", p)
	}
}

func TestController_RestartAndRebind(t *testing.T) {
	runner := newFakeRunner()
	c := NewController(runner, homeTunnel)
	ctx := context.Background()

	if !c.Restart(ctx) {
		t.Fatal("Restart() should succeed")
	}

	office := Identity{Template: "tunnel", Instance: "office"}
	c.Rebind(office)
	if c.Identity() != office {
		t.Errorf("Identity() = %v, want %v", c.Identity(), office)
	}
	c.IsActive(ctx)

	want := []string{
		"systemctl stop tunnel@home",
		"systemctl start tunnel@home",
		"systemctl is-active tunnel@office",
	}
	if got := runner.commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

func TestLogRetriever_Fetch(t *testing.T) {
	runner := newFakeRunner()
	runner.output["journalctl"] = []byte("-- Logs begin --\nstarted\n")
	runner.script("journalctl", 1)
	c := NewController(runner, homeTunnel)
	logs := NewLogRetriever(runner, c)

	out := logs.Fetch(context.Background())
	if string(out) != "-- Logs begin --\nstarted\n" {
		t.Errorf("Fetch() = %q, want partial output on nonzero exit", out)
	}

	c.Rebind(Identity{Template: "tunnel", Instance: "lab"})
	logs.Fetch(context.Background())

	cmds := runner.commands()
	if cmds[0] != "journalctl -b --no-pager -u tunnel@home" {
		t.Errorf("command = %q", cmds[0])
	}
	if cmds[1] != "journalctl -b --no-pager -u tunnel@lab" {
		t.Errorf("log retriever should follow rebinds, got %q", cmds[1])
	}

	runner.mu.Lock()
	elevated := runner.calls[0].opts.Elevate
	runner.mu.Unlock()
	if !elevated {
		t.Error("journalctl should follow the elevation settings")
	}
}

func TestLogReport_Header(t *testing.T) {
	tests := []struct {
		report   LogReport
		want     string
		expected string
	}{
		{LogReport{Unit: "tunnel@home", Address: "10.0.0.2"}, "tunnel@home  IP: 10.0.0.2", "with address"},
		{LogReport{Unit: "tunnel@home"}, "tunnel@home  IP: none", "without address"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.report.Header(); got != tt.want {
				t.Errorf("Header() = %q, want %q", got, tt.want)
			}
		})
	}

	r := LogReport{Unit: "tunnel@home", Text: []byte("started\n")}
	if got := r.String(); got != "tunnel@home  IP: none\n\nstarted\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestReport_NoInterface(t *testing.T) {
	runner := newFakeRunner()
	runner.output["journalctl"] = []byte("line\n")
	logs := NewLogRetriever(runner, NewController(runner, homeTunnel))

	r := logs.Report(context.Background(), "")
	if r.Unit != "tunnel@home" || r.Address != "" || string(r.Text) != "line\n" {
		t.Errorf("Report() = %+v", r)
	}
}

func TestDiscoverInstances(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"office.conf", "home.conf", "lab.conf", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0600); err != nil {
			t.Fatal(err)
		}
	}

	names, err := DiscoverInstances(filepath.Join(dir, "*.conf"))
	if err != nil {
		t.Fatalf("DiscoverInstances() error = %v", err)
	}
	if want := []string{"home", "lab", "office"}; !reflect.DeepEqual(names, want) {
		t.Errorf("DiscoverInstances() = %v, want %v", names, want)
	}

	ok, err := HasInstance(filepath.Join(dir, "*.conf"), "lab")
	if err != nil || !ok {
		t.Errorf("HasInstance(lab) = %v, %v", ok, err)
	}
	ok, _ = HasInstance(filepath.Join(dir, "*.conf"), "notes")
	if ok {
		t.Error("HasInstance(notes) should be false")
	}

	empty, err := DiscoverInstances(filepath.Join(dir, "*.ovpn"))
	if err != nil || len(empty) != 0 {
		t.Errorf("no matches = %v, %v", empty, err)
	}

	if _, err := DiscoverInstances("[bad"); err == nil || !strings.Contains(err.Error(), "[bad") {
		t.Errorf("malformed pattern error = %v", err)
	}
}

func TestUnitInfoFromProperties(t *testing.T) {
	props := map[string]any{
		"Description":            "4over6 client for home",
		"LoadState":              "loaded",
		"ActiveState":            "active",
		"SubState":               "running",
		"ActiveEnterTimestamp":   uint64(1700000000000000),
		"InactiveEnterTimestamp": uint64(0),
	}

	info := unitInfoFromProperties("tunnel@home", props)
	if info.ActiveState != "active" || info.SubState != "running" || info.LoadState != "loaded" {
		t.Errorf("states = %+v", info)
	}
	if !info.ActiveSince.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("ActiveSince = %v", info.ActiveSince)
	}
	if !info.InactiveSince.IsZero() {
		t.Errorf("InactiveSince = %v, want zero", info.InactiveSince)
	}
}
