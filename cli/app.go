package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/config"
	"github.com/yllada/tunnel-tray/history"
	"github.com/yllada/tunnel-tray/keyring"
	"github.com/yllada/tunnel-tray/vpn"
)

// app is the object graph shared by the commands.
type app struct {
	store      *config.Store
	secrets    *lazySecrets
	runner     *vpn.ExecRunner
	controller *vpn.Controller
	logs       *vpn.LogRetriever
}

func newApp() (*app, error) {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}

	store, err := config.NewStore(common.ExpandHome(path))
	if err != nil {
		return nil, err
	}
	return newAppWithStore(store), nil
}

func newAppWithStore(store *config.Store) *app {
	secrets := &lazySecrets{}
	runner := vpn.NewExecRunner(vpn.ExecRunnerConfig{
		Elevation: store,
		Secrets:   secrets,
		Timeout:   func() time.Duration { return store.Snapshot().CommandTimeout },
	})
	controller := vpn.NewController(runner, vpn.IdentityFromConfig(store.Snapshot()))

	return &app{
		store:      store,
		secrets:    secrets,
		runner:     runner,
		controller: controller,
		logs:       vpn.NewLogRetriever(runner, controller),
	}
}

// newSession builds a Session over the app's controller. notifier and
// recorder may be nil. A missing tunnel client is logged once; the unit may
// still run it from a path outside ours.
func (a *app) newSession(notifier common.Notifier, recorder vpn.Recorder) *vpn.Session {
	a.runner.LookPath(common.ClientExecutable)

	cfg := a.store.Snapshot()
	return vpn.NewSession(a.controller, vpn.SessionConfig{
		PollInterval:        cfg.PollInterval,
		DoubleClickInterval: cfg.DoubleClickInterval,
		ShowWarning:         a.store.ShowWarning,
		Notifier:            notifier,
		Recorder:            recorder,
	})
}

// identity returns the bound identity or the error explaining why no unit
// can be controlled.
func (a *app) identity() (vpn.Identity, error) {
	id := a.controller.Identity()
	if err := id.Validate(); err != nil {
		return id, fmt.Errorf("%w (select one with \"tunnel-tray use NAME\")", err)
	}
	return id, nil
}

// openHistory opens the transition log. Failure is logged and yields a nil
// recorder: monitoring works without history.
func openHistory() (vpn.Recorder, func()) {
	path, err := history.DefaultPath()
	if err == nil {
		var store *history.Store
		if store, err = history.Open(path, common.HistoryKeep); err == nil {
			return store, func() { store.Close() }
		}
	}
	common.LogWarn("Transition history disabled: %v", err)
	return nil, func() {}
}

// lazySecrets opens the keyring on first use so commands that never elevate
// with a password do not touch it.
type lazySecrets struct {
	once  sync.Once
	store *keyring.Store
	err   error
}

func (l *lazySecrets) open() (*keyring.Store, error) {
	l.once.Do(func() {
		l.store, l.err = keyring.New(keyring.Options{})
	})
	return l.store, l.err
}

// Secret implements vpn.SecretSource.
func (l *lazySecrets) Secret() (string, error) {
	store, err := l.open()
	if err != nil {
		return "", err
	}
	return store.Secret()
}
