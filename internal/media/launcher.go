package media

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/daybook/internal/config"
	"github.com/pders01/daybook/internal/debuglog"
)

var ErrNoAttachment = errors.New("day has no attachment")

// Launcher opens a day's attachment in an external program.
type Launcher struct {
	players  map[Type]string
	opener   string
	registry *PlayerRegistry
	detector *TypeDetector
	// start runs the built command; tests replace it.
	start func(*exec.Cmd) error
	// lookPath resolves candidate programs; tests replace it.
	lookPath func(string) (string, error)
}

func NewLauncher(cfg *config.MediaConfig) (*Launcher, error) {
	registry, err := NewPlayerRegistry(UserPlayersPath())
	if err != nil {
		return nil, err
	}
	detector, err := NewTypeDetector()
	if err != nil {
		return nil, err
	}
	l := &Launcher{
		registry: registry,
		detector: detector,
		start:    startDetached,
		lookPath: exec.LookPath,
	}
	l.configure(cfg)
	return l, nil
}

func (l *Launcher) configure(cfg *config.MediaConfig) {
	l.opener = cfg.DefaultOpener
	if l.opener == "" {
		l.opener = l.detector.DefaultOpener()
	}

	var players config.MediaPlayers
	switch runtime.GOOS {
	case "linux":
		players = cfg.Linux
	case "windows":
		players = cfg.Windows
	default:
		players = cfg.Darwin
	}

	l.players = map[Type]string{
		TypeImage: l.firstAvailable(players.Image),
		TypeVideo: l.firstAvailable(players.Video),
		TypeAudio: l.firstAvailable(players.Audio),
		TypePDF:   l.firstAvailable(players.PDF),
	}
}

func (l *Launcher) firstAvailable(candidates []string) string {
	for _, c := range candidates {
		if _, err := l.lookPath(c); err == nil {
			return c
		}
	}
	return ""
}

// Command resolves the program and arguments that would open ref.
func (l *Launcher) Command(ref string) (*exec.Cmd, error) {
	if ref == "" {
		return nil, ErrNoAttachment
	}
	t := l.detector.DetectType(ref)
	player := l.players[t]
	if player == "" {
		player = l.opener
	}
	if player == "" {
		return nil, fmt.Errorf("no application found to open %s attachment", t)
	}

	cmd, err := l.registry.Command(player, t, ref)
	if err != nil {
		debuglog.Debugf("player %s rejected %s: %v, using plain invocation", player, ref, err)
		cmd = exec.Command(player, ref)
	}
	return cmd, nil
}

// Open starts the program for ref without waiting for it to exit.
func (l *Launcher) Open(ref string) error {
	cmd, err := l.Command(ref)
	if err != nil {
		return err
	}
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
