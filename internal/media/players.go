package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition describes how to invoke one program per attachment type.
type PlayerDefinition struct {
	Description string      `toml:"description"`
	Platforms   []string    `toml:"platforms"`
	Image       *PlayerArgs `toml:"image,omitempty"`
	Video       *PlayerArgs `toml:"video,omitempty"`
	Audio       *PlayerArgs `toml:"audio,omitempty"`
	PDF         *PlayerArgs `toml:"pdf,omitempty"`
}

type PlayerArgs struct {
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type playersFile struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

// PlayerRegistry holds the built-in player definitions plus any from the
// user's players.toml.
type PlayerRegistry struct {
	players map[string]PlayerDefinition
}

func NewPlayerRegistry(userFiles ...string) (*PlayerRegistry, error) {
	var builtin playersFile
	if err := toml.Unmarshal(playersTOML, &builtin); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}
	r := &PlayerRegistry{players: builtin.Players}
	for _, path := range userFiles {
		if err := r.merge(path); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// UserPlayersPath is where user player overrides are read from.
func UserPlayersPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "daybook", "players.toml")
}

// merge overlays definitions from path. A missing file is not an error.
func (r *PlayerRegistry) merge(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var user playersFile
	if err := toml.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, def := range user.Players {
		r.players[name] = def
	}
	return nil
}

// Command builds the invocation of player for ref. Players without a
// definition are run with ref as their only argument.
func (r *PlayerRegistry) Command(player string, t Type, ref string) (*exec.Cmd, error) {
	def, ok := r.players[player]
	if !ok {
		return exec.Command(player, ref), nil
	}
	if !slices.Contains(def.Platforms, runtime.GOOS) {
		return nil, fmt.Errorf("%s not supported on %s", player, runtime.GOOS)
	}

	var args *PlayerArgs
	switch t {
	case TypeImage:
		args = def.Image
	case TypeVideo:
		args = def.Video
	case TypeAudio:
		args = def.Audio
	case TypePDF:
		args = def.PDF
	}
	if args == nil {
		return nil, fmt.Errorf("%s does not handle %s attachments", player, t)
	}
	return exec.Command(player, append(args.forPlatform(), ref)...), nil
}

func (a *PlayerArgs) forPlatform() []string {
	var specific []string
	switch runtime.GOOS {
	case "darwin":
		specific = a.ArgsDarwin
	case "linux":
		specific = a.ArgsLinux
	case "windows":
		specific = a.ArgsWindows
	}
	if len(specific) > 0 {
		return slices.Clone(specific)
	}
	return slices.Clone(a.Args)
}
