package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// State is what a later run needs to keep appending clients to a server.
type State struct {
	Name       string `toml:"name"`
	Address    string `toml:"address"`
	ListenPort uint16 `toml:"listen_port"`
	Clients    int    `toml:"clients"`
	Encoding   string `toml:"encoding"`
}

func LoadState(layout Layout, name string) (*State, error) {
	var st State
	if _, err := toml.DecodeFile(layout.StatePath(name), &st); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrServerNotFound, name)
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if st.Name != name {
		return nil, fmt.Errorf("%w: state belongs to %q", ErrStateMismatch, st.Name)
	}
	return &st, nil
}

func saveState(layout Layout, st State) error {
	f, err := os.OpenFile(layout.StatePath(st.Name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(st); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return f.Close()
}
