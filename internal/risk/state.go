package risk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"FXSentinel/internal/model"
)

// LoadState reads the brake state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*model.BrakeState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.BrakeState{}, nil
		}
		return nil, errors.Wrap(err, "read brake state")
	}
	var state model.BrakeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrapf(err, "decode brake state %s", filePath)
	}
	return &state, nil
}

// SaveState writes the brake state to a JSON file.
func SaveState(filePath string, state *model.BrakeState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode brake state")
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create state directory")
		}
	}
	return errors.Wrap(os.WriteFile(filePath, data, 0644), "write brake state")
}
