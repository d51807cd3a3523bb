package indexer

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sureshkumar/semdesk/internal/semerr"
)

// checkpoint records bookkeeping about the last successful persist, written
// as a small YAML sidecar next to the vector index file so a restart can
// tell whether the previous shutdown flushed its pending mutations.
type checkpoint struct {
	PersistedAt time.Time `yaml:"persisted_at"`
	Polls       int       `yaml:"polls_since_previous"`
	Clean       bool      `yaml:"clean_shutdown"`
}

func checkpointPath(indexPath string) string {
	return indexPath + ".checkpoint.yaml"
}

// loadCheckpoint reads the sidecar for indexPath. A missing file is not an
// error: it just means no checkpoint has ever been written.
func loadCheckpoint(indexPath string) (checkpoint, error) {
	data, err := os.ReadFile(checkpointPath(indexPath))
	if err != nil {
		if os.IsNotExist(err) {
			return checkpoint{}, nil
		}
		return checkpoint{}, semerr.Wrap(semerr.CodeIO, "read indexer checkpoint", err)
	}

	var cp checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return checkpoint{}, semerr.Wrap(semerr.CodeIO, "parse indexer checkpoint", err)
	}
	return cp, nil
}

func saveCheckpoint(indexPath string, cp checkpoint) error {
	data, err := yaml.Marshal(cp)
	if err != nil {
		return semerr.Wrap(semerr.CodeInternal, "marshal indexer checkpoint", err)
	}
	if err := os.WriteFile(checkpointPath(indexPath), data, 0o644); err != nil {
		return semerr.Wrap(semerr.CodeIO, "write indexer checkpoint", err)
	}
	return nil
}
