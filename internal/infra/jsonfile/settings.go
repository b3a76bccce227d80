package jsonfile

import (
	"encoding/json"
	"os"

	"github.com/stakedo/stakedo/internal/domain"
)

// SettingsStore persists the user settings as settings.json.
type SettingsStore struct {
	dir *Dir
}

// NewSettingsStore returns a settings store rooted at dir.
func NewSettingsStore(dir *Dir) *SettingsStore {
	return &SettingsStore{dir: dir}
}

// Load reads the settings file, merging whatever it finds over the hardcoded
// defaults. A missing file is seeded with the defaults; a corrupt file
// degrades to the defaults.
func (s *SettingsStore) Load() (domain.Settings, error) {
	data, err := os.ReadFile(s.dir.file(settingsFile))
	if os.IsNotExist(err) {
		def := domain.DefaultSettings()
		if err := s.Save(def); err != nil {
			return def, err
		}
		return def, nil
	}
	if err != nil {
		return domain.DefaultSettings(), nil
	}
	var loaded domain.Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return domain.DefaultSettings(), nil
	}
	return loaded.Merged(), nil
}

// Save writes the settings atomically.
func (s *SettingsStore) Save(settings domain.Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return s.dir.writeAtomic(settingsFile, data)
}
