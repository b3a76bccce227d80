package jsonfile

import (
	"encoding/json"
	"os"

	"github.com/stakedo/stakedo/internal/domain"
)

// TaskStore persists the active task set as tasks.json. The whole set is
// rewritten atomically on every mutation.
type TaskStore struct {
	dir *Dir
}

// NewTaskStore returns a task store rooted at dir.
func NewTaskStore(dir *Dir) *TaskStore {
	return &TaskStore{dir: dir}
}

// Load reads the active task set. Missing or corrupt files degrade to an
// empty set.
func (s *TaskStore) Load() ([]domain.Task, error) {
	data, err := os.ReadFile(s.dir.file(tasksFile))
	if err != nil {
		return nil, nil
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, nil
	}
	return tasks, nil
}

// Save atomically replaces the task set on disk.
func (s *TaskStore) Save(tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	return s.dir.writeAtomic(tasksFile, data)
}
