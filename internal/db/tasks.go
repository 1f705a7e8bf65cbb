package db

import (
	"database/sql"
	"time"

	"github.com/dori/dossier/internal/model"
	"github.com/dori/dossier/internal/pathlist"
	"github.com/google/uuid"
)

// TaskStore keeps the task list in the tasks table, ordered by position
type TaskStore struct {
	db *DB
}

// NewTaskStore creates a task backend on an open database
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// Load returns all tasks in list order
func (s *TaskStore) Load() ([]model.Task, error) {
	rows, err := s.db.Query(`
		SELECT id, title, completed, note, images, videos, files, project_folder
		FROM tasks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var completed int
		var images, videos, files string
		err := rows.Scan(&t.ID, &t.Title, &completed, &t.Note, &images, &videos, &files, &t.ProjectFolder)
		if err != nil {
			return nil, err
		}
		t.Completed = completed == 1
		t.Images = pathlist.Decode(images)
		t.Videos = pathlist.Decode(videos)
		t.Files = pathlist.Decode(files)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save replaces the stored list in one transaction. Tasks without an ID
// are given one.
func (s *TaskStore) Save(tasks []model.Task) error {
	now := time.Now()
	return s.db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO tasks (id, position, title, completed, note, images, videos, files, project_folder, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range tasks {
			id := t.ID
			if id == "" {
				id = uuid.New().String()
			}
			completed := 0
			if t.Completed {
				completed = 1
			}
			_, err := stmt.Exec(id, i, t.Title, completed, t.Note,
				pathlist.Encode(t.Images), pathlist.Encode(t.Videos), pathlist.Encode(t.Files),
				t.ProjectFolder, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
