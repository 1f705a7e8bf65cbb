package db

import (
	"database/sql"

	"github.com/dori/dossier/internal/model"
)

// VisibilityStore keeps hide/show switches in the visibility table
type VisibilityStore struct {
	db *DB
}

// NewVisibilityStore creates a visibility backend on an open database
func NewVisibilityStore(db *DB) *VisibilityStore {
	return &VisibilityStore{db: db}
}

// Load returns every stored entry
func (s *VisibilityStore) Load() (map[int]model.Flags, error) {
	rows, err := s.db.Query(`
		SELECT task_index, note_hidden, images_hidden, videos_hidden, files_hidden
		FROM visibility
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := map[int]model.Flags{}
	for rows.Next() {
		var idx, note, images, videos, files int
		if err := rows.Scan(&idx, &note, &images, &videos, &files); err != nil {
			return nil, err
		}
		all[idx] = model.Flags{
			NoteHidden:   note == 1,
			ImagesHidden: images == 1,
			VideosHidden: videos == 1,
			FilesHidden:  files == 1,
		}
	}
	return all, rows.Err()
}

// Save replaces every entry
func (s *VisibilityStore) Save(all map[int]model.Flags) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM visibility`); err != nil {
			return err
		}
		for idx, f := range all {
			_, err := tx.Exec(`
				INSERT INTO visibility (task_index, note_hidden, images_hidden, videos_hidden, files_hidden)
				VALUES (?, ?, ?, ?, ?)
			`, idx, boolInt(f.NoteHidden), boolInt(f.ImagesHidden), boolInt(f.VideosHidden), boolInt(f.FilesHidden))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
