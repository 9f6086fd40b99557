package store

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/opencs408/workbook/internal/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id             TEXT PRIMARY KEY,
	subject_code   TEXT NOT NULL,
	chapter_num    TEXT NOT NULL,
	question_type  TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'draft',
	question_text  TEXT NOT NULL,
	option_a       TEXT,
	option_b       TEXT,
	option_c       TEXT,
	option_d       TEXT,
	correct_answer TEXT NOT NULL,
	explanation    TEXT,
	knowledge      TEXT,
	notes          TEXT,
	created_date   TEXT NOT NULL,
	last_modified  TEXT NOT NULL,
	image_path     TEXT
);

CREATE TABLE IF NOT EXISTS subjects (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chapters (
	subject_code TEXT,
	chapter_num  TEXT,
	name         TEXT NOT NULL,
	PRIMARY KEY (subject_code, chapter_num),
	FOREIGN KEY (subject_code) REFERENCES subjects(code)
);

CREATE INDEX IF NOT EXISTS questions_pair ON questions (subject_code, chapter_num);
`

// migrate creates the tables and seeds the subject table. Existing rows are
// kept.
func migrate(conn *sqlite.Conn) (err error) {
	defer sqlitex.Save(conn)(&err)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	for _, s := range catalog.Subjects {
		if err := sqlitex.Execute(conn,
			`INSERT OR IGNORE INTO subjects (code, name) VALUES (?, ?)`,
			&sqlitex.ExecOptions{Args: []any{string(s.Group), s.Name}}); err != nil {
			return fmt.Errorf("seeding subject %s: %w", s.Group, err)
		}
		for _, c := range s.Chapters {
			if err := sqlitex.Execute(conn,
				`INSERT OR IGNORE INTO chapters (subject_code, chapter_num, name) VALUES (?, ?, ?)`,
				&sqlitex.ExecOptions{Args: []any{string(s.Group), c.Key, c.Name}}); err != nil {
				return fmt.Errorf("seeding chapter %s%s: %w", s.Group, c.Key, err)
			}
		}
	}
	return nil
}
