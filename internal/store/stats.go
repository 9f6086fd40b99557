package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/opencs408/workbook/internal/catalog"
)

// GroupStats counts the records of one group.
type GroupStats struct {
	Group catalog.Group
	Name  string
	Total int
	Kinds map[catalog.Kind]int
}

// Stats summarizes the bank.
type Stats struct {
	Total    int
	ByStatus map[catalog.Status]int
	Groups   []GroupStats // known groups in display order, then unknown ones
}

// Stats counts records per group and kind, and per status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByStatus: make(map[catalog.Status]int)}
	index := make(map[catalog.Group]int)
	for _, subj := range catalog.Subjects {
		index[subj.Group] = len(st.Groups)
		st.Groups = append(st.Groups, GroupStats{Group: subj.Group, Name: subj.Name, Kinds: make(map[catalog.Kind]int)})
	}

	err := s.with(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`SELECT subject_code, question_type, COUNT(*) FROM questions
			GROUP BY subject_code, question_type ORDER BY subject_code, question_type`,
			&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
				g := catalog.Group(stmt.ColumnText(0))
				n := stmt.ColumnInt(2)
				i, ok := index[g]
				if !ok {
					i = len(st.Groups)
					index[g] = i
					st.Groups = append(st.Groups, GroupStats{Group: g, Name: g.Name(), Kinds: make(map[catalog.Kind]int)})
				}
				st.Groups[i].Kinds[catalog.Kind(stmt.ColumnText(1))] += n
				st.Groups[i].Total += n
				st.Total += n
				return nil
			}})
		if err != nil {
			return err
		}
		return sqlitex.Execute(conn, `SELECT status, COUNT(*) FROM questions GROUP BY status`,
			&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
				st.ByStatus[catalog.Status(stmt.ColumnText(0))] = stmt.ColumnInt(1)
				return nil
			}})
	})
	if err != nil {
		return Stats{}, fmt.Errorf("counting records: %w", err)
	}
	return st, nil
}
