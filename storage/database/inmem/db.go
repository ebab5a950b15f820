package inmemdb

import (
	"sort"
	"sync"

	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/sheikh"
	"github.com/trezcool/loo7/core/student"
)

type (
	// DB is a process-local store. A single lock guards all tables so cascades are atomic.
	DB struct {
		sync.RWMutex
		seq     int64
		sheikh  map[string]*sheikhRow
		student map[string]*studentRow
		loo7    map[string]*loo7Row
	}

	sheikhRow struct {
		seq int64
		sheikh.Sheikh
	}

	studentRow struct {
		seq int64
		student.Student
	}

	loo7Row struct {
		seq int64
		loo7.Loo7
	}
)

func Open() *DB {
	return &DB{
		sheikh:  make(map[string]*sheikhRow),
		student: make(map[string]*studentRow),
		loo7:    make(map[string]*loo7Row),
	}
}

// next returns the next insertion sequence. Callers hold the write lock.
func (db *DB) next() int64 {
	db.seq++
	return db.seq
}

// loo7Where returns copies of the loo7 matching keep, in insertion order. Callers hold a lock.
func (db *DB) loo7Where(keep func(l loo7.Loo7) bool) []loo7.Loo7 {
	rows := make([]*loo7Row, 0)
	for _, r := range db.loo7 {
		if keep(r.Loo7) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	loo7s := make([]loo7.Loo7, 0, len(rows))
	for _, r := range rows {
		loo7s = append(loo7s, r.Loo7)
	}
	return loo7s
}
