// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/snappy"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

const eventSelect = "SELECT seq, blockNumber, blockTime, cmdID, origin, emitter, name, subject0, subject1, data FROM event"

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	return open(path, path+"?_journal=wal&cache=shared")
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return open(":memory:", ":memory:")
}

func open(path, dsn string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// single connection: writes are serialized and an in-memory db stays alive
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// Close close the log db.
func (db *LogDB) Close() error {
	_ = db.stmtCache.Close()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// FilterEvents returns events matching filter. A nil filter returns all.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, eventSelect+" ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := eventSelect + " WHERE 1"
	if filter.Range != nil {
		condition := "blockNumber"
		if filter.Range.Unit == Time {
			condition = "blockTime"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ?"
		}
	}
	for i, c := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if c.Emitter != nil {
			args = append(args, c.Emitter.Bytes())
			stmt += " AND emitter = ?"
		}
		if c.Name != "" {
			args = append(args, c.Name)
			stmt += " AND name = ?"
		}
		if c.Subject != nil {
			args = append(args, c.Subject.Bytes(), c.Subject.Bytes())
			stmt += " AND (subject0 = ? OR subject1 = ?)"
		}
		stmt += " )"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

// EventsAfter returns up to limit events with a sequence above seq.
func (db *LogDB) EventsAfter(ctx context.Context, seq int64, limit uint64) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(ctx, eventSelect+" WHERE seq > ? ORDER BY seq ASC LIMIT ?")
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, seq, limit)
	if err != nil {
		return nil, err
	}
	return scanEvents(ctx, rows)
}

// LastSeq returns the sequence of the newest event, 0 when empty.
func (db *LogDB) LastSeq(ctx context.Context) (int64, error) {
	stmt, err := db.stmtCache.Prepare(ctx, "SELECT MAX(seq) FROM event")
	if err != nil {
		return 0, err
	}
	var seq sql.NullInt64
	if err := stmt.QueryRowContext(ctx).Scan(&seq); err != nil {
		return 0, err
	}
	return seq.Int64, nil
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return scanEvents(ctx, rows)
}

func scanEvents(ctx context.Context, rows *sql.Rows) ([]*Event, error) {
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			ev                 Event
			cmdID, origin      []byte
			emitter            []byte
			subject0, subject1 []byte
			data               []byte
		)
		if err := rows.Scan(
			&ev.Seq,
			&ev.BlockNumber,
			&ev.BlockTime,
			&cmdID,
			&origin,
			&emitter,
			&ev.Name,
			&subject0,
			&subject1,
			&data,
		); err != nil {
			return nil, err
		}
		ev.CommandID = sq.BytesToBytes32(cmdID)
		ev.Origin = sq.BytesToAddress(origin)
		ev.Emitter = sq.BytesToAddress(emitter)
		for i, s := range [][]byte{subject0, subject1} {
			if len(s) > 0 {
				addr := sq.BytesToAddress(s)
				ev.Subjects[i] = &addr
			}
		}
		if len(data) > 0 {
			raw, err := snappy.Decode(nil, data)
			if err != nil {
				return nil, errors.Wrap(err, "decode event data")
			}
			ev.Data = raw
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func subjectValue(subjects []sq.Address, i int) []byte {
	if i >= len(subjects) {
		return nil
	}
	return subjects[i].Bytes()
}

// Batch collects the events of one block before writing them at once.
type Batch struct {
	db          *sql.DB
	blockNumber uint64
	blockTime   uint64
	events      []*xenv.Event
	cmds        []batchCmd
}

type batchCmd struct {
	id     sq.Bytes32
	origin sq.Address
	n      int
}

func (db *LogDB) NewBatch(blockNumber, blockTime uint64) *Batch {
	return &Batch{db: db.db, blockNumber: blockNumber, blockTime: blockTime}
}

// Insert appends the events emitted by one command.
func (b *Batch) Insert(cmdID sq.Bytes32, origin sq.Address, events []*xenv.Event) *Batch {
	b.events = append(b.events, events...)
	b.cmds = append(b.cmds, batchCmd{cmdID, origin, len(events)})
	return b
}

func (b *Batch) Len() int { return len(b.events) }

// Commit writes the batch in a single transaction. Events already stored
// at the same sequence are replaced.
func (b *Batch) Commit() (err error) {
	if len(b.events) == 0 {
		return nil
	}
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO event(seq, blockNumber, blockTime, cmdID, origin, emitter, name, subject0, subject1, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	index := 0
	for _, cmd := range b.cmds {
		for _, ev := range b.events[index : index+cmd.n] {
			var data []byte
			if len(ev.Data) > 0 {
				data = snappy.Encode(nil, ev.Data)
			}
			if _, err = stmt.Exec(
				int64(newSequence(b.blockNumber, uint32(index))),
				b.blockNumber,
				b.blockTime,
				cmd.id.Bytes(),
				cmd.origin.Bytes(),
				ev.Emitter.Bytes(),
				ev.Name,
				subjectValue(ev.Subjects, 0),
				subjectValue(ev.Subjects, 1),
				data,
			); err != nil {
				return fmt.Errorf("insert event %v/%v: %w", b.blockNumber, index, err)
			}
			index++
		}
	}
	return tx.Commit()
}
