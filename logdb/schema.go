// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// seq is the sequence of (blockNumber, index) and the cursor of the event
// feed. data is snappy compressed json.
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	blockNumber INTEGER NOT NULL,
	blockTime INTEGER NOT NULL,
	cmdID BLOB NOT NULL,
	origin BLOB NOT NULL,
	emitter BLOB NOT NULL,
	name TEXT NOT NULL,
	subject0 BLOB,
	subject1 BLOB,
	data BLOB
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(blockTime);
CREATE INDEX IF NOT EXISTS event_i1 ON event(emitter, name);
CREATE INDEX IF NOT EXISTS event_i2 ON event(subject0);
CREATE INDEX IF NOT EXISTS event_i3 ON event(subject1);
CREATE INDEX IF NOT EXISTS event_i4 ON event(cmdID);
`
