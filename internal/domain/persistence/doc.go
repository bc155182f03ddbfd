/*
Package persistence snapshots the playground's source state to local durable
storage and restores it on start.

# Record

One flat JSON record under a fixed key (default "minicode-data"):

	{"html": "...", "css": "...", "js": "...", "theme": true, "layout": false}

Every field is optional on read. A missing or mistyped field falls back to
its default; an unparseable record counts as "nothing saved" and is logged
as a warning.

# Backends

  - file:   one JSON file per key, replaced atomically
  - sqlite: a key/value table in a local SQLite database (modernc.org/sqlite)
  - memory: process-local map, for tests and ephemeral runs

# Failure policy

Saves are best effort and never retried. After repeated consecutive write
failures the Store suspends writes for a cooldown so a broken disk does not
get hammered on every keystroke pause.
*/
package persistence
