/*
Package dbf implements an indexed flat-file record store in the style of the
old xBase data files: one fixed-width data file per table plus a separate
index file holding one or more ordered keyed indexes.

We implement:

1. Tables, collections of fixed-width rows described by a schema of typed,
fixed-width fields.

2. Indexes, ordered maps from a composite key to a row position. An index is
either unique (duplicate keys rejected) or non-unique (ties broken by row
position). The first index of a table is its primary index and must be unique.

3. Scans, lazy ordered cursors over an index, optionally restricted to a key
prefix, skipping soft-deleted rows.

# Technical Details

**Data file.**
`data/<table>.dbf` holds fixed-width rows with no header. Each row is a
one-byte delete flag (' ' live, '*' deleted) followed by every field encoded
at its declared width. A row's position is its zero-based ordinal; the file
size is always a multiple of the row length.

**Index file.**
`data/<table>.ndx` is a Bolt database with one bucket per index plus a meta
bucket. Keys are the concatenation of the constituent fields' fixed-width
encodings, so lexicographic order on the stored bytes equals the intended
sort order. A unique index maps key -> big-endian row position; a non-unique
index appends the big-endian position to the key and stores an empty value.

**Table state.**
The meta bucket holds a msgpack document with the schema fingerprint, row
counts and index descriptors. If the document is missing, the fingerprint
does not match, or the recorded total row count disagrees with the data file,
every index is rebuilt from a sequential scan of the data.

**Soft delete and pack.**
Deleting a row flips its flag byte in place; index entries are not touched
and scans skip flagged rows. Pack rewrites the data file without deleted rows
(temp file, then atomic rename) and rebuilds every index.
*/
package dbf
