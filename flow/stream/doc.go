// Package stream supplies the buffer collaborator for the block
// execution contract: a single-writer single-reader buffered stream
// carrying fixed-size items between two ports, plus the tag storage
// queried through the block tag interface.
//
// A Stream tracks absolute item positions that never reset. The write
// side reserves a window, fills it, and commits; the read side takes a
// window (history look-back included) and discards what the block
// consumed. Capacity grows as needed and old data is compacted away,
// always retaining the look-back the reader's history length demands.
package stream
