// Package engine implements place-and-break exploit detection.
//
// A player who places a block and breaks it again would otherwise be paid
// twice by the reward system. The engine tags every player-placed block in
// the tag store, follows blocks moved by pistons, and answers whether a
// BREAK, TNTBREAK or PLACE action on a block should be denied a reward.
//
// ARCHITECTURE:
//
// Engine is synchronous: each operation makes at most one repository call
// and returns its error. Dispatcher wraps the mutations for event callbacks
// that must not block on storage; it shards tasks by location so that
// mutations of one location apply in submission order.
//
// Exploit checks are always synchronous, since the caller needs the verdict
// before paying the reward.
//
// TIME:
//
// Tags are stamped from an injectable Clock. An ephemeral tag stops counting
// once its age reaches the TTL (3s by default); the comparison is strict, so
// a tag exactly TTL old is no longer effective.
package engine
