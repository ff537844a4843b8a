// Package badger implements storage.ObjectStore on an embedded
// BadgerDB instance: the local durable backend.
//
// Each stored object occupies two keys written in one transaction: the
// blob itself ("batobj:{logical path}") and a creation-time index entry
// ("batidx:{timestamp}{id}") whose fixed-width BigEndian layout makes
// lexicographic iteration chronological, so List is a reverse index
// walk with no blob reads.
package badger
