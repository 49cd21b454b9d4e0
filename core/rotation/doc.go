// Package rotation assigns the session role catalog to a rotating pool of
// participants.
//
// The roster is sorted by participant id into a ring. Each session takes the
// next group of catalog-size participants from the ring, starting at the
// rotation cursor. Main roles are filled one by one, preferring participants
// that never held the role and breaking ties uniformly at random. Table-topic
// roles go to the group members left over, in ring order.
//
// The generator keeps no state between calls besides its random source: the
// history and the cursor are passed in and the updated values are returned.
package rotation
