package redis

import "fmt"

// Key prefix for all omok data
const keyPrefix = "omok"

// userKeyPrefix is userKey without the id, for the insert script.
func userKeyPrefix() string {
	return keyPrefix + ":user:"
}

// userKey returns the key holding a user record.
func userKey(id int64) string {
	return fmt.Sprintf("%s%d", userKeyPrefix(), id)
}

// usernameIndexKey returns the key of the username -> user id index.
// Claiming it in insertUserScript is what makes usernames unique.
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// userSeqKey is the INCR counter for user ids.
func userSeqKey() string {
	return fmt.Sprintf("%s:seq:user", keyPrefix)
}

// matchKey returns the key holding a match record.
func matchKey(id int64) string {
	return fmt.Sprintf("%s:match:%d", keyPrefix, id)
}

// matchSeqKey is the INCR counter for match ids.
func matchSeqKey() string {
	return fmt.Sprintf("%s:seq:match", keyPrefix)
}

// userMatchesKey returns the ZSET of a user's match ids scored by
// played_at in unix milliseconds.
func userMatchesKey(userID int64) string {
	return fmt.Sprintf("%s:idx:user_matches:%d", keyPrefix, userID)
}

// matchMember encodes a match id as a ZSET member. Zero padding makes the
// lexicographic tie order for equal scores match numeric id order.
func matchMember(id int64) string {
	return fmt.Sprintf("%020d", id)
}
