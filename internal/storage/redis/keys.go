package redis

// Key prefix for all roster data
const keyPrefix = "inittracker"

// charactersKey returns the Redis key of the hash holding every character
// (field = name, value = JSON). Keeping the roster in one key lets WATCH
// guard the whole of it.
func charactersKey() string {
	return keyPrefix + ":characters"
}
