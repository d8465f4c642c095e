// Package stream implements the notification stream store on Redis Streams
// and in memory.
//
// Both stores give consumer groups the same visible behavior: an entry read
// with ">" is delivered to exactly one consumer in the group and stays pending
// until acknowledged or claimed. ClaimStale hands entries idle past a
// threshold to another consumer, which is how an entry left pending by a
// crash gets processed again. Retries of failed messages are new entries.
//
// RedisStore can cap a stream with an approximate MAXLEN on every append
// (WithMaxLen). The memory store never trims.
package stream
