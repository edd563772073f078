// Package redis connects to the Redis server that backs the notification log.
//
// Connect parses a redis:// URL, pings with retries and returns a ready
// *redis.Client from github.com/redis/go-redis/v9. Healthcheck adapts the
// client to the readiness probe signature used by the HTTP server.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := notifications.NewRedisStore(client)
package redis
