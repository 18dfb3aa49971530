// Package redis opens go-redis clients from configuration.
//
// [Open] validates the URL (redis:// or rediss://), applies pool and timeout
// settings from [Config] and retries the initial PING. [Healthcheck] and
// [Shutdown] plug the client into readiness probes and shutdown hooks:
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//	    return err
//	}
//
//	app := forgecore.New(
//	    forgecore.WithEventPublisher(events.NewRedisPublisher(client, "")),
//	    forgecore.WithHealthChecks(
//	        forgecore.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	    ),
//	)
//	return app.Run(cfg.Address, forgecore.ShutdownHook(redis.Shutdown(client)))
package redis
