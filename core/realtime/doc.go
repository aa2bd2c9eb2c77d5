// Package realtime bridges backend change notifications to local cache
// invalidation.
//
// A Bridge follows the session controller's group-change stream, keeps one
// subscription per watched record category scoped to the current group, and
// translates every notification into a coarse invalidation of that category.
// Precision is deliberately traded for correctness: any change drops every
// cached query of the category, so consumers refetch instead of reconciling
// payloads.
//
// RedisPubSub implements the subscription transport on Redis channels, and
// QueryCache is an LRU-backed query result cache that plugs into the bridge
// as its Invalidator:
//
//	queries := realtime.NewQueryCache[[]byte](128)
//	bridge := realtime.NewBridge(
//		realtime.NewRedisPubSub(client),
//		queries,
//		controller.GroupChanges(),
//	)
//	go bridge.Start(ctx)
//
// Subscription failures are logged and swallowed; stale data until the next
// refresh is preferable to surfacing transport errors to the UI.
package realtime
