// Package accountsync implements the client-side data synchronization layer of
// a telecom self-service portal: a keyed read cache with stale-while-revalidate
// semantics and per-key versions guarding late fetch results.
//
// Components:
//   - Cache[V]: per-resource-key async read cache. Fresh entries are served
//     synchronously; stale or absent entries trigger exactly one coalesced
//     fetch per key, and failed fetches keep the last good value for display
//     continuity.
//   - store.Store[S]: named, persisted state container that hydrates once at
//     startup and writes back on every update (subpackage store).
//   - recent.List: bounded most-recently-used login account list.
//   - mutation.Flow[I, R]: validate -> submit -> message lifecycle shared by
//     every settings/plan form.
//
// Staleness pattern:
//
//	st := cache.Read(ctx, "billing:2026-08", fetchBilling, accountsync.ReadOptions{
//	    Disabled: !session.Authenticated,
//	})
//	// st.HasData may be true even while st.Status is error: consumers keep
//	// rendering the previous value during revalidation.
//
// Invalidation bumps the entry version, so a fetch that started before the
// invalidation can never overwrite a newer refresh.
package accountsync
