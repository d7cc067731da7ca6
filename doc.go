// Package bakery is the back office API for a small bakery business.
//
// Accounts:
//   - Registration creates an unverified account and mails an activation
//     link. Login is blocked until the link is followed; disabled
//     accounts and unverified accounts fail with distinct errors so the
//     client can explain what to do next.
//   - Sessions are opaque random credentials stored as SHA-512 digests.
//     A user may hold several at once and all of them are revoked when
//     the password changes.
//
// Confirmation tokens:
//   - Activation and password reset links carry signed tokens bound to
//     the account state they were minted against. Changing the password,
//     logging in, or completing verification invalidates the matching
//     outstanding links without any server-side bookkeeping.
//
// Email:
//   - Outbound mail goes through a Dispatcher that queues notifications
//     and retries transient Mailgun failures with exponential backoff, so
//     provider hiccups never fail the originating request.
//
// The inventory subpackage tracks pastry types, raw materials, and
// production batches.
package bakery
