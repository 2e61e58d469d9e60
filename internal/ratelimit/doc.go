/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides keyed rate limiters that the stub registry uses
// to reject requests with 429 Too Many Requests, like the real registry does.
//
// Two algorithms are available:
//   - leaky bucket (GCRA) on top of throttled/v2;
//   - sliding window on top of RussellLuo/slidingwindow.
package ratelimit
