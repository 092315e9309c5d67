// Package broadcast provides an in-process, topic-keyed publish/subscribe
// hub with non-blocking delivery.
//
//	hub := broadcast.NewHub[SessionChange](8)
//	sub := hub.Subscribe(ctx, browserID)
//	defer sub.Close()
//	for msg := range sub.Receive() {
//		// ...
//	}
//
// Slow subscribers drop messages instead of stalling publishers.
package broadcast
