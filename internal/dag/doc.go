// Package dag is a small directed graph used to order items by their
// dependencies. Nodes are identified by string IDs and remember the order in
// which they were added, so every traversal it offers is deterministic.
package dag
