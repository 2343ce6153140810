// Package graph wires blocks into a flowgraph: sample connections
// backed by streams, message-group subscriptions, and a deterministic
// topological execution order.
//
// Graphs are built either programmatically (Add/Connect/MsgConnect,
// then Wire) or from a JSON/YAML description resolved against a
// [Registry] of block factories.
package graph
