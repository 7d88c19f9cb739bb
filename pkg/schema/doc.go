/*
Package schema defines the persisted automation record: the opaque document
exchanged with a backend store, and its lossless conversion to and from the
in-memory domain graph.

Records carry raw per-type config maps; the compiler decodes them into typed
variants when a record is compiled into a Graph, and Encode reverses the
process. Serializing a graph and deserializing it yields an identical set of
step IDs, configs and edges.
*/
package schema
