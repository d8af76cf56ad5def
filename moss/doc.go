// Package moss is a client for the MOSS (Measure Of Software
// Similarity) service at moss.stanford.edu.
//
// A [Session] accumulates options and two ordered file lists, then
// [Session.Send] performs one complete exchange over a fresh TCP
// connection and returns the report URL.  The connection never
// outlives the call.
//
// The wire protocol is line oriented ("\n" terminated), with raw file
// bytes following each file header:
//
//	→ moss <userid>
//	→ directory <0|1>
//	→ X <0|1>
//	→ maxmatches <int>
//	→ show <int>
//	→ language <name>
//	← <token>                      "no" rejects, anything else proceeds
//	→ file <id> <lang> <size> <name> followed by exactly <size> bytes
//	→ query 0 <comment>
//	← <url>
//	→ end
//
// Base files are uploaded first, all with id 0.  Submission files
// follow with ids 1, 2, 3, … in insertion order.
package moss
