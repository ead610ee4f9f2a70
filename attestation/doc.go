// Package attestation extracts measurement register (PCR) values from guest
// application log text and composes the attestation summary the console
// serves.
//
// The guest boot path prints each register once as a marker line, e.g.
//
//	[PCR] PCR0: 4f3c2a...
//
// Extraction scans the newest application log streams most-recent-first,
// records the first value seen per canonical register (0, 1, 2 and 8) and
// stops as soon as all four are found. Absence of the log group is not an
// error, just an empty result.
//
// No cryptographic verification happens here: the verification status,
// integrity score and trust level are a deterministic heuristic over
// register presence, and on-chain proof checking is an external collaborator
// reached through the endpoint URLs in the summary.
package attestation
