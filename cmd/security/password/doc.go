// Package password implements Argon2id password hashing for the signup service.
//
// Hashes are emitted in the PHC-like encoded form
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<key_b64>
//
// so that the algorithm, its cost parameters and the salt travel with the key.
// Verify treats encoded hashes as untrusted input and refuses parameters far
// outside the configured cost.
package password
