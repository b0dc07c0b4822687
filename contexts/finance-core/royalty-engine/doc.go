// Package royaltyengine splits track earnings between collaborators, keeps
// per-user wallets and settles withdrawals against pending payouts.
package royaltyengine
