package domain

import "go.trai.ch/zerr"

var (
	// ErrProvisioning is returned when no, or more than one, remote build
	// host can be resolved for the session.
	ErrProvisioning = zerr.New("host provisioning failed")

	// ErrCredential is returned when generating or installing the session's
	// ephemeral credential fails.
	ErrCredential = zerr.New("credential provisioning failed")

	// ErrTransfer is returned when staging files to, or collecting results
	// from, the remote host fails.
	ErrTransfer = zerr.New("transfer failed")

	// ErrRemoteExecution is returned when the bootstrap procedure or the
	// build driver exits nonzero on the remote host.
	ErrRemoteExecution = zerr.New("remote execution failed")

	// ErrRecipeBuild marks a single recipe's pipeline failure. It is fatal
	// to that recipe's receipt only, never to the session.
	ErrRecipeBuild = zerr.New("recipe build failed")

	// ErrRecipeNotFound is returned when a listed recipe cannot be located
	// under the recipes directory.
	ErrRecipeNotFound = zerr.New("recipe not found")

	// ErrNoFingerprint is returned when a cache entry carries no readable
	// origin fingerprint attribute.
	ErrNoFingerprint = zerr.New("no fingerprint attribute")
)
