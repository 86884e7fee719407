package authcore

import (
	"errors"

	"github.com/fleetadmin/authcore/claims"
	"github.com/fleetadmin/authcore/credential"
	"github.com/fleetadmin/authcore/menu"
)

var (
	// ErrBuilderUsed is returned by a second call to [Builder.Build].
	ErrBuilderUsed = errors.New("builder already used")
	// ErrFetcherRequired is returned by Build when neither a menu fetcher
	// nor a menu base URL was provided.
	ErrFetcherRequired = errors.New("menu fetcher required")
	// ErrNotLoggedIn is returned by operations that need an identified
	// user when no valid credential is stored.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Subpackage sentinels re-exported so callers can errors.Is against
// authcore alone.
var (
	// ErrTokenMalformed marks an undecodable bearer token.
	ErrTokenMalformed = claims.ErrMalformed
	// ErrMenuFetch marks a failed menu endpoint call.
	ErrMenuFetch = menu.ErrFetch
	// ErrKeyNotFound marks an absent storage key.
	ErrKeyNotFound = credential.ErrKeyNotFound
)
