package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "firestore-utils context key " + string(c)
}

// RunIDKey is the key for the invocation run ID in context.Context
const RunIDKey = contextKey("runID")

// ProjectIDKey is the key for the resolved project identity in context.Context
const ProjectIDKey = contextKey("projectID")

// DatabaseIDKey is the key for the store database ID in context.Context
const DatabaseIDKey = contextKey("databaseID")

// CollectionKey is the key for the collection currently being processed
const CollectionKey = contextKey("collection")

// ComponentKey is the key for the component name in context.Context
const ComponentKey = contextKey("component")

// OperationKey is the key for the operation name (purge, seed) in context.Context
const OperationKey = contextKey("operation")
