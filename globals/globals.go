package globals

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
const RequestIDKey ContextKey = "requestId"

// Header carrying the caller identity for clients that do not send a token.
const UserIDHeader = "x-user-id"

// Datasets the catalog endpoints serve from.
const CatalogSourcePattern = "^datatourisme-"
