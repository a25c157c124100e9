package model

// ProjectIdentity is resolved once per process and never changes afterwards.
type ProjectIdentity struct {
	ProjectID  string
	DatabaseID string
	Backend    string
	// Source records where ProjectID came from: "GCLOUD_PROJECT",
	// "GCP_PROJECT", "credentials" or "uri".
	Source string
}

// DocumentRef addresses one document returned by a page fetch. Handle is the
// backend's own key (a *firestore.DocumentRef, a BSON _id) and is only
// interpreted by the backend that produced it.
type DocumentRef struct {
	Collection string
	ID         string
	Handle     interface{}
}
