package utils

import (
	"context"
	"errors"

	"firestore-utils/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrRunIDNotFound       = errors.New("runID not found in context")
	ErrRunIDNotString      = errors.New("runID in context is not a string")
	ErrProjectIDNotFound   = errors.New("projectID not found in context")
	ErrProjectIDNotString  = errors.New("projectID in context is not a string")
	ErrCollectionNotFound  = errors.New("collection not found in context")
	ErrCollectionNotString = errors.New("collection in context is not a string")
)

// GetRunIDFromContext retrieves the invocation run ID from the context.
// It returns the run ID and an error if the run ID is not found or is not a string.
func GetRunIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.RunIDKey, ErrRunIDNotFound, ErrRunIDNotString)
}

// GetProjectIDFromContext retrieves the resolved project identity from the context.
func GetProjectIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.ProjectIDKey, ErrProjectIDNotFound, ErrProjectIDNotString)
}

// GetCollectionFromContext retrieves the collection being processed from the context.
func GetCollectionFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.CollectionKey, ErrCollectionNotFound, ErrCollectionNotString)
}

func stringValue(ctx context.Context, key interface{}, notFound, notString error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", notFound
	}
	s, ok := val.(string)
	if !ok {
		return "", notString
	}
	return s, nil
}

// Context setters

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, contextkeys.RunIDKey, runID)
}

func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, contextkeys.ProjectIDKey, projectID)
}

func WithDatabaseID(ctx context.Context, databaseID string) context.Context {
	return context.WithValue(ctx, contextkeys.DatabaseIDKey, databaseID)
}

func WithCollection(ctx context.Context, collection string) context.Context {
	return context.WithValue(ctx, contextkeys.CollectionKey, collection)
}

func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, contextkeys.ComponentKey, component)
}

func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// GetRunIDOrDefault returns the run ID or def when absent.
func GetRunIDOrDefault(ctx context.Context, def string) string {
	if v, err := GetRunIDFromContext(ctx); err == nil && v != "" {
		return v
	}
	return def
}

// GetProjectIDOrDefault returns the project ID or def when absent.
func GetProjectIDOrDefault(ctx context.Context, def string) string {
	if v, err := GetProjectIDFromContext(ctx); err == nil && v != "" {
		return v
	}
	return def
}
