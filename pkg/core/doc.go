// Package core provides the fundamental types and interfaces for the taskloop package.
//
// This package contains:
//   - Job data model with GORM annotations
//   - Storage interface defining the persistence contract
//   - Error taxonomy and outcome classification for the executor
//   - Event types for queue monitoring
//
// Most users should import the root package github.com/taskloop/taskloop
// instead of this package directly.
package core
