// Package domain contains the core business entities and errors for docfold.
// It has no dependencies on other internal packages.
package domain
