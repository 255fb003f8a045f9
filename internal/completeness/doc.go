// Package completeness implements the completeness checker (C8): given a
// document hash, it classifies what the database already holds for that
// document and directs the narrowest repair that restores consistency.
package completeness
