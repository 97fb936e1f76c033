// Package mock provides test doubles for the forum interfaces.
// Behavior is scripted through data fields and overridable via function
// fields, with call counts for assertions.
package mock
