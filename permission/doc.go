// Package permission derives permission and role sets from the current
// bearer credential and answers capability queries against them.
//
// # Design
//
// The [Deriver] recomputes both sets on every credential change and
// republishes a [Snapshot] over the event bus; consumers subscribe once
// instead of polling. Decode failures yield empty sets — authorization fails
// closed, never open.
//
// A single privileged role (the super-admin) short-circuits every permission
// query to true. Role queries deliberately have no such short-circuit: role
// membership is the more primitive check the short-circuit itself is built
// on.
package permission
