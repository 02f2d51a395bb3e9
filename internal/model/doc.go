package model

// Package model defines domain data structures used across the app: queue
// items, resolver candidates, queue snapshots and export records. Items are
// plain values so a whole item can be copied and published in one step.
