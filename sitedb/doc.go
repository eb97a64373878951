// Package sitedb holds the three table specializations of a backup site:
// rotation media, per-type usage ceilings and site configuration properties.
//
// Stores are cheap handles on a site root directory. Every operation opens
// its table, performs the work and closes the table before returning; no
// file handle outlives a call.
package sitedb
