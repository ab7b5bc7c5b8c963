// Package explore builds bounded folder-tree views of a drive for the
// browsing tools.
package explore
