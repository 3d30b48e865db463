// Package textutil provides text processing helpers for turning untrusted
// remote titles into safe file names.
package textutil
