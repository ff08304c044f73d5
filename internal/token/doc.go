// Package token defines the lexical vocabulary of the accepted Python subset.
package token
