// SPDX-License-Identifier: BSD-3-Clause

// Package id generates random identifiers and persists one to a file so
// it survives restarts (get-or-create). No other package in this
// repository calls it.
package id
