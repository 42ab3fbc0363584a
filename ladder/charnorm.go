/*
Copyright (C) 2024  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package ladder

import "golang.org/x/text/unicode/norm"

// NormalizeChar applies NFC normalization before the 7-bit ASCII
// check in Store(Char). Most authored programs never feed non-ASCII
// text through a Char tag, but when a rung's source value arrives via
// run_function (spec 4.6) from an external callable, it may carry a
// Unicode form that is canonically equivalent to a plain ASCII
// character and collapses to it only after normalization (e.g. the
// KELVIN SIGN U+212A becomes ASCII "K"). Running it through norm.NFC
// first keeps the single-ASCII-character invariant from rejecting such
// values. A decomposed accent on an ASCII base letter composes into one
// precomposed non-ASCII rune, which the 7-bit check still rejects.
func NormalizeChar(s string) string {
	return norm.NFC.String(s)
}
