// Package xiangqi implements move generation, evaluation and fingerprints
// for the 10x9 board game searched by the engine.
//
// The board is stored row-major with Top's back rank at row 0. Pieces are
// single letters: castle C, horse H, jumbo J, knight K, general G, cannon A
// and soldier S. Upper case belongs to Top, lower case to Bottom, and '_'
// is an empty cell. A position's fingerprint is its 90 cells concatenated.
//
// Move generation does not filter self-check. A side may leave its general
// en prise; the search sees that through Threats and the winner check.
package xiangqi
